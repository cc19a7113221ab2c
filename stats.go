package main

import (
	"context"
	"log/slog"
	"time"

	"i4.energy/across/esptun/modem"
)

type statsSource interface {
	Stats() modem.Stats
}

// reportStats logs the traffic of every interval until ctx is done.
// Idle intervals are only logged at debug level.
func reportStats(ctx context.Context, logger *slog.Logger, source statsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := source.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur := source.Stats()
		delta := cur.Sub(prev)
		prev = cur

		level := slog.LevelInfo
		if delta.IsZero() {
			level = slog.LevelDebug
		}
		logger.Log(ctx, level, "Tunnel statistics",
			"interval", interval,
			slog.Group("to_modem",
				"packets", delta.PacketsToModem,
				"bytes", delta.BytesToModem,
				"rejected", delta.SendsRejected),
			slog.Group("from_modem",
				"packets", delta.PacketsFromModem,
				"bytes", delta.BytesFromModem,
				"write_errors", delta.DeviceWriteErrors),
		)
	}
}
