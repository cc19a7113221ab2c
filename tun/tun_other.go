//go:build !linux

package tun

import (
	"errors"
	"fmt"
)

func open(string) (*Device, error) {
	return nil, fmt.Errorf("tun: %w", errors.ErrUnsupported)
}
