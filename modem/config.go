package modem

import (
	"fmt"
	"log/slog"
)

const (
	// DefaultTargetBaudRate is the rate the link is raised to during the
	// handshake. The modem supports up to 115200*40.
	DefaultTargetBaudRate = DefaultBaudRate * 4

	// DefaultBufferSize is the capacity of the response buffer.
	DefaultBufferSize = 2000

	// MinBufferSize must hold the largest packet frame: a 1500 byte
	// payload plus its +IPD header.
	MinBufferSize = 1500
)

// Config holds everything a Modem needs for the handshake and the bridge.
// Use NewConfigBuilder to create one.
type Config struct {
	dialer     Dialer
	device     NetDevice
	logger     *slog.Logger
	ssid       string
	password   string
	host       string
	port       uint16
	baudRate   int
	bufferSize int
}

func (c *Config) setDefaults() {
	if c.baudRate == 0 {
		c.baudRate = DefaultTargetBaudRate
	}
	if c.bufferSize == 0 {
		c.bufferSize = DefaultBufferSize
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	if c.device == nil {
		return ErrNoDevice
	}
	if c.ssid == "" {
		return fmt.Errorf("%w: access point SSID is required", ErrInvalidConfig)
	}
	if c.host == "" {
		return fmt.Errorf("%w: remote host is required", ErrInvalidConfig)
	}
	if c.port == 0 {
		return fmt.Errorf("%w: remote port is required", ErrInvalidConfig)
	}
	if c.baudRate < 0 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidConfig, c.baudRate)
	}
	if c.bufferSize < MinBufferSize {
		return fmt.Errorf("%w: buffer size %d is below %d", ErrInvalidConfig, c.bufferSize, MinBufferSize)
	}
	return nil
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithDevice sets the network device inbound packets are written to and
// outbound packets are read from.
func (b *ConfigBuilder) WithDevice(dev NetDevice) *ConfigBuilder {
	b.config.device = dev
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

func (b *ConfigBuilder) WithAccessPoint(ssid, password string) *ConfigBuilder {
	b.config.ssid = ssid
	b.config.password = password
	return b
}

// WithRemote sets the UDP peer. The same port is used locally.
func (b *ConfigBuilder) WithRemote(host string, port uint16) *ConfigBuilder {
	b.config.host = host
	b.config.port = port
	return b
}

// WithBaudRate sets the rate the link is raised to after the first
// commands. Zero keeps DefaultTargetBaudRate.
func (b *ConfigBuilder) WithBaudRate(baud int) *ConfigBuilder {
	b.config.baudRate = baud
	return b
}

func (b *ConfigBuilder) WithBufferSize(n int) *ConfigBuilder {
	b.config.bufferSize = n
	return b
}

// Build applies defaults and validates the configuration.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	c.setDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
