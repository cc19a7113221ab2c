package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"i4.energy/across/esptun/modem"
)

// Config holds the application configuration
type Config struct {
	// Interface is the TUN interface to attach to (e.g. "tun0")
	Interface string `yaml:"interface"`
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the rate the modem listens on after reset
	BaudRate int `yaml:"baud_rate"`
	// TargetBaudRate is the rate the link is raised to during the handshake
	TargetBaudRate int `yaml:"target_baud_rate"`
	// SSID and Password of the access point to join
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	// Host and Port of the UDP peer; the local port is the same
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// BufferSize is the capacity of the modem response buffer
	BufferSize int `yaml:"buffer_size"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// LogFormat is "json" or "text"
	LogFormat string `yaml:"log_format"`
	// LogFile, when set, receives a copy of the log with size based rotation
	LogFile string `yaml:"log_file"`
	// StatsInterval is the period of the traffic report; zero disables it
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.Interface = "tun0"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = modem.DefaultBaudRate
		c.TargetBaudRate = modem.DefaultTargetBaudRate
		c.BufferSize = modem.DefaultBufferSize
		c.LogLevel = "info"
		c.LogFormat = "json"
		c.StatsInterval = time.Minute
		return nil
	}
}

// WithFile loads configuration from a YAML file. Keys missing from the
// file keep their current value. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		strs := map[string]*string{
			"TUN_INTERFACE": &c.Interface,
			"SERIAL_PORT":   &c.SerialPort,
			"WIFI_SSID":     &c.SSID,
			"WIFI_PASSWORD": &c.Password,
			"REMOTE_HOST":   &c.Host,
			"LOG_LEVEL":     &c.LogLevel,
			"LOG_FORMAT":    &c.LogFormat,
			"LOG_FILE":      &c.LogFile,
		}
		for name, field := range strs {
			if v := os.Getenv(name); v != "" {
				*field = v
			}
		}

		ints := map[string]*int{
			"BAUD_RATE":        &c.BaudRate,
			"TARGET_BAUD_RATE": &c.TargetBaudRate,
			"REMOTE_PORT":      &c.Port,
			"BUFFER_SIZE":      &c.BufferSize,
		}
		for name, field := range ints {
			if v := os.Getenv(name); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				*field = n
			}
		}

		if v := os.Getenv("STATS_INTERVAL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("STATS_INTERVAL: %w", err)
			}
			c.StatsInterval = d
		}

		return nil
	}
}

// defineFlags registers the command-line flags WithFlags understands.
func defineFlags(fSet *flag.FlagSet) {
	fSet.String("config", "", "YAML configuration file")
	fSet.String("interface", "tun0", "TUN interface to attach to")
	fSet.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	fSet.Int("baud-rate", modem.DefaultBaudRate, "Baud rate of the modem after reset")
	fSet.Int("target-baud-rate", modem.DefaultTargetBaudRate, "Baud rate to switch to during initialization")
	fSet.String("ssid", "", "Access point SSID")
	fSet.String("password", "", "Access point password")
	fSet.String("host", "", "Remote UDP host")
	fSet.Int("port", 0, "Remote and local UDP port")
	fSet.Int("buffer-size", modem.DefaultBufferSize, "Modem response buffer size")
	fSet.String("log-level", "info", "Log level (debug, info, warn, error)")
	fSet.String("log-format", "json", "Log format (json, text)")
	fSet.String("log-file", "", "Also write logs to this file, rotated by size")
	fSet.Duration("stats-interval", time.Minute, "Traffic report interval, 0 to disable")
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			getter, ok := f.Value.(flag.Getter)
			if !ok {
				return
			}
			switch v := getter.Get().(type) {
			case string:
				switch f.Name {
				case "interface":
					c.Interface = v
				case "serial-port":
					c.SerialPort = v
				case "ssid":
					c.SSID = v
				case "password":
					c.Password = v
				case "host":
					c.Host = v
				case "log-level":
					c.LogLevel = v
				case "log-format":
					c.LogFormat = v
				case "log-file":
					c.LogFile = v
				}
			case int:
				switch f.Name {
				case "baud-rate":
					c.BaudRate = v
				case "target-baud-rate":
					c.TargetBaudRate = v
				case "port":
					c.Port = v
				case "buffer-size":
					c.BufferSize = v
				}
			case time.Duration:
				if f.Name == "stats-interval" {
					c.StatsInterval = v
				}
			default:
				err = fmt.Errorf("flag -%s: unexpected type %T", f.Name, v)
			}
		})
		return err
	}
}

// WithArgs applies the positional arguments
// <ifname> <uart> <ssid> <passwd> <host> <port>. No arguments at all is
// accepted so everything can come from flags, environment or file.
func WithArgs(args []string) ConfigOption {
	return func(c *Config) error {
		if len(args) == 0 {
			return nil
		}
		if len(args) != 6 {
			return fmt.Errorf("expected 6 arguments <ifname> <uart> <ssid> <passwd> <host> <port>, got %d", len(args))
		}
		port, err := strconv.Atoi(args[5])
		if err != nil {
			return fmt.Errorf("port %q: %w", args[5], err)
		}
		c.Interface = args[0]
		c.SerialPort = args[1]
		c.SSID = args[2]
		c.Password = args[3]
		c.Host = args[4]
		c.Port = port
		return nil
	}
}

// Validate reports every missing or out of range setting.
func (c *Config) Validate() error {
	var errs []error
	if c.SerialPort == "" {
		errs = append(errs, errors.New("serial port is required"))
	}
	if c.SSID == "" {
		errs = append(errs, errors.New("ssid is required"))
	}
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud rate %d must be positive", c.BaudRate))
	}
	if c.TargetBaudRate <= 0 {
		errs = append(errs, fmt.Errorf("target baud rate %d must be positive", c.TargetBaudRate))
	}
	if c.BufferSize < modem.MinBufferSize {
		errs = append(errs, fmt.Errorf("buffer size %d is below %d", c.BufferSize, modem.MinBufferSize))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q (must be json or text)", c.LogFormat))
	}
	if c.StatsInterval < 0 {
		errs = append(errs, fmt.Errorf("stats interval %s is negative", c.StatsInterval))
	}
	return errors.Join(errs...)
}
