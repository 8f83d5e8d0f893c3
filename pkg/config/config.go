package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TransportTCP  = "tcp"
	TransportHTTP = "http"

	DefaultAddress  = "127.0.0.1"
	DefaultTCPPort  = 5000
	DefaultHTTPPort = 5001
)

type Config struct {
	LogLevel string      `yaml:"log_level"`
	Gstd     GstdConfig  `yaml:"gstd"`
	Redis    RedisConfig `yaml:"redis"`
	Relay    RelayConfig `yaml:"relay"`
	S3       S3Config    `yaml:"s3"`
	Test     bool        `yaml:"-"`
}

type GstdConfig struct {
	Address            string `yaml:"address"`
	Port               int    `yaml:"port"`
	Transport          string `yaml:"transport"`
	TimeoutMs          int    `yaml:"timeout_ms"`
	KeepConnectionOpen bool   `yaml:"keep_connection_open"`
	LogLevel           string `yaml:"log_level"`
	// gstd's own log file, followed by `gstc logs`
	LogFile string `yaml:"log_file"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	UseTLS   bool   `yaml:"use_tls"`
}

type RelayConfig struct {
	RequestChannel  string `yaml:"request_channel"`
	ResponseChannel string `yaml:"response_channel"`
	SignalPrefix    string `yaml:"signal_prefix"`
}

type S3Config struct {
	AccessKey string `yaml:"access_key"`
	Secret    string `yaml:"secret"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
}

func NewConfig(confString string) (*Config, error) {
	// start with defaults
	conf := &Config{
		LogLevel: "info",
		Gstd:     DefaultGstdConfig(),
		Relay: RelayConfig{
			RequestChannel:  "gstd_requests",
			ResponseChannel: "gstd_responses",
			SignalPrefix:    "gstd_signal",
		},
	}

	if confString != "" {
		if err := yaml.Unmarshal([]byte(confString), conf); err != nil {
			return nil, fmt.Errorf("could not parse config: %v", err)
		}
	}

	// the port stays unset so later transport overrides pick their own default
	if err := conf.Gstd.normalize(); err != nil {
		return nil, err
	}

	return conf, nil
}

func DefaultGstdConfig() GstdConfig {
	// port is resolved per transport by Validate
	return GstdConfig{
		Address:   DefaultAddress,
		Transport: TransportTCP,
		TimeoutMs: 5000,
		LogLevel:  "error",
	}
}

func TestConfig() *Config {
	return &Config{
		LogLevel: "debug",
		Gstd: GstdConfig{
			Address:   DefaultAddress,
			Port:      DefaultTCPPort,
			Transport: TransportTCP,
			TimeoutMs: 1000,
			LogLevel:  "debug",
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Relay: RelayConfig{
			RequestChannel:  "gstd_requests",
			ResponseChannel: "gstd_responses",
			SignalPrefix:    "gstd_signal",
		},
		Test: true,
	}
}

// Validate normalizes the config and resolves the default port of the
// chosen transport. Call it once every override has been applied.
func (c *GstdConfig) Validate() error {
	if err := c.normalize(); err != nil {
		return err
	}
	if c.Port == 0 {
		if c.Transport == TransportHTTP {
			c.Port = DefaultHTTPPort
		} else {
			c.Port = DefaultTCPPort
		}
	}
	return nil
}

func (c *GstdConfig) normalize() error {
	c.Transport = strings.ToLower(c.Transport)
	switch c.Transport {
	case "":
		c.Transport = TransportTCP
	case TransportTCP, TransportHTTP:
	default:
		return fmt.Errorf("unknown gstd transport %q", c.Transport)
	}

	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid gstd port %d", c.Port)
	}
	return nil
}

// Timeout is the per-request deadline. Zero or negative means no deadline.
func (c *GstdConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
