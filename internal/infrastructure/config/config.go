package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Nexhome integration.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Poll     PollConfig     `yaml:"poll"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GatewayConfig identifies the Nexhome gateway and how to reach its broker.
//
// Host and Serial are the two values the integration entry is created with;
// everything else has a sensible default.
type GatewayConfig struct {
	// Host is the gateway's network address (IP or hostname).
	Host string `yaml:"host"`

	// Serial is the gateway serial number. It scopes every MQTT topic.
	Serial string `yaml:"serial"`

	// Port is the gateway broker port. Default: 1883
	Port int `yaml:"port"`

	// TLS switches the broker URL to ssl://.
	TLS bool `yaml:"tls"`

	// ClientID is this integration's MQTT client identifier.
	ClientID string `yaml:"client_id"`

	// QoS is used for commands and state queries. Default: 1
	QoS int `yaml:"qos"`

	Auth      GatewayAuthConfig      `yaml:"auth"`
	Reconnect GatewayReconnectConfig `yaml:"reconnect"`
}

// GatewayAuthConfig contains broker credentials.
type GatewayAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// GatewayReconnectConfig contains reconnection settings (seconds).
type GatewayReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// PollConfig controls the state coordinators.
type PollConfig struct {
	// Interval between state refreshes, in seconds. Default: 10
	Interval int `yaml:"interval"`

	// RequestTimeout bounds a single state query, in seconds. Default: 5
	RequestTimeout int `yaml:"request_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// HistoryRetention is how long state history rows are kept, in hours.
	// 0 disables pruning.
	HistoryRetention int `yaml:"history_retention"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	WebSocket WebSocketConfig  `yaml:"websocket"`
}

// WebSocketConfig contains settings for the state change stream.
type WebSocketConfig struct {
	// PingInterval and PongTimeout are in seconds.
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
	MaxMessageSize int `yaml:"max_message_size"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NEXHOME_SECTION_KEY
// For example: NEXHOME_GATEWAY_HOST, NEXHOME_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Port:     1883,
			ClientID: "nexhome-core",
			QoS:      1,
			Reconnect: GatewayReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Poll: PollConfig{
			Interval:       10,
			RequestTimeout: 5,
		},
		Database: DatabaseConfig{
			Path:             "./data/nexhome.db",
			WALMode:          true,
			BusyTimeout:      5,
			HistoryRetention: 24 * 7,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8123,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				PingInterval:   30,
				PongTimeout:    10,
				MaxMessageSize: 4096,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NEXHOME_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Gateway
	if v := os.Getenv("NEXHOME_GATEWAY_HOST"); v != "" {
		cfg.Gateway.Host = v
	}
	if v := os.Getenv("NEXHOME_GATEWAY_SERIAL"); v != "" {
		cfg.Gateway.Serial = v
	}
	if v := os.Getenv("NEXHOME_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("NEXHOME_GATEWAY_USERNAME"); v != "" {
		cfg.Gateway.Auth.Username = v
	}
	if v := os.Getenv("NEXHOME_GATEWAY_PASSWORD"); v != "" {
		cfg.Gateway.Auth.Password = v
	}

	// Database
	if v := os.Getenv("NEXHOME_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("NEXHOME_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("NEXHOME_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Gateway.Host == "" {
		errs = append(errs, "gateway.host is required")
	}
	if c.Gateway.Serial == "" {
		errs = append(errs, "gateway.serial is required")
	}
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		errs = append(errs, "gateway.port must be between 1 and 65535")
	}
	if c.Gateway.QoS < 0 || c.Gateway.QoS > 2 {
		errs = append(errs, "gateway.qos must be 0, 1, or 2")
	}

	if c.Poll.Interval < 1 {
		errs = append(errs, "poll.interval must be at least 1 second")
	}
	if c.Poll.RequestTimeout < 1 {
		errs = append(errs, "poll.request_timeout must be at least 1 second")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.WebSocket.PingInterval < 1 || c.API.WebSocket.PongTimeout < 1 {
		errs = append(errs, "api.websocket ping_interval and pong_timeout must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the coordinator refresh interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poll.Interval) * time.Second
}

// GetRequestTimeout returns the state query timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Poll.RequestTimeout) * time.Second
}

// GetHistoryRetention returns the state history retention as a Duration.
// Zero means history is never pruned.
func (c *Config) GetHistoryRetention() time.Duration {
	return time.Duration(c.Database.HistoryRetention) * time.Hour
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
