package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  host: "192.168.1.50"
  serial: "NX0042A1"
  port: 1884
poll:
  interval: 15
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.Host != "192.168.1.50" {
		t.Errorf("Gateway.Host = %q, want %q", cfg.Gateway.Host, "192.168.1.50")
	}
	if cfg.Gateway.Serial != "NX0042A1" {
		t.Errorf("Gateway.Serial = %q, want %q", cfg.Gateway.Serial, "NX0042A1")
	}
	if cfg.Gateway.Port != 1884 {
		t.Errorf("Gateway.Port = %d, want 1884", cfg.Gateway.Port)
	}
	if cfg.Gateway.ClientID != "nexhome-core" {
		t.Errorf("Gateway.ClientID = %q, want default %q", cfg.Gateway.ClientID, "nexhome-core")
	}
	if cfg.GetPollInterval() != 15*time.Second {
		t.Errorf("GetPollInterval() = %v, want 15s", cfg.GetPollInterval())
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
gateway:
  host: "192.168.1.50"
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for missing gateway.serial, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Gateway.Host = "192.168.1.50"
		cfg.Gateway.Serial = "NX0042A1"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing gateway host",
			mutate:  func(c *Config) { c.Gateway.Host = "" },
			wantErr: true,
		},
		{
			name:    "missing gateway serial",
			mutate:  func(c *Config) { c.Gateway.Serial = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.Gateway.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid gateway port",
			mutate:  func(c *Config) { c.Gateway.Port = 0 },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Poll.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *Config) { c.Poll.RequestTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid api port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero websocket ping interval",
			mutate:  func(c *Config) { c.API.WebSocket.PingInterval = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Poll: PollConfig{Interval: 10, RequestTimeout: 3},
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{HistoryRetention: 48},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.GetRequestTimeout(); got != 3*time.Second {
		t.Errorf("GetRequestTimeout() = %v, want 3s", got)
	}
	if got := cfg.GetHistoryRetention(); got != 48*time.Hour {
		t.Errorf("GetHistoryRetention() = %v, want 48h", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("NEXHOME_GATEWAY_HOST", "10.0.0.7")
	t.Setenv("NEXHOME_GATEWAY_SERIAL", "NX-ENV")
	t.Setenv("NEXHOME_GATEWAY_PORT", "8883")
	t.Setenv("NEXHOME_GATEWAY_USERNAME", "testuser")
	t.Setenv("NEXHOME_GATEWAY_PASSWORD", "testpass")
	t.Setenv("NEXHOME_DATABASE_PATH", "/custom/path.db")
	t.Setenv("NEXHOME_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("NEXHOME_API_HOST", "192.168.1.1")

	applyEnvOverrides(cfg)

	if cfg.Gateway.Host != "10.0.0.7" {
		t.Errorf("Gateway.Host = %q, want %q", cfg.Gateway.Host, "10.0.0.7")
	}
	if cfg.Gateway.Serial != "NX-ENV" {
		t.Errorf("Gateway.Serial = %q, want %q", cfg.Gateway.Serial, "NX-ENV")
	}
	if cfg.Gateway.Port != 8883 {
		t.Errorf("Gateway.Port = %d, want 8883", cfg.Gateway.Port)
	}
	if cfg.Gateway.Auth.Username != "testuser" {
		t.Errorf("Gateway.Auth.Username = %q, want %q", cfg.Gateway.Auth.Username, "testuser")
	}
	if cfg.Gateway.Auth.Password != "testpass" {
		t.Errorf("Gateway.Auth.Password = %q, want %q", cfg.Gateway.Auth.Password, "testpass")
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("NEXHOME_GATEWAY_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.Gateway.Port != 1883 {
		t.Errorf("Gateway.Port = %d, want default 1883", cfg.Gateway.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.Gateway.Port != 1883 {
		t.Errorf("defaultConfig Gateway.Port = %d, want 1883", cfg.Gateway.Port)
	}
	if cfg.Gateway.QoS != 1 {
		t.Errorf("defaultConfig Gateway.QoS = %d, want 1", cfg.Gateway.QoS)
	}
	if cfg.Poll.Interval != 10 {
		t.Errorf("defaultConfig Poll.Interval = %d, want 10", cfg.Poll.Interval)
	}
	if cfg.API.Port != 8123 {
		t.Errorf("defaultConfig API.Port = %d, want 8123", cfg.API.Port)
	}
}
