package eventbus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig("canbus")

	if cfg.Name != "canbus" {
		t.Errorf("expected name canbus, got %s", cfg.Name)
	}
	if cfg.Host != "localhost" {
		t.Errorf("expected host localhost, got %s", cfg.Host)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantErr bool
	}{
		{"valid", func(c *ServiceConfig) {}, false},
		{"missing name", func(c *ServiceConfig) { c.Name = "" }, true},
		{"missing host", func(c *ServiceConfig) { c.Host = "" }, true},
		{"bad port", func(c *ServiceConfig) { c.Port = -1 }, true},
		{"empty subscription path", func(c *ServiceConfig) {
			c.Subscriptions = []Subscription{{Path: ""}}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServiceConfig("gps")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestServiceConfigURL(t *testing.T) {
	cfg := ServiceConfig{Name: "gps", Host: "10.0.0.5", Port: 3001}
	if got := cfg.URL(); got != "ws://10.0.0.5:3001/events" {
		t.Errorf("unexpected URL: %s", got)
	}
}

func TestLoadServiceConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service_config.json")

	data := `{
		"name": "canbus",
		"host": "amiga.local",
		"port": 6001,
		"subscriptions": [{"path": "/state"}, {"path": "/motor_states", "every_n": 5}]
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadServiceConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Name != "canbus" || cfg.Host != "amiga.local" || cfg.Port != 6001 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.Subscriptions) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(cfg.Subscriptions))
	}
	if cfg.Subscriptions[1].EveryN != 5 {
		t.Errorf("expected every_n 5, got %d", cfg.Subscriptions[1].EveryN)
	}
	// Defaults survive fields absent from the file.
	if cfg.ReconnectInterval != 2*time.Second {
		t.Errorf("expected default reconnect interval, got %v", cfg.ReconnectInterval)
	}
}

func TestLoadServiceConfigDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service_config.json")

	// Duration fields accept "2s" style strings and plain seconds.
	data := `{
		"name": "gps",
		"host": "localhost",
		"port": 50061,
		"reconnect_interval": "250ms",
		"request_timeout": 5
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadServiceConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ReconnectInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms reconnect interval, got %v", cfg.ReconnectInterval)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s request timeout, got %v", cfg.RequestTimeout)
	}
}

func TestLoadServiceConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service_config.json")

	data := `{"name": "gps", "host": "localhost", "port": 50061, "request_timeout": "fast"}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadServiceConfig(path); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestServiceConfigJSONRoundTrip(t *testing.T) {
	cfg := DefaultServiceConfig("canbus")
	cfg.RequestTimeout = 1500 * time.Millisecond

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded ServiceConfig
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.ReconnectInterval != cfg.ReconnectInterval {
		t.Errorf("reconnect interval did not round-trip: %v", decoded.ReconnectInterval)
	}
	if decoded.RequestTimeout != 1500*time.Millisecond {
		t.Errorf("request timeout did not round-trip: %v", decoded.RequestTimeout)
	}
}

func TestLoadServiceConfigMissingFile(t *testing.T) {
	if _, err := LoadServiceConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
