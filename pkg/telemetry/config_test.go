package telemetry

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("tractor-01")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.TopicPrefix != "amiga/tractor-01" {
		t.Errorf("unexpected topic prefix: %s", cfg.TopicPrefix)
	}
	if cfg.ClientID != "amiga-telemetry-tractor-01" {
		t.Errorf("unexpected client id: %s", cfg.ClientID)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing broker", func(c *Config) { c.BrokerURL = "" }, true},
		{"missing client id", func(c *Config) { c.ClientID = "" }, true},
		{"missing prefix", func(c *Config) { c.TopicPrefix = "" }, true},
		{"bad qos", func(c *Config) { c.QoS = 3 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("test")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTopic(t *testing.T) {
	cfg := DefaultConfig("tractor-01")
	if got := cfg.Topic("tpdo1"); got != "amiga/tractor-01/tpdo1" {
		t.Errorf("unexpected topic: %s", got)
	}
}
