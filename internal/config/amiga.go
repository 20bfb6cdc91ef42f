// Package config provides configuration helpers for amiga-go commands.
package config

import (
	"os"

	"github.com/farm-ng/amiga-go/pkg/eventbus"
)

// Default ports the brain services listen on.
var defaultPorts = map[string]int{
	"canbus":         50060,
	"gps":            50061,
	"filter":         50062,
	"track_follower": 50063,
	"dashboard":      50064,
}

// AmigaHost returns the brain address from the AMIGA_HOST env var.
// Falls back to the provided default if not set.
func AmigaHost(defaultHost string) string {
	if host := os.Getenv("AMIGA_HOST"); host != "" {
		return host
	}
	return defaultHost
}

// ServiceConfig resolves the config for a named brain service. If
// configPath is non-empty the config is loaded from that JSON file;
// otherwise the service default is used, with host and port overriding
// when non-zero.
func ServiceConfig(name, configPath, host string, port int) (eventbus.ServiceConfig, error) {
	if configPath != "" {
		return eventbus.LoadServiceConfig(configPath)
	}

	cfg := eventbus.DefaultServiceConfig(name)
	cfg.Host = AmigaHost(cfg.Host)
	if host != "" {
		cfg.Host = host
	}
	if p, ok := defaultPorts[name]; ok {
		cfg.Port = p
	}
	if port != 0 {
		cfg.Port = port
	}
	return cfg, cfg.Validate()
}
