// Package eventbus provides the client for the event service, the
// pub/sub and request/reply broker every Amiga service exposes.
//
// This package handles:
//   - Connection management with automatic reconnection
//   - Subscription to event streams by URI path
//   - Publishing events and request/reply exchanges
//
// The service only pushes streams that were announced to it; the client
// announces the configured subscriptions plus every live Subscribe call
// on connect and after each reconnect, and additionally filters the
// delivered events per subscriber.
package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Subscription names one event stream of a service.
type Subscription struct {
	// Path is the URI path of the stream, e.g. "/pvt" or "/motor_states".
	Path string `json:"path"`

	// EveryN subsamples the stream: deliver every n-th event. 0 and 1
	// both mean every event.
	EveryN int `json:"every_n,omitempty"`
}

// ServiceConfig describes how to reach one event service and which of
// its streams to subscribe to. Configs are stored as JSON files and
// passed to the example programs with --service-config.
type ServiceConfig struct {
	// Name of the service, e.g. "canbus", "gps", "track_follower".
	Name string `json:"name"`

	// Host and Port of the service's event endpoint.
	Host string `json:"host"`
	Port int    `json:"port"`

	// Subscriptions requested by the client.
	Subscriptions []Subscription `json:"subscriptions,omitempty"`

	// ReconnectInterval is how often to attempt reconnection on failure.
	// In JSON either a duration string ("500ms", "2s") or a number of
	// seconds.
	ReconnectInterval time.Duration `json:"reconnect_interval,omitempty"`

	// MaxReconnectAttempts is the maximum number of reconnection
	// attempts. 0 means unlimited.
	MaxReconnectAttempts int `json:"max_reconnect_attempts,omitempty"`

	// RequestTimeout bounds each request/reply exchange. Same JSON
	// forms as ReconnectInterval.
	RequestTimeout time.Duration `json:"request_timeout,omitempty"`
}

// UnmarshalJSON decodes the config, accepting the duration fields
// either as Go duration strings or as plain numbers of seconds.
func (c *ServiceConfig) UnmarshalJSON(data []byte) error {
	type plain ServiceConfig
	aux := struct {
		*plain
		ReconnectInterval json.RawMessage `json:"reconnect_interval,omitempty"`
		RequestTimeout    json.RawMessage `json:"request_timeout,omitempty"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if err := unmarshalDuration(aux.ReconnectInterval, &c.ReconnectInterval); err != nil {
		return fmt.Errorf("reconnect_interval: %w", err)
	}
	if err := unmarshalDuration(aux.RequestTimeout, &c.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	return nil
}

// MarshalJSON encodes the duration fields as duration strings, the form
// UnmarshalJSON round-trips.
func (c ServiceConfig) MarshalJSON() ([]byte, error) {
	type plain ServiceConfig
	aux := struct {
		plain
		ReconnectInterval string `json:"reconnect_interval,omitempty"`
		RequestTimeout    string `json:"request_timeout,omitempty"`
	}{plain: plain(c)}
	if c.ReconnectInterval != 0 {
		aux.ReconnectInterval = c.ReconnectInterval.String()
	}
	if c.RequestTimeout != 0 {
		aux.RequestTimeout = c.RequestTimeout.String()
	}
	return json.Marshal(aux)
}

func unmarshalDuration(raw json.RawMessage, d *time.Duration) error {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return fmt.Errorf("want a duration string or seconds, got %s", raw)
	}
	*d = time.Duration(secs * float64(time.Second))
	return nil
}

// DefaultServiceConfig returns a ServiceConfig with sensible defaults
// for the named service.
func DefaultServiceConfig(name string) ServiceConfig {
	return ServiceConfig{
		Name:              name,
		Host:              "localhost",
		Port:              5001,
		ReconnectInterval: 2 * time.Second,
		RequestTimeout:    5 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	for _, sub := range c.Subscriptions {
		if sub.Path == "" {
			return fmt.Errorf("subscription path is required")
		}
	}
	return nil
}

// Address returns the host:port of the service endpoint.
func (c *ServiceConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// URL returns the websocket URL of the service endpoint.
func (c *ServiceConfig) URL() string {
	return fmt.Sprintf("ws://%s/events", c.Address())
}

// LoadServiceConfig reads a ServiceConfig from a JSON file. Fields
// absent from the file keep their defaults.
func LoadServiceConfig(path string) (ServiceConfig, error) {
	cfg := DefaultServiceConfig("")

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read service config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse service config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid service config %s: %w", path, err)
	}
	return cfg, nil
}
