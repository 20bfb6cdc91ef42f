// Package telemetry republishes robot state to an MQTT broker, so
// fleet dashboards off the local network can watch the Amiga without
// speaking the event bus protocol.
package telemetry

import (
	"fmt"
	"time"
)

// Config holds the MQTT bridge configuration.
type Config struct {
	// BrokerURL is the MQTT broker address, e.g. "tcp://localhost:1883".
	BrokerURL string `json:"broker_url"`

	// ClientID identifies this bridge to the broker.
	ClientID string `json:"client_id"`

	// TopicPrefix is prepended to every published topic, typically
	// "amiga/<robot-name>".
	TopicPrefix string `json:"topic_prefix"`

	// QoS for published messages (0, 1 or 2).
	QoS byte `json:"qos"`

	KeepAlive      time.Duration `json:"keep_alive"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// DefaultConfig returns a config for a local broker.
func DefaultConfig(robotName string) Config {
	return Config{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       fmt.Sprintf("amiga-telemetry-%s", robotName),
		TopicPrefix:    fmt.Sprintf("amiga/%s", robotName),
		QoS:            1,
		KeepAlive:      60 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("telemetry: broker URL is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("telemetry: client ID is required")
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("telemetry: topic prefix is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("telemetry: QoS must be 0, 1 or 2, got %d", c.QoS)
	}
	return nil
}

// Topic returns the full topic for a subtopic, e.g. Topic("tpdo1")
// -> "amiga/<name>/tpdo1".
func (c Config) Topic(subtopic string) string {
	return fmt.Sprintf("%s/%s", c.TopicPrefix, subtopic)
}
