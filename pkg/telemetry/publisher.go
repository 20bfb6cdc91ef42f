package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher forwards JSON telemetry to an MQTT broker.
type Publisher struct {
	cfg    Config
	logger *slog.Logger
	client mqtt.Client

	published   atomic.Int64
	publishErrs atomic.Int64
}

// NewPublisher creates a publisher. Call Connect before publishing.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{
		cfg:    cfg,
		logger: logger.With("broker", cfg.BrokerURL),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetOnConnectHandler(func(mqtt.Client) {
			p.logger.Info("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			p.logger.Warn("mqtt connection lost", "error", err)
		})

	p.client = mqtt.NewClient(opts)
	return p, nil
}

// Connect establishes the broker connection.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", p.cfg.BrokerURL, err)
	}
	return nil
}

// Publish marshals v as JSON and publishes it on the prefixed subtopic.
// Delivery is fire-and-forget; broker errors are counted and logged,
// not returned, so a flaky uplink never stalls the bus loop.
func (p *Publisher) Publish(subtopic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry for %s: %w", subtopic, err)
	}

	topic := p.cfg.Topic(subtopic)
	token := p.client.Publish(topic, p.cfg.QoS, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			p.publishErrs.Add(1)
			p.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
			return
		}
		p.published.Add(1)
	}()
	return nil
}

// Published returns the number of messages acknowledged by the broker.
func (p *Publisher) Published() int64 {
	return p.published.Load()
}

// PublishErrors returns the number of failed publishes.
func (p *Publisher) PublishErrors() int64 {
	return p.publishErrs.Load()
}

// Close disconnects from the broker, allowing in-flight messages 250ms
// to drain.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	p.logger.Info("mqtt disconnected")
}
