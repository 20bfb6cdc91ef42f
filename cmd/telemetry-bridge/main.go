// Telemetry bridge - decode vehicle state, pendant and motor traffic
// from the canbus service and republish it as JSON over MQTT, so fleet
// dashboards off the robot's network can watch the Amiga.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/farm-ng/amiga-go/internal/config"
	"github.com/farm-ng/amiga-go/internal/log"
	"github.com/farm-ng/amiga-go/pkg/canbus"
	"github.com/farm-ng/amiga-go/pkg/eventbus"
	"github.com/farm-ng/amiga-go/pkg/telemetry"
)

func main() {
	configPath := flag.String("service-config", "", "canbus service config JSON")
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	port := flag.Int("port", 0, "canbus service port")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	robotName := flag.String("robot-name", "amiga", "robot name used in MQTT topics")
	everyN := flag.Int("every-n", 5, "forward every n-th bus message")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()
	log.Init(*logLevel)

	cfg, err := config.ServiceConfig("canbus", *configPath, *host, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mqttCfg := telemetry.DefaultConfig(*robotName)
	mqttCfg.BrokerURL = *broker
	publisher, err := telemetry.NewPublisher(mqttCfg, log.L())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := publisher.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer publisher.Close()

	client, err := eventbus.New(cfg, log.L())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := client.ConnectWithRetry(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	states, cancelStates := client.Subscribe(eventbus.Subscription{Path: "/state", EveryN: *everyN}, 64)
	defer cancelStates()
	pendants, cancelPendants := client.Subscribe(eventbus.Subscription{Path: "/pendant", EveryN: *everyN}, 64)
	defer cancelPendants()
	motors, cancelMotors := client.Subscribe(eventbus.Subscription{Path: "/motor_states", EveryN: *everyN}, 64)
	defer cancelMotors()

	log.Info("telemetry bridge running",
		"service", cfg.Address(),
		"broker", *broker,
		"topic_prefix", mqttCfg.TopicPrefix,
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("telemetry bridge stopping",
				"published", publisher.Published(),
				"publish_errors", publisher.PublishErrors(),
				"bus", client.Stats(),
			)
			return

		case ev, ok := <-states:
			if !ok {
				return
			}
			var msg canbus.RawMessage
			if err := ev.Decode(&msg); err != nil {
				continue
			}
			state, err := canbus.AmigaTpdo1FromRaw(msg)
			if err != nil {
				log.Debug("skipping non-tpdo1 state message", "error", err)
				continue
			}
			publisher.Publish("tpdo1", state)

		case ev, ok := <-pendants:
			if !ok {
				return
			}
			var msg canbus.RawMessage
			if err := ev.Decode(&msg); err != nil {
				continue
			}
			state, err := canbus.PendantStateFromRaw(msg)
			if err != nil {
				log.Debug("skipping non-pendant message", "error", err)
				continue
			}
			publisher.Publish("pendant", state)

		case ev, ok := <-motors:
			if !ok {
				return
			}
			var motorStates []canbus.MotorState
			if err := ev.Decode(&motorStates); err != nil {
				continue
			}
			publisher.Publish("motors", motorStates)
		}
	}
}
