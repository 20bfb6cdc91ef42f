// Motor states - print the per-motor controller states amalgamated by
// the canbus service.
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
)

func main() {
	configPath := flag.String("service-config", "", "canbus service config JSON")
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	port := flag.Int("port", 0, "canbus service port")
	everyN := flag.Int("every-n", 1, "print every n-th message")
	flag.Parse()
	log.Init("info")

	cfg, err := config.ServiceConfig("canbus", *configPath, *host, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	events, cancel := client.Subscribe(eventbus.Subscription{Path: "/motor_states", EveryN: *everyN}, 32)
	defer cancel()

	fmt.Println("Streaming motor states (Ctrl+C to stop)...")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var states []canbus.MotorState
			if err := ev.Decode(&states); err != nil {
				log.Warn("bad motor states event", "error", err)
				continue
			}
			for _, state := range states {
				fmt.Println(state)
			}
			fmt.Println()
		}
	}
}
