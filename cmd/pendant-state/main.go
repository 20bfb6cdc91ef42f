// Pendant state - stream the joystick position and pressed buttons of
// the Amiga pendant from the canbus service.
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

	events, cancel := client.Subscribe(eventbus.Subscription{Path: "/pendant"}, 32)
	defer cancel()

	fmt.Println("Streaming pendant state (Ctrl+C to stop)...")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var msg canbus.RawMessage
			if err := ev.Decode(&msg); err != nil {
				log.Warn("bad pendant event", "error", err)
				continue
			}
			state, err := canbus.PendantStateFromRaw(msg)
			if err != nil {
				log.Warn("failed to parse pendant state", "error", err)
				continue
			}
			fmt.Println(state)
		}
	}
}
