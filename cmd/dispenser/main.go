// Dispenser - set bug dispenser rates through the canbus service and
// print the dispenser state streamed back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farm-ng/amiga-go/internal/config"
	"github.com/farm-ng/amiga-go/internal/log"
	"github.com/farm-ng/amiga-go/pkg/canbus"
	"github.com/farm-ng/amiga-go/pkg/eventbus"
)

func main() {
	configPath := flag.String("service-config", "", "canbus service config JSON")
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	port := flag.Int("port", 0, "canbus service port")
	rate0 := flag.Float64("rate0", 0.0, "channel 0 rate, mL/m (0..25.5)")
	rate1 := flag.Float64("rate1", 0.0, "channel 1 rate, mL/m (0..25.5)")
	rate2 := flag.Float64("rate2", 0.0, "channel 2 rate, mL/m (0..25.5)")
	flag.Parse()
	log.Init("info")

	cmd := canbus.BugDispenserCommand{Rates: [3]float64{*rate0, *rate1, *rate2}}
	if _, err := cmd.Encode(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

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

	states, cancel := client.Subscribe(eventbus.Subscription{Path: "/bug_dispenser"}, 32)
	defer cancel()

	go func() {
		for ev := range states {
			var msg canbus.RawMessage
			if err := ev.Decode(&msg); err != nil {
				continue
			}
			state, err := canbus.BugDispenserStateFromRaw(msg)
			if err != nil {
				log.Warn("failed to parse dispenser state", "error", err)
				continue
			}
			fmt.Println(state)
		}
	}()

	fmt.Printf("Sending %s at 1 Hz (Ctrl+C to stop)...\n", cmd)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		cmd.StampNow()
		raw, err := cmd.ToRaw()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := client.Publish("/can_message", raw); err != nil {
			log.Warn("failed to publish dispenser command", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
