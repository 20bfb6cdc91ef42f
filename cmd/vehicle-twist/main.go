// Vehicle twist - drive the Amiga by publishing Twist2d commands to the
// canbus service at 10 Hz, printing the measured state echoed back.
//
// The robot must be in AUTO READY or AUTO ACTIVE for the commands to
// take effect.
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
	speed := flag.Float64("speed", 0.2, "linear velocity command, m/s")
	angRate := flag.Float64("angular-rate", 0.0, "angular velocity command, rad/s")
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

	events, cancel := client.Subscribe(eventbus.Subscription{Path: "/state"}, 32)
	defer cancel()

	// Print measured state in the background while commanding.
	go func() {
		for ev := range events {
			var msg canbus.RawMessage
			if err := ev.Decode(&msg); err != nil {
				continue
			}
			state, err := canbus.AmigaTpdo1FromRaw(msg)
			if err != nil {
				continue
			}
			fmt.Println(state)
		}
	}()

	twist := canbus.Twist2d{
		LinearVelocityX: *speed,
		AngularVelocity: *angRate,
	}
	fmt.Printf("Sending %s at 10 Hz (Ctrl+C to stop)...\n", twist)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Command zero before leaving so the robot does not coast.
			client.Publish("/twist", canbus.Twist2d{})
			return
		case <-ticker.C:
			if err := client.Publish("/twist", twist); err != nil {
				log.Warn("failed to publish twist", "error", err)
			}
		}
	}
}
