// Track follower - load a recorded track, hand it to the track_follower
// service, start following, and stream the follower state.
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
	"github.com/farm-ng/amiga-go/pkg/eventbus"
	"github.com/farm-ng/amiga-go/pkg/track"
)

func main() {
	configPath := flag.String("service-config", "", "track_follower service config JSON")
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	port := flag.Int("port", 0, "track_follower service port")
	trackPath := flag.String("track", "", "track JSON file to follow (required)")
	flag.Parse()
	log.Init("info")

	if *trackPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --track is required")
		os.Exit(1)
	}

	loaded, err := track.Load(*trackPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded track %q: %d waypoints, %.1f m\n",
		loaded.Name, len(loaded.Waypoints), loaded.Length())

	cfg, err := config.ServiceConfig("track_follower", *configPath, *host, *port)
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

	states, cancel := client.Subscribe(eventbus.Subscription{Path: "/state"}, 32)
	defer cancel()

	fmt.Println("Setting track...")
	if _, err := client.RequestReply(ctx, "/set_track", track.FollowRequest{Track: loaded}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Starting to follow the track...")
	if _, err := client.RequestReply(ctx, "/start", nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-states:
			if !ok {
				return
			}
			var state track.FollowerState
			if err := ev.Decode(&state); err != nil {
				log.Warn("bad follower state event", "error", err)
				continue
			}
			fmt.Println(state)
			if state.Status == track.FollowerComplete {
				fmt.Println("Track complete.")
				return
			}
		}
	}
}
