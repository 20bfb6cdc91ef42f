// Square track - build a square track anchored at the robot's current
// filter pose and drive it with the track_follower service.
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

// currentPose asks the filter service where the robot is.
func currentPose(ctx context.Context, host string, port int) (track.Pose, error) {
	cfg, err := config.ServiceConfig("filter", "", host, port)
	if err != nil {
		return track.Pose{}, err
	}

	client, err := eventbus.New(cfg, log.L())
	if err != nil {
		return track.Pose{}, err
	}
	if err := client.Connect(ctx); err != nil {
		return track.Pose{}, err
	}
	defer client.Close()

	reply, err := client.RequestReply(ctx, "/get_state", nil)
	if err != nil {
		return track.Pose{}, fmt.Errorf("failed to query filter state: %w", err)
	}

	var state track.FilterState
	if err := reply.Decode(&state); err != nil {
		return track.Pose{}, err
	}
	if !state.HasConverged {
		return track.Pose{}, fmt.Errorf("filter has not converged; drive manually first")
	}
	return state.Pose, nil
}

func main() {
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	filterPort := flag.Int("filter-port", 0, "filter service port")
	followerPort := flag.Int("follower-port", 0, "track_follower service port")
	side := flag.Float64("side-length", 2.0, "square side length, m")
	clockwise := flag.Bool("clockwise", false, "drive the square clockwise")
	save := flag.String("save", "", "also save the built track to this JSON file")
	flag.Parse()
	log.Init("info")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pose, err := currentPose(ctx, *host, *filterPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Starting pose: %s\n", pose)

	square := track.BuildSquare(pose, *side, *clockwise)
	fmt.Printf("Built square track: %d waypoints, %.1f m\n",
		len(square.Waypoints), square.Length())

	if *save != "" {
		if err := track.Save(square, *save); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved track to %s\n", *save)
	}

	cfg, err := config.ServiceConfig("track_follower", "", *host, *followerPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
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

	if _, err := client.RequestReply(ctx, "/set_track", track.FollowRequest{Track: square}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := client.RequestReply(ctx, "/start", nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Following the square (Ctrl+C to stop)...")
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
				continue
			}
			fmt.Println(state)
			if state.Status == track.FollowerComplete {
				fmt.Println("Square complete.")
				return
			}
		}
	}
}
