// GPS stream - print PVT or RELPOSNED messages from the GPS service.
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
	"github.com/farm-ng/amiga-go/pkg/eventbus"
	"github.com/farm-ng/amiga-go/pkg/gps"
	"github.com/farm-ng/amiga-go/pkg/service"
)

// The receiver stops publishing entirely during an antenna outage;
// surface that instead of sitting silent.
const outageAfter = 2 * time.Second

func main() {
	configPath := flag.String("service-config", "", "gps service config JSON")
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	port := flag.Int("port", 0, "gps service port")
	msgType := flag.String("msg-type", "pvt", "message stream: pvt or relposned")
	flag.Parse()
	log.Init("info")

	if *msgType != "pvt" && *msgType != "relposned" {
		fmt.Fprintf(os.Stderr, "Error: unknown --msg-type %q (want pvt or relposned)\n", *msgType)
		os.Exit(1)
	}

	cfg, err := config.ServiceConfig("gps", *configPath, *host, *port)
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

	if state, err := service.NewControlClient(client).GetState(ctx); err == nil {
		fmt.Printf("GPS service state: %s\n", state)
	}

	events, cancel := client.Subscribe(eventbus.Subscription{Path: "/" + *msgType}, 32)
	defer cancel()

	fmt.Printf("Streaming /%s (Ctrl+C to stop)...\n", *msgType)
	outage := time.NewTimer(outageAfter)
	defer outage.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-outage.C:
			fmt.Println("No GPS messages received; check the antenna connection.")
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !outage.Stop() {
				select {
				case <-outage.C:
				default:
				}
			}
			outage.Reset(outageAfter)

			switch *msgType {
			case "pvt":
				var msg gps.Pvt
				if err := ev.Decode(&msg); err != nil {
					log.Warn("bad pvt event", "error", err)
					continue
				}
				fmt.Printf("%s\n\n", msg)
			case "relposned":
				var msg gps.RelPosNed
				if err := ev.Decode(&msg); err != nil {
					log.Warn("bad relposned event", "error", err)
					continue
				}
				fmt.Printf("%s\n\n", msg)
			}
		}
	}
}
