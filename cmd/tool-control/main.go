// Tool control - command an h-bridge channel and/or a PTO device
// through the canbus service, printing the tool statuses streamed back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/farm-ng/amiga-go/internal/config"
	"github.com/farm-ng/amiga-go/internal/log"
	"github.com/farm-ng/amiga-go/pkg/canbus"
	"github.com/farm-ng/amiga-go/pkg/eventbus"
)

func hbridgeCommand(mode string) (canbus.HBridgeCommandType, error) {
	switch strings.ToLower(mode) {
	case "passive":
		return canbus.HBridgePassive, nil
	case "forward":
		return canbus.HBridgeForward, nil
	case "stopped":
		return canbus.HBridgeStopped, nil
	case "reverse":
		return canbus.HBridgeReverse, nil
	}
	return "", fmt.Errorf("unknown h-bridge mode %q", mode)
}

func ptoCommand(mode string) (canbus.PtoCommandType, error) {
	switch strings.ToLower(mode) {
	case "passive":
		return canbus.PtoPassive, nil
	case "forward":
		return canbus.PtoForward, nil
	case "stopped":
		return canbus.PtoStopped, nil
	case "reverse":
		return canbus.PtoReverse, nil
	}
	return "", fmt.Errorf("unknown pto mode %q", mode)
}

func main() {
	configPath := flag.String("service-config", "", "canbus service config JSON")
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	port := flag.Int("port", 0, "canbus service port")
	hbridgeID := flag.Int("hbridge-id", -1, "h-bridge channel to command (0..3)")
	hbridgeMode := flag.String("hbridge", "passive", "h-bridge mode: passive, forward, stopped, reverse")
	ptoID := flag.Int("pto-id", -1, "pto device to command (0..3)")
	ptoMode := flag.String("pto", "passive", "pto mode: passive, forward, stopped, reverse")
	ptoRPM := flag.Float64("pto-rpm", 20.0, "pto output shaft rpm")
	flag.Parse()
	log.Init("info")

	var cmds canbus.ActuatorCommands
	if *hbridgeID >= 0 {
		mode, err := hbridgeCommand(*hbridgeMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cmds.HBridges = append(cmds.HBridges, canbus.HBridgeCommand{ID: uint8(*hbridgeID), Command: mode})
	}
	if *ptoID >= 0 {
		mode, err := ptoCommand(*ptoMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cmds.Ptos = append(cmds.Ptos, canbus.PtoCommand{ID: uint8(*ptoID), Command: mode, RPM: *ptoRPM})
	}
	if len(cmds.HBridges) == 0 && len(cmds.Ptos) == 0 {
		fmt.Fprintln(os.Stderr, "Error: nothing to command; set --hbridge-id and/or --pto-id")
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

	statuses, cancel := client.Subscribe(eventbus.Subscription{Path: "/tool_statuses"}, 32)
	defer cancel()

	go func() {
		for ev := range statuses {
			var msg canbus.ToolStatuses
			if err := ev.Decode(&msg); err != nil {
				continue
			}
			for _, s := range msg.HBridges {
				fmt.Printf("h-bridge %d: %s\n", s.ID, s.Status)
			}
			for _, s := range msg.Ptos {
				fmt.Printf("pto %d: %s rpm %.1f\n", s.ID, s.Status, s.RPM)
			}
		}
	}()

	ptoBits, hbridgeBits := cmds.Bits()
	fmt.Printf("Commanding tools (pto bits 0x%x, h-bridge bits 0x%x), Ctrl+C to stop...\n",
		ptoBits, hbridgeBits)

	// Tool commands time out on the dashboard; repeat them while active.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		if _, err := client.RequestReply(ctx, "/control_tools", cmds); err != nil {
			log.Warn("tool command failed", "error", err)
		}
		select {
		case <-ctx.Done():
			// Leave every commanded channel passive.
			release := canbus.ActuatorCommands{}
			for _, h := range cmds.HBridges {
				release.HBridges = append(release.HBridges,
					canbus.HBridgeCommand{ID: h.ID, Command: canbus.HBridgePassive})
			}
			for _, p := range cmds.Ptos {
				release.Ptos = append(release.Ptos,
					canbus.PtoCommand{ID: p.ID, Command: canbus.PtoPassive})
			}
			client.RequestReply(context.Background(), "/control_tools", release)
			return
		case <-ticker.C:
		}
	}
}
