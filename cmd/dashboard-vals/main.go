// Dashboard vals - read or write dashboard settings (max speed, turn
// rates, battery thresholds, ...) over the supervisor request/reply
// channel of the canbus service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/farm-ng/amiga-go/internal/config"
	"github.com/farm-ng/amiga-go/internal/log"
	"github.com/farm-ng/amiga-go/pkg/canbus"
	"github.com/farm-ng/amiga-go/pkg/eventbus"
)

var valNames = map[string]canbus.ValID{
	"v_max":            canbus.ValVMax,
	"flip_joystick":    canbus.ValFlipJoystick,
	"max_turn_rate":    canbus.ValMaxTurnRate,
	"min_turn_rate":    canbus.ValMinTurnRate,
	"max_ang_acc":      canbus.ValMaxAngAcc,
	"m10_on":           canbus.ValM10On,
	"m11_on":           canbus.ValM11On,
	"m12_on":           canbus.ValM12On,
	"m13_on":           canbus.ValM13On,
	"batt_lo":          canbus.ValBattLo,
	"batt_hi":          canbus.ValBattHi,
	"turtle_v":         canbus.ValTurtleV,
	"turtle_w":         canbus.ValTurtleW,
	"wheel_track":      canbus.ValWheelTrack,
	"wheel_gear_ratio": canbus.ValWheelGearRatio,
	"wheel_radius":     canbus.ValWheelRadius,
	"pto_cur_dev":      canbus.ValPtoCurDev,
	"pto_cur_rpm":      canbus.ValPtoCurRPM,
	"pto_min_rpm":      canbus.ValPtoMinRPM,
	"pto_max_rpm":      canbus.ValPtoMaxRPM,
	"pto_def_rpm":      canbus.ValPtoDefRPM,
	"pto_gear_ratio":   canbus.ValPtoGearRatio,
	"steering_gamma":   canbus.ValSteeringGamma,
}

// exchange sends one supervisor request and returns the decoded reply.
func exchange(ctx context.Context, client *eventbus.Client, req canbus.ReqRep) (canbus.ReqRep, error) {
	req.StampNow()
	raw, err := req.ToRawRequest()
	if err != nil {
		return canbus.ReqRep{}, err
	}

	reply, err := client.RequestReply(ctx, "/supervisor_request", raw)
	if err != nil {
		return canbus.ReqRep{}, err
	}

	var rawReply canbus.RawMessage
	if err := reply.Decode(&rawReply); err != nil {
		return canbus.ReqRep{}, err
	}
	return canbus.ReqRepFromRawReply(rawReply)
}

func readVal(ctx context.Context, client *eventbus.Client, name string, id canbus.ValID) error {
	rep, err := exchange(ctx, client, canbus.ReqRep{Op: canbus.OpRead, ValID: id})
	if err != nil {
		return err
	}
	if !rep.Success {
		return fmt.Errorf("dashboard rejected read of %s", name)
	}
	value, err := canbus.UnpackValue(id, rep.Payload)
	if err != nil {
		return err
	}
	fmt.Printf("%-18s %g\n", name, value)
	return nil
}

func main() {
	configPath := flag.String("service-config", "", "canbus service config JSON")
	host := flag.String("host", "", "brain address (overrides AMIGA_HOST)")
	port := flag.Int("port", 0, "canbus service port")
	valName := flag.String("val", "", "value to read or write (empty: read all)")
	write := flag.Bool("write", false, "write --value to --val instead of reading")
	value := flag.Float64("value", 0.0, "value to write")
	store := flag.Bool("store", false, "persist the written value on the dashboard")
	flag.Parse()
	log.Init("info")

	if *write && *valName == "" {
		fmt.Fprintln(os.Stderr, "Error: --write requires --val")
		os.Exit(1)
	}
	if *valName != "" {
		if _, ok := valNames[*valName]; !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown value %q\n", *valName)
			os.Exit(1)
		}
	}

	cfg, err := config.ServiceConfig("canbus", *configPath, *host, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client, err := eventbus.New(cfg, log.L())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := client.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if *write {
		id := valNames[*valName]
		payload, err := canbus.PackValue(id, *value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		rep, err := exchange(ctx, client, canbus.ReqRep{Op: canbus.OpWrite, ValID: id, Payload: payload})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !rep.Success {
			fmt.Fprintf(os.Stderr, "Error: dashboard rejected write of %s\n", *valName)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s = %g\n", *valName, *value)

		if *store {
			if _, err := exchange(ctx, client, canbus.ReqRep{Op: canbus.OpStore, ValID: id}); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Stored to persistent memory.")
		}
		return
	}

	if *valName != "" {
		if err := readVal(ctx, client, *valName, valNames[*valName]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	names := make([]string, 0, len(valNames))
	for name := range valNames {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := readVal(ctx, client, name, valNames[name]); err != nil {
			log.Warn("read failed", "val", name, "error", err)
		}
	}
}
