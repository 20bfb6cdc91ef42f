package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/farm-ng/amiga-go/pkg/eventbus"
)

func TestStateNames(t *testing.T) {
	tests := []struct {
		state State
		name  string
	}{
		{StateUnknown, "UNKNOWN"},
		{StateStopped, "STOPPED"},
		{StateRunning, "RUNNING"},
		{StateIdle, "IDLE"},
		{StateUnavailable, "UNAVAILABLE"},
		{StateError, "ERROR"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.name {
			t.Errorf("state %d: expected %s, got %s", tt.state, tt.name, got)
		}
		if got := StateFromName(tt.name); got != tt.state {
			t.Errorf("name %s: expected state %d, got %d", tt.name, tt.state, got)
		}
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(StateRunning)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"RUNNING"` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if state != StateRunning {
		t.Errorf("expected RUNNING, got %s", state)
	}
}

func TestStateFromUnknownName(t *testing.T) {
	if got := StateFromName("BOGUS"); got != StateUnknown {
		t.Errorf("expected UNKNOWN, got %s", got)
	}
}

func TestGetStateUnreachableService(t *testing.T) {
	bus, err := eventbus.New(eventbus.DefaultServiceConfig("canbus"), nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	// Never connected: the service reports UNAVAILABLE, not an error.
	state, err := NewControlClient(bus).GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateUnavailable {
		t.Errorf("expected UNAVAILABLE, got %s", state)
	}
}

func TestControlSkipsUnreachableService(t *testing.T) {
	bus, err := eventbus.New(eventbus.DefaultServiceConfig("canbus"), nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	client := NewControlClient(bus)
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		t.Errorf("start should no-op on an unreachable service: %v", err)
	}
	if err := client.Stop(ctx); err != nil {
		t.Errorf("stop should no-op on an unreachable service: %v", err)
	}
	if err := client.Pause(ctx); err != nil {
		t.Errorf("pause should no-op on an unreachable service: %v", err)
	}
}
