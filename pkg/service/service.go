// Package service provides the generic lifecycle state and control
// client shared by all Amiga event services.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/farm-ng/amiga-go/pkg/eventbus"
)

// State is the lifecycle state reported by an event service.
type State int

const (
	// StateUnknown is an undefined state.
	StateUnknown State = iota
	// StateStopped means the service is stopped.
	StateStopped
	// StateRunning means the service is up and streaming.
	StateRunning
	// StateIdle means the service is up and not streaming.
	StateIdle
	// StateUnavailable means the service cannot be reached.
	StateUnavailable
	// StateError means the service is in an error state.
	StateError
)

var stateNames = map[State]string{
	StateUnknown:     "UNKNOWN",
	StateStopped:     "STOPPED",
	StateRunning:     "RUNNING",
	StateIdle:        "IDLE",
	StateUnavailable: "UNAVAILABLE",
	StateError:       "ERROR",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StateFromName returns the state with the given name.
func StateFromName(name string) State {
	for state, n := range stateNames {
		if n == name {
			return state
		}
	}
	return StateUnknown
}

// MarshalJSON encodes the state as its name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes the state from its name.
func (s *State) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("service: invalid state %s", data)
	}
	*s = StateFromName(string(data[1 : len(data)-1]))
	return nil
}

// stateReply is the payload of a /get_state reply.
type stateReply struct {
	State State `json:"state"`
}

// ControlClient drives the lifecycle of one event service over its
// request/reply channel.
type ControlClient struct {
	bus *eventbus.Client
}

// NewControlClient wraps an event service client.
func NewControlClient(bus *eventbus.Client) *ControlClient {
	return &ControlClient{bus: bus}
}

// GetState queries the service state. An unreachable service reports
// StateUnavailable rather than an error.
func (c *ControlClient) GetState(ctx context.Context) (State, error) {
	reply, err := c.bus.RequestReply(ctx, "/get_state", nil)
	if err != nil {
		if errors.Is(err, eventbus.ErrRequestTimeout) || errors.Is(err, eventbus.ErrNotConnected) {
			return StateUnavailable, nil
		}
		return StateUnknown, err
	}

	var payload stateReply
	if err := reply.Decode(&payload); err != nil {
		return StateUnknown, err
	}
	return payload.State, nil
}

// Start asks the service to start streaming. The state goes to RUNNING.
// A no-op when the service is unavailable.
func (c *ControlClient) Start(ctx context.Context) error {
	return c.control(ctx, "/start")
}

// Stop asks the service to stop. A no-op when the service is
// unavailable.
func (c *ControlClient) Stop(ctx context.Context) error {
	return c.control(ctx, "/stop")
}

// Pause asks the service to pause streaming. The state goes from
// RUNNING to IDLE. A no-op when the service is unavailable.
func (c *ControlClient) Pause(ctx context.Context) error {
	return c.control(ctx, "/pause")
}

func (c *ControlClient) control(ctx context.Context, path string) error {
	state, err := c.GetState(ctx)
	if err != nil {
		return err
	}
	if state == StateUnavailable {
		return nil
	}
	_, err = c.bus.RequestReply(ctx, path, nil)
	return err
}
