// Package canbus implements the binary codec for the CAN frames exchanged
// with the Amiga vehicle control unit (VCU), dashboard and pendant.
//
// Every message type packs into a fixed-width little-endian payload of at
// most 8 bytes, identified on the bus by a COB-ID (CANopen convention:
// function code base plus node id). The canbus service publishes and
// accepts these payloads wrapped in RawMessage envelopes; this package
// converts between the wire bytes and typed Go values.
package canbus

import (
	"errors"
	"fmt"
	"time"
)

// CAN node ids of the farm-ng devices on the vehicle bus.
const (
	DashboardNodeID = 0x0E
	PendantNodeID   = 0x0F
	BrainNodeID     = 0x1F
)

// COB-ID bases for the messages this package understands.
const (
	cobHeartbeat         = 0x700
	cobRpdo1             = 0x200
	cobTpdo1             = 0x180
	cobBugDispenserRpdo3 = 0x400
	cobBugDispenserTpdo3 = 0x380
	cobReqRepRequest     = 0x600
	cobReqRepReply       = 0x580
)

var (
	// ErrBadLength indicates a payload whose length does not match the
	// packet format (and is not an accepted legacy length).
	ErrBadLength = errors.New("canbus: bad payload length")

	// ErrBadCOBID indicates a raw message whose COB-ID does not belong to
	// the expected sender.
	ErrBadCOBID = errors.New("canbus: unexpected COB-ID")

	// ErrOutOfRange indicates a field value outside its encodable range.
	ErrOutOfRange = errors.New("canbus: value out of range")
)

// NodeState is the CANopen NMT state reported by farm-ng devices in
// their heartbeat messages.
type NodeState uint8

const (
	NodeStateBootup         NodeState = 0x00
	NodeStateStopped        NodeState = 0x04
	NodeStateOperational    NodeState = 0x05
	NodeStatePreOperational NodeState = 0x7F
)

// String returns the state name.
func (s NodeState) String() string {
	switch s {
	case NodeStateBootup:
		return "BOOTUP"
	case NodeStateStopped:
		return "STOPPED"
	case NodeStateOperational:
		return "OPERATIONAL"
	case NodeStatePreOperational:
		return "PRE_OPERATIONAL"
	}
	return fmt.Sprintf("NodeState(0x%02X)", uint8(s))
}

// ControlState is the state of the Amiga vehicle control unit.
type ControlState uint8

const (
	StateBoot ControlState = iota
	StateManualReady
	StateManualActive
	StateCruiseControlActive
	StateAutoReady
	StateAutoActive
	StateEStopped
)

var controlStateNames = map[ControlState]string{
	StateBoot:                "STATE_BOOT",
	StateManualReady:         "STATE_MANUAL_READY",
	StateManualActive:        "STATE_MANUAL_ACTIVE",
	StateCruiseControlActive: "STATE_CC_ACTIVE",
	StateAutoReady:           "STATE_AUTO_READY",
	StateAutoActive:          "STATE_AUTO_ACTIVE",
	StateEStopped:            "STATE_ESTOPPED",
}

// String returns the state name.
func (s ControlState) String() string {
	if name, ok := controlStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ControlState(%d)", uint8(s))
}

// RawMessage is a CAN frame as carried over the event bus: the COB-ID,
// the receive stamp in monotonic seconds, and the 0-8 byte payload.
type RawMessage struct {
	ID    uint32  `json:"id"`
	Stamp float64 `json:"stamp"`
	Data  []byte  `json:"data"`
}

// Validate returns an error if the message cannot be a classical CAN frame.
func (m RawMessage) Validate() error {
	if len(m.Data) > 8 {
		return fmt.Errorf("%w: %d bytes", ErrBadLength, len(m.Data))
	}
	return nil
}

// processStart anchors the monotonic clock shared by all packet stamps.
var processStart = time.Now()

// Now returns the current monotonic time in seconds. Packet stamps use
// this clock, matching the stamps produced by the canbus service.
func Now() float64 {
	return time.Since(processStart).Seconds()
}

// DefaultFreshThreshold is the staleness cutoff used by Stamped.Fresh,
// in seconds.
const DefaultFreshThreshold = 0.5

// Stamped carries the monotonic receive stamp embedded in every packet
// type. A zero stamp means the packet was never received from the bus.
type Stamped struct {
	Stamp float64 `json:"stamp"`
}

// StampNow sets the stamp to the current monotonic time.
func (s *Stamped) StampNow() {
	s.Stamp = Now()
}

// Age returns the seconds elapsed since the packet was stamped.
func (s Stamped) Age() float64 {
	return Now() - s.Stamp
}

// Fresh reports whether the packet is younger than DefaultFreshThreshold.
func (s Stamped) Fresh() bool {
	return s.FreshWithin(DefaultFreshThreshold)
}

// FreshWithin reports whether the packet is younger than thresh seconds.
func (s Stamped) FreshWithin(thresh float64) bool {
	return s.Age() < thresh
}
