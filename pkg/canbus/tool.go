package canbus

import "fmt"

// ActuatorCommand is the 2-bit command for one linear or rotary actuator.
type ActuatorCommand uint8

const (
	ActuatorPassive ActuatorCommand = 0x0
	ActuatorForward ActuatorCommand = 0x1
	ActuatorStopped ActuatorCommand = 0x2
	ActuatorReverse ActuatorCommand = 0x3
)

var actuatorCommandNames = map[ActuatorCommand]string{
	ActuatorPassive: "passive",
	ActuatorForward: "forward",
	ActuatorStopped: "stopped",
	ActuatorReverse: "reverse",
}

// String returns the command name.
func (c ActuatorCommand) String() string {
	if name, ok := actuatorCommandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ActuatorCommand(%d)", uint8(c))
}

// ActuatorBits packs the commands for up to four actuators into one
// byte, two bits per actuator.
func ActuatorBits(a0, a1, a2, a3 ActuatorCommand) uint8 {
	return uint8(a0) | uint8(a1)<<2 | uint8(a2)<<4 | uint8(a3)<<6
}

// ReadActuatorBits unpacks the commands for four actuators from one byte.
func ReadActuatorBits(bits uint8) [4]ActuatorCommand {
	return [4]ActuatorCommand{
		ActuatorCommand(bits & 0x3),
		ActuatorCommand(bits >> 2 & 0x3),
		ActuatorCommand(bits >> 4 & 0x3),
		ActuatorCommand(bits >> 6 & 0x3),
	}
}

// HBridgeCommandType is the requested mode of one h-bridge channel.
type HBridgeCommandType string

const (
	HBridgePassive HBridgeCommandType = "HBRIDGE_PASSIVE"
	HBridgeForward HBridgeCommandType = "HBRIDGE_FORWARD"
	HBridgeStopped HBridgeCommandType = "HBRIDGE_STOPPED"
	HBridgeReverse HBridgeCommandType = "HBRIDGE_REVERSE"
)

// PtoCommandType is the requested mode of one PTO device.
type PtoCommandType string

const (
	PtoPassive PtoCommandType = "PTO_PASSIVE"
	PtoForward PtoCommandType = "PTO_FORWARD"
	PtoStopped PtoCommandType = "PTO_STOPPED"
	PtoReverse PtoCommandType = "PTO_REVERSE"
)

// HBridgeCommand commands one h-bridge channel (0..3).
type HBridgeCommand struct {
	ID      uint8              `json:"id"`
	Command HBridgeCommandType `json:"command"`
}

// PtoCommand commands one PTO device (0..3) at the given output shaft
// RPM.
type PtoCommand struct {
	ID      uint8          `json:"id"`
	Command PtoCommandType `json:"command"`
	RPM     float64        `json:"rpm"`
}

// ActuatorCommands is the tool control request published to the canbus
// service. Channels omitted from the command stay passive.
type ActuatorCommands struct {
	HBridges []HBridgeCommand `json:"hbridges,omitempty"`
	Ptos     []PtoCommand     `json:"ptos,omitempty"`
}

func (t HBridgeCommandType) actuator() ActuatorCommand {
	switch t {
	case HBridgeForward:
		return ActuatorForward
	case HBridgeStopped:
		return ActuatorStopped
	case HBridgeReverse:
		return ActuatorReverse
	}
	return ActuatorPassive
}

func (t PtoCommandType) actuator() ActuatorCommand {
	switch t {
	case PtoForward:
		return ActuatorForward
	case PtoStopped:
		return ActuatorStopped
	case PtoReverse:
		return ActuatorReverse
	}
	return ActuatorPassive
}

// Bits converts the commands into the RPDO1 pto and h-bridge bit
// fields. Channel ids above 3 are ignored.
func (c ActuatorCommands) Bits() (ptoBits, hbridgeBits uint8) {
	var ptos, hbridges [4]ActuatorCommand
	for _, cmd := range c.Ptos {
		if cmd.ID < 4 {
			ptos[cmd.ID] = cmd.Command.actuator()
		}
	}
	for _, cmd := range c.HBridges {
		if cmd.ID < 4 {
			hbridges[cmd.ID] = cmd.Command.actuator()
		}
	}
	return ActuatorBits(ptos[0], ptos[1], ptos[2], ptos[3]),
		ActuatorBits(hbridges[0], hbridges[1], hbridges[2], hbridges[3])
}

// ToolStatus is the reported status of one tool channel.
type ToolStatus struct {
	ID     uint8   `json:"id"`
	Status string  `json:"status"`
	RPM    float64 `json:"rpm,omitempty"`
}

// ToolStatuses is the tool status report published by the canbus
// service.
type ToolStatuses struct {
	HBridges []ToolStatus `json:"hbridges,omitempty"`
	Ptos     []ToolStatus `json:"ptos,omitempty"`
}
