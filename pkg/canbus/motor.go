package canbus

import "fmt"

// MotorControllerStatus is the reported status of one motor controller.
type MotorControllerStatus uint8

const (
	MotorPreOperational MotorControllerStatus = iota // not ready to run
	MotorIdle                                        // waiting to start
	MotorPostOperational                             // already started
	MotorRun                                         // running
	MotorFault
)

var motorStatusNames = map[MotorControllerStatus]string{
	MotorPreOperational:  "PRE_OPERATIONAL",
	MotorIdle:            "IDLE",
	MotorPostOperational: "POST_OPERATIONAL",
	MotorRun:             "RUN",
	MotorFault:           "FAULT",
}

// String returns the status name.
func (s MotorControllerStatus) String() string {
	if name, ok := motorStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MotorControllerStatus(%d)", uint8(s))
}

// MotorState is the amalgamated state of one motor controller, collected
// by the canbus service from multiple CAN packets and published on the
// bus as a single message. There is no one-frame codec for it.
type MotorState struct {
	ID          uint8                 `json:"id"`
	Status      MotorControllerStatus `json:"status"`
	RPM         int32                 `json:"rpm"`
	Voltage     float64               `json:"voltage"`
	Current     float64               `json:"current"`
	Temperature int32                 `json:"temperature"`
	Stamp       float64               `json:"stamp"`
}

func (m MotorState) String() string {
	return fmt.Sprintf(
		"Motor state - id %01X status %s rpm %4d voltage %.3f current %.3f temperature %d @ time %.3f",
		m.ID, m.Status, m.RPM, m.Voltage, m.Current, m.Temperature, m.Stamp)
}
