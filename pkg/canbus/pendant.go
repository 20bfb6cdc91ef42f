package canbus

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// PendantButton is one button in the pendant's button bit field.
type PendantButton uint32

const (
	ButtonPause  PendantButton = 0x01 // square
	ButtonBrake  PendantButton = 0x02 // circle
	ButtonPTO    PendantButton = 0x04 // triangle
	ButtonCruise PendantButton = 0x08 // cross
	ButtonLeft   PendantButton = 0x10 // d-pad left
	ButtonUp     PendantButton = 0x20 // d-pad up
	ButtonRight  PendantButton = 0x40 // d-pad right
	ButtonDown   PendantButton = 0x80 // d-pad down
)

// PendantButtons lists every button, in bit order.
var PendantButtons = []PendantButton{
	ButtonPause, ButtonBrake, ButtonPTO, ButtonCruise,
	ButtonLeft, ButtonUp, ButtonRight, ButtonDown,
}

var pendantButtonNames = map[PendantButton]string{
	ButtonPause:  "PAUSE",
	ButtonBrake:  "BRAKE",
	ButtonPTO:    "PTO",
	ButtonCruise: "CRUISE",
	ButtonLeft:   "LEFT",
	ButtonUp:     "UP",
	ButtonRight:  "RIGHT",
	ButtonDown:   "DOWN",
}

// String returns the button name.
func (b PendantButton) String() string {
	if name, ok := pendantButtonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("PendantButton(0x%X)", uint32(b))
}

// pendantAxisScale maps the [-1.0, 1.0] joystick axes onto int16.
const pendantAxisScale = 32767

// PendantState is the joystick position and pressed buttons reported by
// the pendant (COB 0x180 + pendant node id).
//
// Layout: <hhI> — x and y axes scaled by 32767, button bit field.
type PendantState struct {
	Stamped

	X       float64 `json:"x"` // [-1.0, 1.0] => [left, right]
	Y       float64 `json:"y"` // [-1.0, 1.0] => [reverse, forward]
	Buttons uint32  `json:"buttons"`
}

// Encode returns the state packed as CAN payload bytes.
func (p PendantState) Encode() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(int16(p.X*pendantAxisScale)))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(int16(p.Y*pendantAxisScale)))
	binary.LittleEndian.PutUint32(buf[4:8], p.Buttons)
	return buf, nil
}

// Decode populates the state from CAN payload bytes.
func (p *PendantState) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: pendant state needs 8 bytes, got %d", ErrBadLength, len(data))
	}
	p.X = float64(int16(binary.LittleEndian.Uint16(data[0:2]))) / pendantAxisScale
	p.Y = float64(int16(binary.LittleEndian.Uint16(data[2:4]))) / pendantAxisScale
	p.Buttons = binary.LittleEndian.Uint32(data[4:8])
	return nil
}

// PendantStateFromRaw parses a raw bus message into a PendantState,
// verifying that it was sent by the pendant.
func PendantStateFromRaw(msg RawMessage) (PendantState, error) {
	var p PendantState
	if msg.ID != cobTpdo1+PendantNodeID {
		return p, fmt.Errorf("%w: expected pendant state, got id 0x%X", ErrBadCOBID, msg.ID)
	}
	if err := p.Decode(msg.Data); err != nil {
		return p, err
	}
	p.Stamp = msg.Stamp
	return p, nil
}

// Pressed reports whether the given button is pressed.
func (p PendantState) Pressed(button PendantButton) bool {
	return p.Buttons&uint32(button) != 0
}

// PressedButtons returns the names of all pressed buttons.
func (p PendantState) PressedButtons() []string {
	var pressed []string
	for _, b := range PendantButtons {
		if p.Pressed(b) {
			pressed = append(pressed, b.String())
		}
	}
	return pressed
}

func (p PendantState) String() string {
	return fmt.Sprintf("x %.3f y %.3f buttons %s", p.X, p.Y,
		strings.Join(p.PressedButtons(), "|"))
}
