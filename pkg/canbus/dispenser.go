package canbus

import "fmt"

// Bug dispenser rates are carried as one byte each in 0.1 mL/m steps.
const (
	dispenserRateScale = 10.0
	dispenserRateMax   = 25.5
)

func encodeDispenserRate(rate float64) (byte, error) {
	if rate < 0.0 || rate > dispenserRateMax {
		return 0, fmt.Errorf("%w: rate %.2f not in [0, %.1f] mL/m", ErrOutOfRange, rate, dispenserRateMax)
	}
	return byte(rate * dispenserRateScale), nil
}

// BugDispenserCommand requests dispense rates in mL/m for the three
// dispenser channels (COB 0x400 + dashboard node id).
//
// Layout: <3B5x> — three rates scaled by 10, five pad bytes.
type BugDispenserCommand struct {
	Stamped

	Rates [3]float64
}

// Encode returns the command packed as CAN payload bytes. Rates outside
// [0, 25.5] mL/m are rejected.
func (c BugDispenserCommand) Encode() ([]byte, error) {
	buf := make([]byte, 8)
	for i, rate := range c.Rates {
		b, err := encodeDispenserRate(rate)
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// Decode populates the command from CAN payload bytes.
func (c *BugDispenserCommand) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: dispenser command needs 8 bytes, got %d", ErrBadLength, len(data))
	}
	for i := range c.Rates {
		c.Rates[i] = float64(data[i]) / dispenserRateScale
	}
	return nil
}

// ToRaw packs the command into a raw bus message addressed to the
// dashboard.
func (c BugDispenserCommand) ToRaw() (RawMessage, error) {
	data, err := c.Encode()
	if err != nil {
		return RawMessage{}, err
	}
	return RawMessage{ID: cobBugDispenserRpdo3 + DashboardNodeID, Stamp: c.Stamp, Data: data}, nil
}

func (c BugDispenserCommand) String() string {
	return fmt.Sprintf("BugDispenserCommand: Rates: %g, %g, %g", c.Rates[0], c.Rates[1], c.Rates[2])
}

// BugDispenserState reports the current rate and an 8-bit drop counter
// for each dispenser channel (COB 0x380 + dashboard node id).
//
// Layout: <6B2x> — (rate, counter) pairs for the three channels, two
// pad bytes.
type BugDispenserState struct {
	Stamped

	Rates    [3]float64
	Counters [3]uint8
}

// Encode returns the state packed as CAN payload bytes.
func (s BugDispenserState) Encode() ([]byte, error) {
	buf := make([]byte, 8)
	for i := range s.Rates {
		b, err := encodeDispenserRate(s.Rates[i])
		if err != nil {
			return nil, err
		}
		buf[2*i] = b
		buf[2*i+1] = s.Counters[i]
	}
	return buf, nil
}

// Decode populates the state from CAN payload bytes.
func (s *BugDispenserState) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: dispenser state needs 8 bytes, got %d", ErrBadLength, len(data))
	}
	for i := range s.Rates {
		s.Rates[i] = float64(data[2*i]) / dispenserRateScale
		s.Counters[i] = data[2*i+1]
	}
	return nil
}

// BugDispenserStateFromRaw parses a raw bus message into a
// BugDispenserState.
func BugDispenserStateFromRaw(msg RawMessage) (BugDispenserState, error) {
	var s BugDispenserState
	if err := s.Decode(msg.Data); err != nil {
		return s, err
	}
	s.Stamp = msg.Stamp
	return s, nil
}

func (s BugDispenserState) String() string {
	return fmt.Sprintf("BugDispenserState: Rates: %g, %g, %g | Counters: %d, %d, %d",
		s.Rates[0], s.Rates[1], s.Rates[2], s.Counters[0], s.Counters[1], s.Counters[2])
}
