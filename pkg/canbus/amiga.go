package canbus

import (
	"encoding/binary"
	"fmt"
)

// Heartbeat is the status message sent regularly by every farm-ng device
// on the bus (COB 0x700 + node id).
//
// Layout: <BI3s> — node state, uptime ticks in ms, first three bytes of
// the device serial number.
type Heartbeat struct {
	Stamped

	NodeState    NodeState
	TicksMs      uint32
	SerialNumber [3]byte
}

// Encode returns the heartbeat packed as CAN payload bytes.
func (h Heartbeat) Encode() ([]byte, error) {
	buf := make([]byte, 8)
	buf[0] = byte(h.NodeState)
	binary.LittleEndian.PutUint32(buf[1:5], h.TicksMs)
	copy(buf[5:8], h.SerialNumber[:])
	return buf, nil
}

// Decode populates the heartbeat from CAN payload bytes.
func (h *Heartbeat) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: heartbeat needs 8 bytes, got %d", ErrBadLength, len(data))
	}
	h.NodeState = NodeState(data[0])
	h.TicksMs = binary.LittleEndian.Uint32(data[1:5])
	copy(h.SerialNumber[:], data[5:8])
	return nil
}

func (h Heartbeat) String() string {
	return fmt.Sprintf("node_state: %s ticks_ms: %d serial_number: %X",
		h.NodeState, h.TicksMs, h.SerialNumber)
}

// AmigaRpdo1 is the state, speed and angular rate command (request) sent
// to the Amiga VCU (COB 0x200 + dashboard node id).
//
// Layout: <BhhBBx> — requested state, command speed in mm/s, command
// angular rate in mrad/s, PTO bits, h-bridge bits, one pad byte.
// Dashboard firmware older than v0.1.9 sends the 5-byte <Bhh> layout
// without the tool bits; Decode still accepts it.
type AmigaRpdo1 struct {
	Stamped

	StateReq    ControlState
	CmdSpeed    float64 // m/s
	CmdAngRate  float64 // rad/s
	PtoBits     uint8
	HbridgeBits uint8
}

// Encode returns the command packed as CAN payload bytes.
func (p AmigaRpdo1) Encode() ([]byte, error) {
	buf := make([]byte, 8)
	buf[0] = byte(p.StateReq)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(int16(p.CmdSpeed*1000.0)))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(int16(p.CmdAngRate*1000.0)))
	buf[5] = p.PtoBits
	buf[6] = p.HbridgeBits
	return buf, nil
}

// Decode populates the command from CAN payload bytes. The legacy
// 5-byte layout (firmware < v0.1.9) is accepted and leaves the tool
// bits untouched.
func (p *AmigaRpdo1) Decode(data []byte) error {
	switch len(data) {
	case 5:
		p.StateReq = ControlState(data[0])
		p.CmdSpeed = float64(int16(binary.LittleEndian.Uint16(data[1:3]))) / 1000.0
		p.CmdAngRate = float64(int16(binary.LittleEndian.Uint16(data[3:5]))) / 1000.0
	case 8:
		p.StateReq = ControlState(data[0])
		p.CmdSpeed = float64(int16(binary.LittleEndian.Uint16(data[1:3]))) / 1000.0
		p.CmdAngRate = float64(int16(binary.LittleEndian.Uint16(data[3:5]))) / 1000.0
		p.PtoBits = data[5]
		p.HbridgeBits = data[6]
	default:
		return fmt.Errorf("%w: rpdo1 needs 5 or 8 bytes, got %d", ErrBadLength, len(data))
	}
	return nil
}

// ToRaw packs the command into a raw bus message addressed to the
// dashboard.
func (p AmigaRpdo1) ToRaw() (RawMessage, error) {
	data, err := p.Encode()
	if err != nil {
		return RawMessage{}, err
	}
	return RawMessage{ID: cobRpdo1 + DashboardNodeID, Stamp: p.Stamp, Data: data}, nil
}

func (p AmigaRpdo1) String() string {
	return fmt.Sprintf(
		"AMIGA RPDO1 Request state %s Command speed %.3f Command angular rate %.3f Command PTO bits 0x%x Command h-bridge bits 0x%x",
		p.StateReq, p.CmdSpeed, p.CmdAngRate, p.PtoBits, p.HbridgeBits)
}

// AmigaTpdo1 is the state, measured speed and angular rate reported by
// the Amiga VCU (COB 0x180 + dashboard node id).
//
// Layout: <BhhBBB> — state, measured speed in mm/s, measured angular
// rate in mrad/s, PTO bits, h-bridge bits, battery state of charge.
// Firmware older than v0.1.9 sends the 5-byte <Bhh> layout.
type AmigaTpdo1 struct {
	Stamped

	State       ControlState `json:"state"`
	MeasSpeed   float64      `json:"meas_speed"`    // m/s
	MeasAngRate float64      `json:"meas_ang_rate"` // rad/s
	PtoBits     uint8        `json:"pto_bits"`
	HbridgeBits uint8        `json:"hbridge_bits"`
	SOC         uint8        `json:"soc"` // battery state of charge, percent
}

// Encode returns the report packed as CAN payload bytes.
func (p AmigaTpdo1) Encode() ([]byte, error) {
	buf := make([]byte, 8)
	buf[0] = byte(p.State)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(int16(p.MeasSpeed*1000.0)))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(int16(p.MeasAngRate*1000.0)))
	buf[5] = p.PtoBits
	buf[6] = p.HbridgeBits
	buf[7] = p.SOC
	return buf, nil
}

// Decode populates the report from CAN payload bytes. The legacy 5-byte
// layout is accepted.
func (p *AmigaTpdo1) Decode(data []byte) error {
	switch len(data) {
	case 5:
		p.State = ControlState(data[0])
		p.MeasSpeed = float64(int16(binary.LittleEndian.Uint16(data[1:3]))) / 1000.0
		p.MeasAngRate = float64(int16(binary.LittleEndian.Uint16(data[3:5]))) / 1000.0
	case 8:
		p.State = ControlState(data[0])
		p.MeasSpeed = float64(int16(binary.LittleEndian.Uint16(data[1:3]))) / 1000.0
		p.MeasAngRate = float64(int16(binary.LittleEndian.Uint16(data[3:5]))) / 1000.0
		p.PtoBits = data[5]
		p.HbridgeBits = data[6]
		p.SOC = data[7]
	default:
		return fmt.Errorf("%w: tpdo1 needs 5 or 8 bytes, got %d", ErrBadLength, len(data))
	}
	return nil
}

// AmigaTpdo1FromRaw parses a raw bus message into an AmigaTpdo1,
// verifying that it was sent by the dashboard.
func AmigaTpdo1FromRaw(msg RawMessage) (AmigaTpdo1, error) {
	var p AmigaTpdo1
	if msg.ID != cobTpdo1+DashboardNodeID {
		return p, fmt.Errorf("%w: expected tpdo1 from dashboard, got id 0x%X", ErrBadCOBID, msg.ID)
	}
	if err := p.Decode(msg.Data); err != nil {
		return p, err
	}
	p.Stamp = msg.Stamp
	return p, nil
}

func (p AmigaTpdo1) String() string {
	return fmt.Sprintf(
		"AMIGA TPDO1 Amiga state %s Measured speed %.3f Measured angular rate %.3f @ time %.3f PTO bits 0x%x h-bridge bits 0x%x charge level: %d%%",
		p.State, p.MeasSpeed, p.MeasAngRate, p.Stamp, p.PtoBits, p.HbridgeBits, p.SOC)
}
