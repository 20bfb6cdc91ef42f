package canbus

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ReqRepOp is the operation carried by a supervisor request or reply.
type ReqRepOp uint8

const (
	OpNop ReqRepOp = iota
	OpRead
	OpWrite
	OpStore
)

var reqRepOpNames = map[ReqRepOp]string{
	OpNop:   "NOP",
	OpRead:  "READ",
	OpWrite: "WRITE",
	OpStore: "STORE",
}

// String returns the operation name.
func (o ReqRepOp) String() string {
	if name, ok := reqRepOpNames[o]; ok {
		return name
	}
	return fmt.Sprintf("ReqRepOp(%d)", uint8(o))
}

// ValID identifies a dashboard value that can be queried or set through
// the supervisor request/reply channel.
type ValID uint16

const (
	ValNop ValID = 0

	ValVMax         ValID = 10 // max linear velocity, non-persistent
	ValFlipJoystick ValID = 11

	ValMaxTurnRate ValID = 20
	ValMinTurnRate ValID = 21
	ValMaxAngAcc   ValID = 23

	ValM10On ValID = 30
	ValM11On ValID = 31
	ValM12On ValID = 32
	ValM13On ValID = 33

	ValBattLo  ValID = 40
	ValBattHi  ValID = 41
	ValTurtleV ValID = 45
	ValTurtleW ValID = 46

	ValWheelTrack     ValID = 50
	ValWheelGearRatio ValID = 52 // non-persistent
	ValWheelRadius    ValID = 53 // non-persistent

	ValPtoCurDev    ValID = 80 // non-persistent
	ValPtoCurRPM    ValID = 81 // non-persistent
	ValPtoMinRPM    ValID = 82
	ValPtoMaxRPM    ValID = 83
	ValPtoDefRPM    ValID = 84
	ValPtoGearRatio ValID = 85

	ValSteeringGamma ValID = 90
)

// ValUnit is the unit of measurement of a dashboard value.
type ValUnit uint8

const (
	UnitNop   ValUnit = 0
	UnitNone  ValUnit = 1
	UnitM     ValUnit = 4
	UnitMps   ValUnit = 10
	UnitRadps ValUnit = 15
	UnitRPM   ValUnit = 16
	UnitMps2  ValUnit = 20
	UnitRads2 ValUnit = 21
	UnitV     ValUnit = 25
)

// ValFormat is the 4-byte payload encoding of a dashboard value.
type ValFormat uint8

const (
	FmtFloat  ValFormat = iota // float32
	FmtShort                   // int16 + 2 pad bytes
	FmtUshort                  // uint16 + 2 pad bytes
	FmtBool                    // uint8 + 3 pad bytes
)

type valProps struct {
	format ValFormat
	unit   ValUnit
}

// valPropsTable maps each settable value to its payload format and unit.
var valPropsTable = map[ValID]valProps{
	ValBattHi:         {FmtFloat, UnitV},
	ValBattLo:         {FmtFloat, UnitV},
	ValFlipJoystick:   {FmtBool, UnitNone},
	ValM10On:          {FmtBool, UnitNone},
	ValM11On:          {FmtBool, UnitNone},
	ValM12On:          {FmtBool, UnitNone},
	ValM13On:          {FmtBool, UnitNone},
	ValMaxAngAcc:      {FmtFloat, UnitRads2},
	ValMaxTurnRate:    {FmtFloat, UnitRadps},
	ValMinTurnRate:    {FmtFloat, UnitRadps},
	ValPtoCurDev:      {FmtUshort, UnitNone},
	ValPtoCurRPM:      {FmtFloat, UnitRPM},
	ValPtoDefRPM:      {FmtFloat, UnitRPM},
	ValPtoGearRatio:   {FmtFloat, UnitNone},
	ValPtoMaxRPM:      {FmtFloat, UnitRPM},
	ValPtoMinRPM:      {FmtFloat, UnitRPM},
	ValSteeringGamma:  {FmtFloat, UnitNone},
	ValTurtleV:        {FmtFloat, UnitMps},
	ValTurtleW:        {FmtFloat, UnitRadps},
	ValVMax:           {FmtFloat, UnitMps},
	ValWheelGearRatio: {FmtFloat, UnitNone},
	ValWheelRadius:    {FmtFloat, UnitM},
	ValWheelTrack:     {FmtFloat, UnitM},
}

// Props returns the payload format and unit of the value.
func (id ValID) Props() (ValFormat, ValUnit, error) {
	props, ok := valPropsTable[id]
	if !ok {
		return 0, 0, fmt.Errorf("canbus: unknown dashboard value id %d", id)
	}
	return props.format, props.unit, nil
}

// PackValue encodes value into the 4-byte request/reply payload for the
// given value id. Booleans use 0 for false, anything else for true.
func PackValue(id ValID, value float64) ([4]byte, error) {
	var payload [4]byte
	format, _, err := id.Props()
	if err != nil {
		return payload, err
	}
	switch format {
	case FmtFloat:
		binary.LittleEndian.PutUint32(payload[:], math.Float32bits(float32(value)))
	case FmtShort:
		if value < math.MinInt16 || value > math.MaxInt16 {
			return payload, fmt.Errorf("%w: %g does not fit int16", ErrOutOfRange, value)
		}
		binary.LittleEndian.PutUint16(payload[0:2], uint16(int16(value)))
	case FmtUshort:
		if value < 0 || value > math.MaxUint16 {
			return payload, fmt.Errorf("%w: %g does not fit uint16", ErrOutOfRange, value)
		}
		binary.LittleEndian.PutUint16(payload[0:2], uint16(value))
	case FmtBool:
		if value != 0 {
			payload[0] = 1
		}
	}
	return payload, nil
}

// UnpackValue decodes the 4-byte request/reply payload for the given
// value id. Booleans decode to 0 or 1.
func UnpackValue(id ValID, payload [4]byte) (float64, error) {
	format, _, err := id.Props()
	if err != nil {
		return 0, err
	}
	switch format {
	case FmtFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[:]))), nil
	case FmtShort:
		return float64(int16(binary.LittleEndian.Uint16(payload[0:2]))), nil
	case FmtUshort:
		return float64(binary.LittleEndian.Uint16(payload[0:2])), nil
	case FmtBool:
		if payload[0] != 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("canbus: unknown value format %d", format)
}

// ReqRep is the supervisor request/reply packet, the farm-ng parallel to
// the CANopen SDO protocol (COB 0x600 request / 0x580 reply + dashboard
// node id).
//
// Layout: <BHx4s> — op id with the success flag in bit 7, value id with
// the unit in bits 11..15, one pad byte, 4-byte value payload.
type ReqRep struct {
	Stamped

	Op      ReqRepOp
	ValID   ValID
	Unit    ValUnit
	Success bool
	Payload [4]byte
}

// Encode returns the packet packed as CAN payload bytes.
func (r ReqRep) Encode() ([]byte, error) {
	buf := make([]byte, 8)
	op := uint8(r.Op)
	if r.Success {
		op |= 0x80
	}
	buf[0] = op
	binary.LittleEndian.PutUint16(buf[1:3], uint16(r.ValID)|uint16(r.Unit)<<11)
	copy(buf[4:8], r.Payload[:])
	return buf, nil
}

// Decode populates the packet from CAN payload bytes.
func (r *ReqRep) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: req/rep needs 8 bytes, got %d", ErrBadLength, len(data))
	}
	r.Success = data[0]&0x80 != 0
	r.Op = ReqRepOp(data[0] &^ 0x80)
	valAndUnit := binary.LittleEndian.Uint16(data[1:3])
	r.Unit = ValUnit(valAndUnit >> 11)
	r.ValID = ValID(valAndUnit &^ 0xF800)
	copy(r.Payload[:], data[4:8])
	return nil
}

// ToRawRequest packs the packet into a raw bus message on the request
// COB-ID, addressed to the dashboard.
func (r ReqRep) ToRawRequest() (RawMessage, error) {
	data, err := r.Encode()
	if err != nil {
		return RawMessage{}, err
	}
	return RawMessage{ID: cobReqRepRequest + DashboardNodeID, Stamp: r.Stamp, Data: data}, nil
}

// ReqRepFromRawReply parses a raw bus message on the reply COB-ID.
func ReqRepFromRawReply(msg RawMessage) (ReqRep, error) {
	var r ReqRep
	if msg.ID != cobReqRepReply+DashboardNodeID {
		return r, fmt.Errorf("%w: expected req/rep reply, got id 0x%X", ErrBadCOBID, msg.ID)
	}
	if err := r.Decode(msg.Data); err != nil {
		return r, err
	}
	r.Stamp = msg.Stamp
	return r, nil
}

func (r ReqRep) String() string {
	return fmt.Sprintf("supervisor req OP %s VAL %d units %d success %t payload %X",
		r.Op, r.ValID, r.Unit, r.Success, r.Payload)
}
