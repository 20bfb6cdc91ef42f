package canbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmigaRpdo1EncodeDecode(t *testing.T) {
	cmd := AmigaRpdo1{
		StateReq:    StateAutoActive,
		CmdSpeed:    2.0,
		CmdAngRate:  1.0,
		PtoBits:     0x0A,
		HbridgeBits: 0x05,
	}

	data, err := cmd.Encode()
	require.NoError(t, err)
	require.Len(t, data, 8)

	var decoded AmigaRpdo1
	require.NoError(t, decoded.Decode(data))

	assert.Equal(t, cmd.StateReq, decoded.StateReq)
	assert.InDelta(t, cmd.CmdSpeed, decoded.CmdSpeed, 1e-3)
	assert.InDelta(t, cmd.CmdAngRate, decoded.CmdAngRate, 1e-3)
	assert.Equal(t, cmd.PtoBits, decoded.PtoBits)
	assert.Equal(t, cmd.HbridgeBits, decoded.HbridgeBits)
}

func TestAmigaRpdo1LegacyDecode(t *testing.T) {
	// 5-byte layout from dashboard firmware < v0.1.9: state, speed, rate.
	full := AmigaRpdo1{StateReq: StateManualActive, CmdSpeed: -1.25, CmdAngRate: 0.5}
	data, err := full.Encode()
	require.NoError(t, err)

	var decoded AmigaRpdo1
	require.NoError(t, decoded.Decode(data[:5]))
	assert.Equal(t, StateManualActive, decoded.StateReq)
	assert.InDelta(t, -1.25, decoded.CmdSpeed, 1e-3)
	assert.InDelta(t, 0.5, decoded.CmdAngRate, 1e-3)
	assert.Zero(t, decoded.PtoBits)
}

func TestAmigaRpdo1BadLength(t *testing.T) {
	var decoded AmigaRpdo1
	err := decoded.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestAmigaTpdo1RoundTrip(t *testing.T) {
	report := AmigaTpdo1{
		State:       StateAutoReady,
		MeasSpeed:   3.0,
		MeasAngRate: 1.5,
		PtoBits:     0x01,
		HbridgeBits: 0x02,
		SOC:         87,
	}

	data, err := report.Encode()
	require.NoError(t, err)

	var decoded AmigaTpdo1
	require.NoError(t, decoded.Decode(data))
	assert.Equal(t, report.State, decoded.State)
	assert.InDelta(t, report.MeasSpeed, decoded.MeasSpeed, 1e-3)
	assert.InDelta(t, report.MeasAngRate, decoded.MeasAngRate, 1e-3)
	assert.Equal(t, report.PtoBits, decoded.PtoBits)
	assert.Equal(t, report.HbridgeBits, decoded.HbridgeBits)
	assert.Equal(t, report.SOC, decoded.SOC)
}

func TestAmigaTpdo1FromRaw(t *testing.T) {
	report := AmigaTpdo1{State: StateManualReady, MeasSpeed: 0.75}
	data, err := report.Encode()
	require.NoError(t, err)

	t.Run("dashboard sender", func(t *testing.T) {
		parsed, err := AmigaTpdo1FromRaw(RawMessage{ID: 0x180 + DashboardNodeID, Stamp: 12.5, Data: data})
		require.NoError(t, err)
		assert.Equal(t, StateManualReady, parsed.State)
		assert.InDelta(t, 0.75, parsed.MeasSpeed, 1e-3)
		assert.Equal(t, 12.5, parsed.Stamp)
	})

	t.Run("wrong sender", func(t *testing.T) {
		_, err := AmigaTpdo1FromRaw(RawMessage{ID: 0x180 + PendantNodeID, Data: data})
		assert.ErrorIs(t, err, ErrBadCOBID)
	})
}

func TestPendantStateEncodeDecode(t *testing.T) {
	state := PendantState{X: 0.5, Y: -0.5, Buttons: uint32(ButtonPause | ButtonBrake)}

	data, err := state.Encode()
	require.NoError(t, err)

	var decoded PendantState
	require.NoError(t, decoded.Decode(data))

	assert.InDelta(t, state.X, decoded.X, 1e-3)
	assert.InDelta(t, state.Y, decoded.Y, 1e-3)
	assert.Equal(t, state.Buttons, decoded.Buttons)

	assert.True(t, decoded.Pressed(ButtonPause))
	assert.True(t, decoded.Pressed(ButtonBrake))
	assert.False(t, decoded.Pressed(ButtonCruise))
	assert.False(t, decoded.Pressed(ButtonLeft))
	assert.Equal(t, []string{"PAUSE", "BRAKE"}, decoded.PressedButtons())
}

func TestPendantStateFromRawRejectsDashboard(t *testing.T) {
	data, err := PendantState{}.Encode()
	require.NoError(t, err)

	_, err = PendantStateFromRaw(RawMessage{ID: 0x180 + DashboardNodeID, Data: data})
	assert.ErrorIs(t, err, ErrBadCOBID)
}

func TestHeartbeatRoundTrip(t *testing.T) {
	hb := Heartbeat{
		NodeState:    NodeStateOperational,
		TicksMs:      123456,
		SerialNumber: [3]byte{0xAA, 0xBB, 0xCC},
	}

	data, err := hb.Encode()
	require.NoError(t, err)

	var decoded Heartbeat
	require.NoError(t, decoded.Decode(data))
	assert.Equal(t, hb.NodeState, decoded.NodeState)
	assert.Equal(t, hb.TicksMs, decoded.TicksMs)
	assert.Equal(t, hb.SerialNumber, decoded.SerialNumber)
}

func TestBugDispenserCommand(t *testing.T) {
	cmd := BugDispenserCommand{Rates: [3]float64{10.58, 18.3462, 0.559}}

	data, err := cmd.Encode()
	require.NoError(t, err)

	var decoded BugDispenserCommand
	require.NoError(t, decoded.Decode(data))
	for i := range cmd.Rates {
		assert.InDelta(t, cmd.Rates[i], decoded.Rates[i], 0.1)
	}

	t.Run("rate out of range", func(t *testing.T) {
		bad := BugDispenserCommand{Rates: [3]float64{30.0, 0, 0}}
		_, err := bad.Encode()
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("to raw", func(t *testing.T) {
		raw, err := cmd.ToRaw()
		require.NoError(t, err)
		assert.Equal(t, uint32(0x400+DashboardNodeID), raw.ID)
		require.NoError(t, raw.Validate())
	})
}

func TestBugDispenserState(t *testing.T) {
	state := BugDispenserState{
		Rates:    [3]float64{1, 15, 12},
		Counters: [3]uint8{138, 200, 255},
	}

	data, err := state.Encode()
	require.NoError(t, err)

	var decoded BugDispenserState
	require.NoError(t, decoded.Decode(data))
	for i := range state.Rates {
		assert.InDelta(t, state.Rates[i], decoded.Rates[i], 0.1)
		assert.Equal(t, state.Counters[i], decoded.Counters[i])
	}
}

func TestReqRepBitPacking(t *testing.T) {
	req := ReqRep{
		Op:      OpWrite,
		ValID:   ValVMax,
		Unit:    UnitMps,
		Success: true,
		Payload: [4]byte{1, 2, 3, 4},
	}

	data, err := req.Encode()
	require.NoError(t, err)

	// Success flag lives in bit 7 of the op byte, the unit in the top
	// five bits of the value word.
	assert.Equal(t, byte(0x80|byte(OpWrite)), data[0])

	var decoded ReqRep
	require.NoError(t, decoded.Decode(data))
	assert.Equal(t, OpWrite, decoded.Op)
	assert.Equal(t, ValVMax, decoded.ValID)
	assert.Equal(t, UnitMps, decoded.Unit)
	assert.True(t, decoded.Success)
	assert.Equal(t, req.Payload, decoded.Payload)
}

func TestPackUnpackValue(t *testing.T) {
	tests := []struct {
		name  string
		id    ValID
		value float64
	}{
		{"float v_max", ValVMax, 2.5},
		{"bool flip joystick", ValFlipJoystick, 1},
		{"ushort pto cur dev", ValPtoCurDev, 3},
		{"float wheel radius", ValWheelRadius, 0.215},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := PackValue(tt.id, tt.value)
			require.NoError(t, err)

			got, err := UnpackValue(tt.id, payload)
			require.NoError(t, err)
			assert.InDelta(t, tt.value, got, 1e-6)
		})
	}

	t.Run("unknown value id", func(t *testing.T) {
		_, err := PackValue(ValID(999), 1.0)
		assert.Error(t, err)
	})
}

func TestActuatorBits(t *testing.T) {
	bits := ActuatorBits(ActuatorForward, ActuatorPassive, ActuatorStopped, ActuatorReverse)
	cmds := ReadActuatorBits(bits)
	assert.Equal(t, [4]ActuatorCommand{ActuatorForward, ActuatorPassive, ActuatorStopped, ActuatorReverse}, cmds)
}

func TestActuatorCommandsBits(t *testing.T) {
	cmds := ActuatorCommands{
		HBridges: []HBridgeCommand{
			{ID: 0, Command: HBridgeForward},
			{ID: 2, Command: HBridgeReverse},
		},
		Ptos: []PtoCommand{
			{ID: 1, Command: PtoStopped, RPM: 20},
		},
	}

	ptoBits, hbridgeBits := cmds.Bits()
	assert.Equal(t, ActuatorBits(ActuatorPassive, ActuatorStopped, ActuatorPassive, ActuatorPassive), ptoBits)
	assert.Equal(t, ActuatorBits(ActuatorForward, ActuatorPassive, ActuatorReverse, ActuatorPassive), hbridgeBits)
}

func TestStampedFreshness(t *testing.T) {
	var s Stamped
	s.StampNow()
	assert.True(t, s.Fresh())
	assert.False(t, Stamped{Stamp: Now() - 10}.Fresh())
}

func TestRawMessageValidate(t *testing.T) {
	assert.NoError(t, RawMessage{ID: 0x200, Data: make([]byte, 8)}.Validate())
	assert.ErrorIs(t, RawMessage{ID: 0x200, Data: make([]byte, 9)}.Validate(), ErrBadLength)
}
