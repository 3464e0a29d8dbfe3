package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eggybricks/trainctl/internal/color"
)

func TestEncodeDecode_SwitchCommand_RoundTrips(t *testing.T) {
	t.Parallel()

	want := SwitchCommand{SeqNum: 7, Switch: "SWITCH_A", Position: Diverging}
	f, ok := Decode(Encode(want))
	require.True(t, ok)
	assert.Equal(t, want, f)
}

func TestEncodeDecode_TrainStopCommand_RoundTrips(t *testing.T) {
	t.Parallel()

	want := TrainStopCommand{SeqNum: 3, Train: "T1"}
	f, ok := Decode(Encode(want))
	require.True(t, ok)
	assert.Equal(t, want, f)
}

func TestEncodeDecode_TrainPursueCommand_RoundTrips(t *testing.T) {
	t.Parallel()

	want := TrainPursueCommand{
		SeqNum:  42,
		Train:   "T2",
		Op:      OpForwardUntilPattern,
		Pattern: color.Pattern{color.RED, color.YELLOW, color.GREEN},
	}
	f, ok := Decode(Encode(want))
	require.True(t, ok)
	assert.Equal(t, want, f)
}

func TestEncodeDecode_SwitchStatus_RoundTrips(t *testing.T) {
	t.Parallel()

	want := SwitchStatus{
		SeqNum: 1,
		Positions: map[string]SwitchPosition{
			"SWITCH_A": Straight,
			"SWITCH_B": Diverging,
		},
	}
	f, ok := Decode(Encode(want))
	require.True(t, ok)
	assert.Equal(t, want, f)
}

func TestEncodeDecode_TrainStatus_RoundTrips(t *testing.T) {
	t.Parallel()

	want := TrainStatus{
		SeqNum:   9,
		Train:    "T1",
		Color:    color.BLUE,
		Movement: MovementForward,
		Pattern:  color.Pattern{color.BLUE, color.RED},
	}
	f, ok := Decode(Encode(want))
	require.True(t, ok)
	assert.Equal(t, want, f)
}

func TestEncodeDecode_TrainStatus_EmptyPatternRoundTrips(t *testing.T) {
	t.Parallel()

	want := TrainStatus{SeqNum: 1, Train: "T1", Color: color.NONE, Movement: MovementStopped}
	f, ok := Decode(Encode(want))
	require.True(t, ok)
	status, ok := f.(TrainStatus)
	require.True(t, ok)
	assert.Empty(t, status.Pattern)
}

func TestDecode_TruncatedFrameFailsCleanly(t *testing.T) {
	t.Parallel()

	full := Encode(SwitchCommand{SeqNum: 1, Switch: "SWITCH_A", Position: Straight})
	for n := 0; n < len(full); n++ {
		_, ok := Decode(full[:n])
		assert.False(t, ok, "truncated to %d bytes should not decode", n)
	}
}

func TestDecode_UnknownKindFails(t *testing.T) {
	t.Parallel()

	_, ok := Decode([]byte{0xFF, 0, 0, 0, 1})
	assert.False(t, ok)
}

func TestDecode_EmptyInputFails(t *testing.T) {
	t.Parallel()

	_, ok := Decode(nil)
	assert.False(t, ok)
}

func TestChannelAssignment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Channel(11), SwitchStatusChannel(1))
	assert.Equal(t, Channel(15), SwitchStatusChannel(5))
	assert.Equal(t, Channel(21), TrainStatusChannel(1))
	assert.Equal(t, Channel(25), TrainStatusChannel(5))
}
