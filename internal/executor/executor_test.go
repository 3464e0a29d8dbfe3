package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eggybricks/trainctl/internal/leaderstate"
	"github.com/eggybricks/trainctl/internal/synth"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

// fakeRadio is a minimal radio.Radio stub whose Broadcast hook decides
// delivery per call, letting tests exercise the executor's retry path
// without depending on memradio's probabilistic loss.
type fakeRadio struct {
	onBroadcast func(calls int, ch wire.Channel, payload []byte)
	calls       int32
}

func (r *fakeRadio) Broadcast(ctx context.Context, ch wire.Channel, payload []byte) error {
	n := int(atomic.AddInt32(&r.calls, 1))
	if r.onBroadcast != nil {
		r.onBroadcast(n, ch, payload)
	}
	return nil
}

func (r *fakeRadio) Subscribe(ch wire.Channel) <-chan []byte { return make(chan []byte) }
func (r *fakeRadio) Close() error                            { return nil }

func singleSwitchTrack() *track.Track {
	t := track.New()
	t.SwitchOwner["SWITCH_A"] = 1
	return t
}

func TestExecutor_RunSwitch_RecoversAfterOneLostBroadcast(t *testing.T) {
	t.Parallel()

	tr := singleSwitchTrack()
	state := leaderstate.New(tr)

	r := &fakeRadio{}
	r.onBroadcast = func(n int, ch wire.Channel, payload []byte) {
		if n == 1 {
			// First broadcast is lost: no status frame follows.
			return
		}
		state.ApplySwitchStatus(wire.SwitchStatusChannel(1), wire.SwitchStatus{
			SeqNum:    uint32(n),
			Positions: map[string]wire.SwitchPosition{"SWITCH_A": wire.Diverging},
		})
	}

	e := New(r, state, tr, nil, nil)
	cmds := []synth.Command{synth.SwitchCommand{Switch: "SWITCH_A", Position: wire.Diverging}}

	err := e.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&r.calls))

	pos, ok := state.SwitchPosition("SWITCH_A")
	require.True(t, ok)
	assert.Equal(t, wire.Diverging, pos)
}

func TestExecutor_RunSwitch_UnknownSwitchFailsWithoutBroadcasting(t *testing.T) {
	t.Parallel()

	tr := track.New()
	state := leaderstate.New(tr)
	r := &fakeRadio{}
	e := New(r, state, tr, func(reason string) bool { return false }, nil)

	cmds := []synth.Command{synth.SwitchCommand{Switch: "SWITCH_Z", Position: wire.Straight}}
	err := e.Run(context.Background(), cmds)
	assert.Error(t, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(&r.calls))
}

func TestExecutor_RunSwitch_AbortsWhenOperatorDeclinesToContinue(t *testing.T) {
	t.Parallel()

	tr := track.New()
	state := leaderstate.New(tr)
	r := &fakeRadio{}

	e := New(r, state, tr, func(reason string) bool { return false }, nil)
	cmds := []synth.Command{synth.SwitchCommand{Switch: "MISSING", Position: wire.Straight}}
	err := e.Run(context.Background(), cmds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted at step 1")
}

func TestExecutor_RunSwitch_AbortsWhenContextEndsBeforeConfirmation(t *testing.T) {
	t.Parallel()

	tr := singleSwitchTrack()
	state := leaderstate.New(tr)
	r := &fakeRadio{} // never applies a status update: confirmation never arrives

	e := New(r, state, tr, func(reason string) bool { return false }, nil)
	cmds := []synth.Command{synth.SwitchCommand{Switch: "SWITCH_A", Position: wire.Diverging}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e.Run(ctx, cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "aborted at step 1")
}

func TestExecutor_Run_SkipsReverseCommandsWithoutBroadcasting(t *testing.T) {
	t.Parallel()

	tr := track.New()
	state := leaderstate.New(tr)
	r := &fakeRadio{}
	e := New(r, state, tr, nil, nil)

	cmds := []synth.Command{synth.ReverseCommand{Train: "T1"}}
	err := e.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(&r.calls))
}
