package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eggybricks/trainctl/internal/planner"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

func TestSynthesizePath_EmitsSwitchCommandOnlyOnFirstUseThenPursueCommands(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	path, ok := planner.FindPath(layout, "LA", "CALGARY", planner.Forward)
	require.True(t, ok)
	require.Len(t, path, 1)

	switches := make(SwitchMap)
	groups, _ := SynthesizePath("T1", path, planner.Forward, switches)
	require.Len(t, groups, 1)

	cmds := groups[0].Commands
	require.Len(t, cmds, 3)

	sw, ok := cmds[0].(SwitchCommand)
	require.True(t, ok)
	assert.Equal(t, track.SwitchID("SWITCH_A"), sw.Switch)
	assert.Equal(t, wire.Diverging, sw.Position)
	assert.Equal(t, wire.Diverging, switches["SWITCH_A"])

	_, ok = cmds[1].(PursueCommand)
	assert.True(t, ok)
	_, ok = cmds[2].(PursueCommand)
	assert.True(t, ok)
}

func TestSynthesizePath_SkipsSwitchCommandWhenAlreadyInPlace(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	path, ok := planner.FindPath(layout, "LA", "CALGARY", planner.Forward)
	require.True(t, ok)

	switches := SwitchMap{"SWITCH_A": wire.Diverging}
	groups, _ := SynthesizePath("T1", path, planner.Forward, switches)

	for _, cmd := range groups[0].Commands {
		_, isSwitch := cmd.(SwitchCommand)
		assert.False(t, isSwitch, "should not re-issue a switch command for a position already held")
	}
}

func TestSynthesizePath_EmitsReverseCommandWhenReverseForTriggers(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	path, ok := planner.FindPath(layout, "CALGARY", "LAS_VEGAS", planner.Forward)
	require.True(t, ok)
	require.Len(t, path, 2)
	require.NotEqual(t, path[0].Orientation, path[1].Orientation)

	switches := make(SwitchMap)
	groups, _ := SynthesizePath("T1", path, planner.Forward, switches)

	var sawReverse bool
	for _, g := range groups {
		for _, cmd := range g.Commands {
			if _, ok := cmd.(ReverseCommand); ok {
				sawReverse = true
			}
		}
	}
	assert.True(t, sawReverse, "CALGARY -> KANSAS_CITY -> LAS_VEGAS should reverse before departing KANSAS_CITY per reverse_for")
}

func TestMergeGroups_InterleavesByIndexThenTrainOrder(t *testing.T) {
	t.Parallel()

	perTrain := map[string][]Group{
		"T1": {
			{Train: "T1", Index: 1, Commands: []Command{StopCommand{Train: "T1-a"}}},
			{Train: "T1", Index: 2, Commands: []Command{StopCommand{Train: "T1-b"}}},
		},
		"T2": {
			{Train: "T2", Index: 1, Commands: []Command{StopCommand{Train: "T2-a"}}},
		},
	}

	out := MergeGroups(perTrain, []string{"T1", "T2"})
	require.Len(t, out, 3)

	var order []string
	for _, cmd := range out {
		order = append(order, cmd.(StopCommand).Train)
	}
	// Index 1 groups from both trains precede T1's index-2 group; T1 wins
	// the tie at index 1 because it is first in trainOrder.
	assert.Equal(t, []string{"T1-a", "T2-a", "T1-b"}, order)
}

func TestMergeGroups_EmptyInputProducesNoCommands(t *testing.T) {
	t.Parallel()

	out := MergeGroups(map[string][]Group{}, nil)
	assert.Empty(t, out)
}

func TestSynthesizeMoves_SharesSwitchBeliefAcrossTrains(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	seg, ok := layout.Segment("LA", "CALGARY")
	require.True(t, ok)

	moves := []planner.Move{
		{Train: "T1", EnterCity: false, Segment: seg},
		{Train: "T1", EnterCity: true},
	}
	initial := map[string]planner.Orientation{"T1": planner.Forward}
	switches := make(SwitchMap)

	cmds, finals := SynthesizeMoves(moves, initial, switches, []string{"T1"})
	require.NotEmpty(t, cmds)

	sw, ok := cmds[0].(SwitchCommand)
	require.True(t, ok)
	assert.Equal(t, wire.Diverging, sw.Position)
	assert.Equal(t, wire.Diverging, switches["SWITCH_A"])
	assert.Equal(t, planner.Forward, finals["T1"])
}

// TestSynthesizePath_AbsoluteOrientationDoesNotToggleAcrossConsecutiveReverseFor
// reproduces CALGARY -> NYC -> ATLANTA -> KANSAS_CITY, a three-segment path
// whose first two segments both trigger reverse_for against the next
// segment's destination. The per-step target is computed fresh from each
// just-arrived segment's reverse_for set, not flipped from the previous
// state, so the train stays BACKWARD across both the NYC->ATLANTA and
// ATLANTA->KANSAS_CITY legs and only one reverse command is ever emitted.
func TestSynthesizePath_AbsoluteOrientationDoesNotToggleAcrossConsecutiveReverseFor(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	calgaryNYC, ok := layout.Segment("CALGARY", "NYC")
	require.True(t, ok)
	nycAtlanta, ok := layout.Segment("NYC", "ATLANTA")
	require.True(t, ok)
	atlantaKC, ok := layout.Segment("ATLANTA", "KANSAS_CITY")
	require.True(t, ok)

	require.True(t, calgaryNYC.ReverseFor["ATLANTA"], "CALGARY->NYC must trigger reverse_for on ATLANTA")
	require.True(t, nycAtlanta.ReverseFor["KANSAS_CITY"], "NYC->ATLANTA must trigger reverse_for on KANSAS_CITY")

	path := []planner.Step{
		{Segment: calgaryNYC},
		{Segment: nycAtlanta},
		{Segment: atlantaKC},
	}

	switches := make(SwitchMap)
	groups, final := SynthesizePath("T1", path, planner.Forward, switches)
	require.Len(t, groups, 3)

	var reverses int
	for _, g := range groups {
		for _, cmd := range g.Commands {
			if _, ok := cmd.(ReverseCommand); ok {
				reverses++
			}
		}
	}
	assert.Equal(t, 1, reverses, "only the NYC departure should reverse; ATLANTA departure must hold BACKWARD, not toggle back to FORWARD")
	assert.Equal(t, planner.Backward, final)
}
