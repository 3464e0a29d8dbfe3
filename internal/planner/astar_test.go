package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eggybricks/trainctl/internal/track"
)

func twoTrainState(t *testing.T, a, b track.City) TrackState {
	t.Helper()
	state := NewTrackState()
	state.Trains["T1"] = TrainState{Location: AtCity(a), Orientation: Forward}
	state.Trains["T2"] = TrainState{Location: AtCity(b), Orientation: Forward}
	return state
}

func TestFindPaths_TwoTrainsReachDistinctGoals(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	dist := track.ComputeDistances(layout)
	initial := twoTrainState(t, "LA", "KANSAS_CITY")

	goals := []Goal{{Train: "T1", City: "NYC"}, {Train: "T2", City: "ATLANTA"}}
	moves, ok := FindPaths(layout, dist, initial, goals, 500)
	require.True(t, ok)
	require.NotEmpty(t, moves)

	final := initial
	for _, mv := range moves {
		final = mv.ToState
	}
	t1, ok := final.Trains["T1"]
	require.True(t, ok)
	assert.Equal(t, track.City("NYC"), t1.Location.City())
	t2, ok := final.Trains["T2"]
	require.True(t, ok)
	assert.Equal(t, track.City("ATLANTA"), t2.Location.City())
}

func TestFindPaths_NeverPlacesTwoTrainsOnTheSameSegmentOrCity(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	dist := track.ComputeDistances(layout)
	initial := twoTrainState(t, "LA", "KANSAS_CITY")
	goals := []Goal{{Train: "T1", City: "NYC"}, {Train: "T2", City: "ATLANTA"}}

	moves, ok := FindPaths(layout, dist, initial, goals, 500)
	require.True(t, ok)

	state := initial
	for _, mv := range moves {
		state = mv.ToState
		occupied := map[track.City]bool{}
		for _, ts := range state.Trains {
			if ts.Location.IsAtCity() {
				assert.False(t, occupied[ts.Location.City()], "two trains at %s", ts.Location.City())
				occupied[ts.Location.City()] = true
			} else {
				src, dst := ts.Location.Segment()
				assert.False(t, occupied[src], "train collides entering occupied city %s", src)
				assert.False(t, occupied[dst], "train collides entering occupied city %s", dst)
				occupied[src], occupied[dst] = true, true
			}
		}
	}
}

func TestFindPaths_AlreadySatisfiedGoalsReturnNoMoves(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	dist := track.ComputeDistances(layout)
	initial := twoTrainState(t, "LA", "KANSAS_CITY")
	goals := []Goal{{Train: "T1", City: "LA"}, {Train: "T2", City: "KANSAS_CITY"}}

	moves, ok := FindPaths(layout, dist, initial, goals, 500)
	assert.True(t, ok)
	assert.Empty(t, moves)
}

func TestFindPaths_ExhaustsBoundOnImpossibleGoal(t *testing.T) {
	t.Parallel()

	layout := track.New()
	dist := track.ComputeDistances(layout)
	initial := NewTrackState()
	initial.Trains["T1"] = TrainState{Location: AtCity("A"), Orientation: Forward}
	goals := []Goal{{Train: "T1", City: "B"}}

	_, ok := FindPaths(layout, dist, initial, goals, 10)
	assert.False(t, ok)
}
