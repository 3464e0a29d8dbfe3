package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/eggybricks/trainctl/internal/planner"
	"github.com/eggybricks/trainctl/internal/synth"
	"github.com/eggybricks/trainctl/internal/track"
)

// worldState is the leader's own bookkeeping for every train's location and
// orientation, since the wire protocol never reports position. It starts
// trains at their configured home cities and is updated to a path's
// destination after that path is successfully executed.
type worldState struct {
	mu    sync.Mutex
	state planner.TrackState
}

func newWorldState(homes map[string]track.City, switches synth.SwitchMap) *worldState {
	ts := planner.NewTrackState()
	for train, city := range homes {
		ts.Trains[train] = planner.TrainState{Location: planner.AtCity(city), Orientation: planner.Forward}
	}
	for id, pos := range switches {
		ts.Switches[id] = uint8(pos)
	}
	return &worldState{state: ts}
}

// trainState returns one train's current belief, or false if train is
// unknown.
func (w *worldState) trainState(train string) (planner.TrainState, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ts, ok := w.state.Trains[train]
	return ts, ok
}

// snapshot returns a deep copy of the whole TrackState, suitable as A*'s
// initial state.
func (w *worldState) snapshot() planner.TrackState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}

// arrive records that train ended a successfully executed path at city,
// facing orientation.
func (w *worldState) arrive(train string, city track.City, orientation planner.Orientation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Trains[train] = planner.TrainState{Location: planner.AtCity(city), Orientation: orientation}
}

// setLocations overrides tracked train locations, leaving orientation
// untouched, used when the REPL's multi-train intake loop is told a
// train's actual current position before planning.
func (w *worldState) setLocations(locs map[string]planner.Location) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for train, loc := range locs {
		ts := w.state.Trains[train]
		ts.Location = loc
		w.state.Trains[train] = ts
	}
}

// applyFinalOrientations updates every train named in finals to its given
// final city/orientation, used after a multi-train A* plan executes.
func (w *worldState) applyFinalOrientations(finals map[string]planner.TrainState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for train, ts := range finals {
		w.state.Trains[train] = ts
	}
}

// parseHomeFlags parses "TAG=CITY" pairs as given to --home.
func parseHomeFlags(raw []string) (map[string]track.City, error) {
	out := make(map[string]track.City, len(raw))
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --home entry %q, want TAG=CITY", kv)
		}
		out[parts[0]] = track.City(parts[1])
	}
	return out, nil
}
