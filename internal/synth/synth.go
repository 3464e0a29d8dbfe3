package synth

import (
	"github.com/eggybricks/trainctl/internal/planner"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

// SwitchMap is the leader's current belief about every switch's position,
// mutated in place by SynthesizePath as it emits switch commands.
type SwitchMap map[track.SwitchID]wire.SwitchPosition

// SynthesizePath lowers a single train's BFS path into ordered step groups.
// initialOrientation is the train's facing before the first step; switches
// reflects (and is updated with) the leader's current switch beliefs so
// later steps, or later trains sharing the track, only emit commands for
// switches that actually need to move. It returns the groups and the
// train's orientation on arrival at the final step, for callers to persist.
//
// Departure orientation after the first step is not the planner's
// search-time step.Orientation (a toggle used only to distinguish visited
// states during BFS; A* never changes orientation); it is recomputed here as the absolute target the
// command-synthesis rule demands: after arriving via a segment, look ahead
// to the next segment's destination. If that city is in the just-arrived
// segment's reverse_for, the target is BACKWARD, otherwise FORWARD — set
// directly, never toggled from whatever orientation came before. A reverse
// command is emitted only when that target differs from the orientation
// currently tracked.
func SynthesizePath(train string, path []planner.Step, initialOrientation planner.Orientation, switches SwitchMap) ([]Group, planner.Orientation) {
	groups := make([]Group, 0, len(path))
	orientation := initialOrientation

	for i, step := range path {
		seg := step.Segment
		var cmds []Command

		for id, pos := range seg.Switches {
			want := wire.SwitchPosition(pos)
			if switches[id] != want {
				switches[id] = want
				cmds = append(cmds, SwitchCommand{Switch: id, Position: want})
			}
		}

		if i > 0 {
			target := planner.Forward
			if path[i-1].Segment.ReverseFor[seg.Dst] {
				target = planner.Backward
			}
			if target != orientation {
				cmds = append(cmds, ReverseCommand{Train: train})
				orientation = target
			}
		}

		op := wire.OpForwardUntilPattern
		approach := seg.Approach
		atCity := seg.AtCity
		if orientation == planner.Backward {
			op = wire.OpBackwardUntilPattern
			approach = approach.Reversed()
			atCity = atCity.Reversed()
		}
		cmds = append(cmds, PursueCommand{Train: train, Op: op, Pattern: approach})
		cmds = append(cmds, PursueCommand{Train: train, Op: op, Pattern: atCity})

		groups = append(groups, Group{Train: train, Index: i + 1, Commands: cmds})
	}
	return groups, orientation
}

// MergeGroups interleaves multiple trains' step groups into a single
// command stream, at each step choosing the available group with the
// smallest index and breaking ties by trainOrder.
func MergeGroups(perTrain map[string][]Group, trainOrder []string) []Command {
	cursor := make(map[string]int, len(perTrain))
	var out []Command

	for {
		bestTrain := ""
		bestIndex := -1
		for _, train := range trainOrder {
			groups := perTrain[train]
			c := cursor[train]
			if c >= len(groups) {
				continue
			}
			idx := groups[c].Index
			if bestIndex == -1 || idx < bestIndex {
				bestIndex = idx
				bestTrain = train
			}
		}
		if bestTrain == "" {
			break
		}
		out = append(out, perTrain[bestTrain][cursor[bestTrain]].Commands...)
		cursor[bestTrain]++
	}
	return out
}

// SynthesizeMoves groups a multi-train A* move list by train (keeping only
// segment-entry moves, which is where a switch requirement and a pursue
// command arise) and re-synthesizes each train's resulting segment sequence
// with SynthesizePath, then merges the per-train groups in trainOrder. It
// returns the merged commands and each train's orientation after its final
// segment, for callers to persist as the new tracked world state.
func SynthesizeMoves(moves []planner.Move, initialOrientations map[string]planner.Orientation, switches SwitchMap, trainOrder []string) ([]Command, map[string]planner.Orientation) {
	perTrainSegs := make(map[string][]track.Segment)
	for _, mv := range moves {
		if mv.EnterCity {
			continue
		}
		perTrainSegs[mv.Train] = append(perTrainSegs[mv.Train], mv.Segment)
	}

	perTrain := make(map[string][]Group, len(perTrainSegs))
	finalOrientations := make(map[string]planner.Orientation, len(initialOrientations))
	for train, o := range initialOrientations {
		finalOrientations[train] = o
	}
	for train, segs := range perTrainSegs {
		steps := make([]planner.Step, len(segs))
		for i, seg := range segs {
			steps[i] = planner.Step{Segment: seg}
		}
		groups, final := SynthesizePath(train, steps, initialOrientations[train], switches)
		perTrain[train] = groups
		finalOrientations[train] = final
	}
	return MergeGroups(perTrain, trainOrder), finalOrientations
}
