package planner

import (
	"container/heap"

	"github.com/eggybricks/trainctl/internal/track"
)

// Goal names, for one train, the city it must reach.
type Goal struct {
	Train string
	City  track.City
}

// Move is one train's transition from its current TrackState to a
// successor TrackState: entering a segment, or arriving at a city.
type Move struct {
	Train      string
	ToState    TrackState
	EnterCity  bool // true if this move ends at a city, false if it enters a segment
	Segment    track.Segment
	Switches   map[track.SwitchID]uint8 // switches changed to enable this move (entering-segment moves only)
}

type searchNode struct {
	state TrackState
	moves []Move // moves taken to reach state, in order
	g     float64
	h     float64
	index int // insertion order, for FIFO tie-breaking
}

type openQueue []*searchNode

func (q openQueue) Len() int { return len(q) }
func (q openQueue) Less(i, j int) bool {
	fi, fj := q[i].g+q[i].h, q[j].g+q[j].h
	if fi != fj {
		return fi < fj
	}
	return q[i].index < q[j].index
}
func (q openQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *openQueue) Push(x interface{}) {
	*q = append(*q, x.(*searchNode))
}
func (q *openQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// goalsSatisfied reports whether every goal's train is AtCity(goal city).
func goalsSatisfied(state TrackState, goals []Goal) bool {
	for _, g := range goals {
		ts, ok := state.Trains[g.Train]
		if !ok || !ts.Location.IsAtCity() || ts.Location.City() != g.City {
			return false
		}
	}
	return true
}

// currentCity returns the city to use for heuristic/occupancy purposes: the
// train's city if AtCity, or the destination of its current segment
// otherwise (the "far endpoint" per the heuristic definition).
func currentCity(ts TrainState) track.City {
	if ts.Location.IsAtCity() {
		return ts.Location.City()
	}
	_, dst := ts.Location.Segment()
	return dst
}

func heuristic(state TrackState, goals []Goal, dist *track.DistanceTable) float64 {
	var h float64
	for _, g := range goals {
		ts, ok := state.Trains[g.Train]
		if !ok {
			continue
		}
		// Same /100 scale as moveCost, so h never overestimates.
		h += dist.MinDistance(currentCity(ts), g.City) / 100
	}
	return h
}

// incidentTo reports whether segment s touches city c (as either endpoint).
func incidentTo(s track.Segment, c track.City) bool {
	return s.Src == c || s.Dst == c
}

// occupiedCities and occupiedSegments summarize where every train other
// than exclude currently is, for the safety predicate.
func occupiedCities(state TrackState, exclude string) map[track.City]bool {
	out := make(map[track.City]bool)
	for tag, ts := range state.Trains {
		if tag == exclude {
			continue
		}
		if ts.Location.IsAtCity() {
			out[ts.Location.City()] = true
		} else {
			src, dst := ts.Location.Segment()
			out[src] = true
			out[dst] = true
		}
	}
	return out
}

func occupiedSegments(state TrackState, exclude string) []track.Segment {
	var out []track.Segment
	for tag, ts := range state.Trains {
		if tag == exclude {
			continue
		}
		if !ts.Location.IsAtCity() {
			src, dst := ts.Location.Segment()
			out = append(out, track.Segment{Src: src, Dst: dst})
		}
	}
	return out
}

// safeEnterSegment checks the safety predicate for a train at city c
// entering segment (c,d).
func safeEnterSegment(state TrackState, train string, seg track.Segment) bool {
	cities := occupiedCities(state, train)
	if cities[seg.Src] || cities[seg.Dst] {
		return false
	}
	for _, other := range occupiedSegments(state, train) {
		if other.Src == seg.Src && other.Dst == seg.Dst {
			return false
		}
		if incidentTo(other, seg.Src) || incidentTo(other, seg.Dst) {
			return false
		}
	}
	return true
}

// safeArriveCity checks the safety predicate for a train on segment (a,b)
// moving to city c in {a,b}.
func safeArriveCity(state TrackState, train string, c track.City) bool {
	cities := occupiedCities(state, train)
	if cities[c] {
		return false
	}
	for _, other := range occupiedSegments(state, train) {
		if incidentTo(other, c) {
			return false
		}
	}
	return true
}

// switchChanges counts how many entries of required differ from current.
func switchChanges(current map[track.SwitchID]uint8, required map[track.SwitchID]uint8) int {
	n := 0
	for id, pos := range required {
		if current[id] != pos {
			n++
		}
	}
	return n
}

// successors enumerates every safe move available from state, one per
// (train not yet at goal) x (possible transition).
func successors(t *track.Track, state TrackState, goals []Goal) []Move {
	var out []Move
	for _, g := range goals {
		ts, ok := state.Trains[g.Train]
		if !ok || (ts.Location.IsAtCity() && ts.Location.City() == g.City) {
			continue
		}

		if ts.Location.IsAtCity() {
			c := ts.Location.City()
			for _, seg := range t.ConnectedSegments(c) {
				if !safeEnterSegment(state, g.Train, seg) {
					continue
				}
				next := state.Clone()
				required := make(map[track.SwitchID]uint8, len(seg.Switches))
				for id, pos := range seg.Switches {
					required[id] = uint8(pos)
				}
				changed := make(map[track.SwitchID]uint8)
				for id, pos := range required {
					if next.Switches[id] != pos {
						changed[id] = pos
					}
					next.Switches[id] = pos
				}
				next.Trains[g.Train] = TrainState{
					Location:    OnSegment(seg.Src, seg.Dst),
					Orientation: ts.Orientation,
				}
				out = append(out, Move{Train: g.Train, ToState: next, EnterCity: false, Segment: seg, Switches: changed})
			}
		} else {
			src, dst := ts.Location.Segment()
			for _, c := range []track.City{src, dst} {
				if !safeArriveCity(state, g.Train, c) {
					continue
				}
				next := state.Clone()
				next.Trains[g.Train] = TrainState{Location: AtCity(c), Orientation: ts.Orientation}
				seg, _ := t.Segment(src, dst)
				out = append(out, Move{Train: g.Train, ToState: next, EnterCity: true, Segment: seg})
			}
		}
	}
	return out
}

func moveCost(m Move) float64 {
	if m.EnterCity {
		return 0
	}
	return m.Segment.Distance/100 + 0.1*float64(len(m.Switches))
}

// FindPaths runs a multi-train A* search from initial to a state satisfying
// every goal, bounded by maxNodes node expansions. It returns the ordered
// list of moves to reach the goal, or ok=false if the bound is exhausted
// without finding one.
func FindPaths(t *track.Track, dist *track.DistanceTable, initial TrackState, goals []Goal, maxNodes int) ([]Move, bool) {
	if goalsSatisfied(initial, goals) {
		return nil, true
	}

	start := &searchNode{state: initial, g: 0, h: heuristic(initial, goals, dist)}
	open := &openQueue{start}
	heap.Init(open)
	visited := map[string]float64{initial.Hash(): 0}
	nextIndex := 1

	expanded := 0
	for open.Len() > 0 && expanded < maxNodes {
		node := heap.Pop(open).(*searchNode)
		expanded++

		if goalsSatisfied(node.state, goals) {
			return node.moves, true
		}

		for _, mv := range successors(t, node.state, goals) {
			g := node.g + moveCost(mv)
			hash := mv.ToState.Hash()
			if best, ok := visited[hash]; ok && best <= g {
				continue
			}
			visited[hash] = g
			moves := append(append([]Move(nil), node.moves...), mv)
			heap.Push(open, &searchNode{
				state: mv.ToState,
				moves: moves,
				g:     g,
				h:     heuristic(mv.ToState, goals, dist),
				index: nextIndex,
			})
			nextIndex++
		}
	}
	return nil, false
}
