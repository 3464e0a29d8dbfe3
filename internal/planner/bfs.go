package planner

import (
	"fmt"

	"github.com/eggybricks/trainctl/internal/track"
)

// Step is one edge traversal in a single-train plan, annotated with the
// orientation the train had while crossing it.
type Step struct {
	Segment     track.Segment
	Orientation Orientation
}

// visitKey keys the BFS visited set. Orientation is part of the key (the
// same city can be revisited facing the other way), even though the goal
// test below only compares cities.
type visitKey struct {
	city        track.City
	orientation Orientation
}

type bfsNode struct {
	city        track.City
	orientation Orientation
	path        []Step
}

// FindPath runs a breadth-first search from start to goal over t, starting
// with the train facing initialOrientation. It returns the sequence of
// edges to traverse, or ok=false if goal is unreachable.
func FindPath(t *track.Track, start, goal track.City, initialOrientation Orientation) ([]Step, bool) {
	if start == goal {
		return nil, true
	}

	visited := map[visitKey]bool{{start, initialOrientation}: true}
	queue := []bfsNode{{city: start, orientation: initialOrientation}}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, seg := range t.ConnectedSegments(node.city) {
			nextOrientation := node.orientation
			if len(node.path) > 0 {
				prev := node.path[len(node.path)-1].Segment
				if prev.ReverseFor[seg.Dst] {
					nextOrientation = nextOrientation.Opposite()
				}
			}

			if seg.Dst == goal {
				path := append(append([]Step(nil), node.path...), Step{Segment: seg, Orientation: nextOrientation})
				return path, true
			}

			key := visitKey{seg.Dst, nextOrientation}
			if visited[key] {
				continue
			}
			visited[key] = true

			path := append(append([]Step(nil), node.path...), Step{Segment: seg, Orientation: nextOrientation})
			queue = append(queue, bfsNode{city: seg.Dst, orientation: nextOrientation, path: path})
		}
	}
	return nil, false
}

// PathString renders a path as a readable city chain, for logging and REPL
// output.
func PathString(start track.City, path []Step) string {
	s := string(start)
	for _, step := range path {
		s += fmt.Sprintf(" -> %s(%s)", step.Segment.Dst, step.Orientation)
	}
	return s
}
