// Package track models the static directed track graph: cities,
// switch-bearing segments, and the all-pairs shortest-path table the
// planner's heuristic consults.
package track

import (
	"fmt"
	"sort"

	"github.com/eggybricks/trainctl/internal/color"
	"github.com/eggybricks/trainctl/internal/wire"
)

// City is a stable node label in the track graph.
type City string

// SwitchID is a stable switch label ("SWITCH_A" ... "SWITCH_J").
type SwitchID string

// Edge identifies a directed segment by its endpoints.
type Edge struct {
	Src, Dst City
}

// Segment is one directed track edge.
type Segment struct {
	Src, Dst City
	Switches map[SwitchID]wire.SwitchPosition

	// Approach is the pattern seen while traversing toward Dst.
	Approach color.Pattern
	// AtCity is the pattern seen on arrival at Dst.
	AtCity color.Pattern

	Distance float64

	// ReverseFor is the set of onward destinations for which, after
	// arriving via this edge, the train must reverse orientation before
	// departing ("reverse_for").
	ReverseFor map[City]bool
}

// Track is the complete directed graph.
type Track struct {
	Segments map[Edge]Segment

	// SwitchOwner maps each switch to the (1-based) hub number that owns
	// it. The mapping switch->hub is static configuration.
	SwitchOwner map[SwitchID]int
}

// New returns an empty Track ready to have segments added.
func New() *Track {
	return &Track{
		Segments:    make(map[Edge]Segment),
		SwitchOwner: make(map[SwitchID]int),
	}
}

// AddSegment inserts a directed segment.
func (t *Track) AddSegment(s Segment) {
	t.Segments[Edge{s.Src, s.Dst}] = s
}

// Validate checks every boot-time precondition: every segment must define
// both an approach and an at_city pattern. Returns a descriptive error on
// the first violation found; callers treat this as fatal.
func (t *Track) Validate() error {
	if len(t.Segments) == 0 {
		return fmt.Errorf("track: no segments defined")
	}
	for edge, seg := range t.Segments {
		if len(seg.Approach) == 0 {
			return fmt.Errorf("track: segment %s->%s missing approach pattern", edge.Src, edge.Dst)
		}
		if len(seg.AtCity) == 0 {
			return fmt.Errorf("track: segment %s->%s missing at_city pattern", edge.Src, edge.Dst)
		}
		for _, c := range seg.Approach {
			if !color.IsPatternColor(c) {
				return fmt.Errorf("track: segment %s->%s approach pattern has non-pattern color %s", edge.Src, edge.Dst, c)
			}
		}
		for _, c := range seg.AtCity {
			if !color.IsPatternColor(c) {
				return fmt.Errorf("track: segment %s->%s at_city pattern has non-pattern color %s", edge.Src, edge.Dst, c)
			}
		}
	}
	return nil
}

// Cities returns the set of every city mentioned by any segment endpoint.
func (t *Track) Cities() []City {
	seen := make(map[City]bool)
	for edge := range t.Segments {
		seen[edge.Src] = true
		seen[edge.Dst] = true
	}
	out := make([]City, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	return out
}

// ConnectedSegments returns every segment whose Src is city — the edges
// out of that city: the segments whose src equals that city. Sorted by Dst
// so successor expansion order is stable across processes and runs, which
// is what lets A*'s insertion-order tie-breaking actually reproduce.
func (t *Track) ConnectedSegments(city City) []Segment {
	var out []Segment
	for edge, seg := range t.Segments {
		if edge.Src == city {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dst < out[j].Dst })
	return out
}

// Segment looks up the directed edge (src, dst).
func (t *Track) Segment(src, dst City) (Segment, bool) {
	s, ok := t.Segments[Edge{src, dst}]
	return s, ok
}
