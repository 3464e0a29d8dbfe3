// Package planner implements the single-train breadth-first search and the
// multi-train A* search over the track graph, producing an ordered edge
// sequence (or a per-train TrackState sequence) for the command-synthesis
// layer to lower into wire commands.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eggybricks/trainctl/internal/track"
)

// Orientation is the physical facing of a train's chassis.
type Orientation uint8

const (
	Forward Orientation = iota
	Backward
)

func (o Orientation) String() string {
	if o == Backward {
		return "BACKWARD"
	}
	return "FORWARD"
}

// Opposite returns the flipped orientation.
func (o Orientation) Opposite() Orientation {
	if o == Forward {
		return Backward
	}
	return Forward
}

// Location is a closed tagged union: a train is either AtCity or OnSegment.
// The zero value is not a valid Location; use AtCity/OnSegment to build one.
type Location struct {
	city       track.City
	src, dst   track.City
	onSegment  bool
}

// AtCity constructs a Location naming the city a train currently occupies.
func AtCity(c track.City) Location { return Location{city: c} }

// OnSegment constructs a Location naming the directed segment a train is
// currently traversing.
func OnSegment(src, dst track.City) Location {
	return Location{src: src, dst: dst, onSegment: true}
}

// IsAtCity reports whether the location names a city.
func (l Location) IsAtCity() bool { return !l.onSegment }

// City returns the occupied city; valid only when IsAtCity is true.
func (l Location) City() track.City { return l.city }

// Segment returns the (src, dst) pair of the occupied segment; valid only
// when IsAtCity is false.
func (l Location) Segment() (track.City, track.City) { return l.src, l.dst }

func (l Location) String() string {
	if l.onSegment {
		return fmt.Sprintf("%s->%s", l.src, l.dst)
	}
	return string(l.city)
}

// key returns a value usable as a map key component, since Location already
// is one (all fields are comparable), but centralizing string formatting
// keeps TrackState's derived hash in one place.
func (l Location) key() string {
	if l.onSegment {
		return "S:" + string(l.src) + ">" + string(l.dst)
	}
	return "C:" + string(l.city)
}

// TrainState is a train's position and facing.
type TrainState struct {
	Location    Location
	Orientation Orientation
}

// TrackState is the planner's full state-space element: every train's
// state plus every switch's position. Two TrackStates are Equal exactly
// when every train and every switch matches; Hash is a derived value
// suitable as a map/visited-set key, replacing ad-hoc tuple hashing with an
// explicit value type.
type TrackState struct {
	Trains   map[string]TrainState
	Switches map[track.SwitchID]uint8
}

// NewTrackState returns a TrackState with empty train and switch maps.
func NewTrackState() TrackState {
	return TrackState{
		Trains:   make(map[string]TrainState),
		Switches: make(map[track.SwitchID]uint8),
	}
}

// Clone returns a deep copy so successor generation never mutates a
// predecessor state.
func (s TrackState) Clone() TrackState {
	out := NewTrackState()
	for k, v := range s.Trains {
		out.Trains[k] = v
	}
	for k, v := range s.Switches {
		out.Switches[k] = v
	}
	return out
}

// Hash returns a stable string key for use as a visited-set entry.
func (s TrackState) Hash() string {
	trainTags := make([]string, 0, len(s.Trains))
	for tag := range s.Trains {
		trainTags = append(trainTags, tag)
	}
	sort.Strings(trainTags)

	var b strings.Builder
	for _, tag := range trainTags {
		ts := s.Trains[tag]
		b.WriteString(tag)
		b.WriteByte('=')
		b.WriteString(ts.Location.key())
		b.WriteByte('@')
		b.WriteString(ts.Orientation.String())
		b.WriteByte(';')
	}

	swIDs := make([]string, 0, len(s.Switches))
	for id := range s.Switches {
		swIDs = append(swIDs, string(id))
	}
	sort.Strings(swIDs)
	for _, id := range swIDs {
		b.WriteString(id)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%d", s.Switches[track.SwitchID(id)])
		b.WriteByte(';')
	}
	return b.String()
}

// Equal reports structural equality between two TrackStates.
func (s TrackState) Equal(other TrackState) bool {
	return s.Hash() == other.Hash()
}
