// Package leaderstate owns the leader's mutable view of the world: the
// switch and train maps built from status frames, the per-channel dedup
// ledgers that guard them, and the single monotonic command counter, all
// under a single mutex instead of scattered package-level variables.
package leaderstate

import (
	"sync"

	"github.com/eggybricks/trainctl/internal/color"
	"github.com/eggybricks/trainctl/internal/dedup"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

// TrainStatus is the leader's last-known view of one train.
type TrainStatus struct {
	Color    color.Color
	Movement wire.Movement
	Pattern  color.Pattern
}

// State is the leader's coordinator: everything mutated by incoming status
// frames and consulted by the planner and executor.
type State struct {
	mu sync.Mutex

	switches map[track.SwitchID]wire.SwitchPosition
	trains   map[string]TrainStatus

	ledgers map[wire.Channel]*dedup.Ledger
	seq     uint32
}

// New returns a State with every switch defaulted to STRAIGHT, matching
// follower boot behavior (switches forced to STRAIGHT at power-on).
func New(t *track.Track) *State {
	s := &State{
		switches: make(map[track.SwitchID]wire.SwitchPosition, len(t.SwitchOwner)),
		trains:   make(map[string]TrainStatus),
		ledgers:  make(map[wire.Channel]*dedup.Ledger),
	}
	for id := range t.SwitchOwner {
		s.switches[id] = wire.Straight
	}
	return s
}

// NextSeq returns the next command sequence number from the leader's single
// monotonic counter.
func (s *State) NextSeq() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Switches returns a snapshot copy of the current switch map.
func (s *State) Switches() map[track.SwitchID]wire.SwitchPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[track.SwitchID]wire.SwitchPosition, len(s.switches))
	for k, v := range s.switches {
		out[k] = v
	}
	return out
}

// SwitchPosition reports the leader's current belief about one switch.
func (s *State) SwitchPosition(id track.SwitchID) (wire.SwitchPosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.switches[id]
	return p, ok
}

// Train returns the leader's current belief about one train.
func (s *State) Train(tag string) (TrainStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trains[tag]
	return t, ok
}

func (s *State) ledgerFor(ch wire.Channel) *dedup.Ledger {
	l, ok := s.ledgers[ch]
	if !ok {
		l = dedup.New(dedup.DefaultCapacity)
		s.ledgers[ch] = l
	}
	return l
}

// ApplySwitchStatus ingests a switch hub's full-snapshot status frame,
// deduping on (channel, seq). Returns false if the frame was a duplicate
// and therefore ignored.
func (s *State) ApplySwitchStatus(ch wire.Channel, f wire.SwitchStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ledgerFor(ch).Observe(f.SeqNum) {
		return false
	}
	for label, pos := range f.Positions {
		s.switches[track.SwitchID(label)] = pos
	}
	return true
}

// ApplyTrainStatus ingests a train hub's status frame, deduping on
// (channel, seq).
func (s *State) ApplyTrainStatus(ch wire.Channel, f wire.TrainStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ledgerFor(ch).Observe(f.SeqNum) {
		return false
	}
	s.trains[f.Train] = TrainStatus{Color: f.Color, Movement: f.Movement, Pattern: f.Pattern}
	return true
}
