// Package synth lowers a planner path into an ordered stream of wire-level
// commands: switch settings, leader-side reversals, and train pursue/stop
// commands, merging per-train streams for multi-train plans.
package synth

import (
	"github.com/eggybricks/trainctl/internal/color"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

// Command is the closed set of synthesized actions. SwitchCommand and
// PursueCommand/StopCommand cross the wire as a frame once the executor
// assigns a sequence number; ReverseCommand never does (it only flips the
// leader's tracked orientation for the affected train).
type Command interface {
	command()
}

// SwitchCommand sets one switch to a target position.
type SwitchCommand struct {
	Switch   track.SwitchID
	Position wire.SwitchPosition
}

func (SwitchCommand) command() {}

// ReverseCommand flips the leader's tracked orientation for Train. It never
// produces a wire frame; the following PursueCommand's Op reflects the new
// orientation.
type ReverseCommand struct {
	Train string
}

func (ReverseCommand) command() {}

// PursueCommand drives Train forward or backward until Pattern is detected.
type PursueCommand struct {
	Train   string
	Op      wire.TrainOp
	Pattern color.Pattern
}

func (PursueCommand) command() {}

// StopCommand halts Train immediately.
type StopCommand struct {
	Train string
}

func (StopCommand) command() {}

// Group is a contiguous batch of commands produced for a single step of a
// single train's path: any switch commands it requires, an optional
// reversal, and its pursue command(s). Groups carry a per-train step index
// so multi-train merge can interleave them while preserving each train's
// own ordering.
type Group struct {
	Train   string
	Index   int
	Commands []Command
}
