// Package executor dispatches a synthesized command stream: broadcasting
// each frame, waiting for the leader's state to reflect confirmation, and
// applying the retry/timeout policy for switch and train movement commands.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/config"
	"github.com/eggybricks/trainctl/internal/leaderstate"
	"github.com/eggybricks/trainctl/internal/radio"
	"github.com/eggybricks/trainctl/internal/synth"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

const pollInterval = 100 * time.Millisecond

// Prompt asks the operator whether to continue after a command's retries
// or timeout are exhausted. true means continue with the next command.
type Prompt func(reason string) bool

// Executor sequentially dispatches synth.Commands and confirms each one
// against the leader's continuously-updated State.
type Executor struct {
	Radio   radio.Radio
	State   *leaderstate.State
	Track   *track.Track
	Prompt  Prompt
	Logger  *logrus.Logger
}

// New returns an Executor; a nil Prompt always continues past failures, and
// a nil Logger uses logrus's standard logger.
func New(r radio.Radio, state *leaderstate.State, t *track.Track, prompt Prompt, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if prompt == nil {
		prompt = func(string) bool { return true }
	}
	return &Executor{Radio: r, State: state, Track: t, Prompt: prompt, Logger: logger}
}

// Run dispatches every command in order. A ReverseCommand never produces a
// frame — synth has already baked the resulting orientation into the
// following PursueCommand's Op and pattern. Execution stops early if the
// operator declines to continue past a failure.
func (e *Executor) Run(ctx context.Context, cmds []synth.Command) error {
	for i, cmd := range cmds {
		var err error
		switch c := cmd.(type) {
		case synth.SwitchCommand:
			err = e.runSwitch(ctx, c)
		case synth.ReverseCommand:
			// Leader-side bookkeeping only; already folded into synth output.
			continue
		case synth.PursueCommand:
			err = e.runPursue(ctx, c)
		case synth.StopCommand:
			err = e.runStop(ctx, c)
		default:
			err = fmt.Errorf("executor: unknown command type %T", cmd)
		}
		if err != nil {
			e.Logger.WithError(err).WithField("step", i+1).Warn("executor: command failed")
			if !e.Prompt(err.Error()) {
				return fmt.Errorf("executor: aborted at step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func (e *Executor) runSwitch(ctx context.Context, cmd synth.SwitchCommand) error {
	if _, ok := e.Track.SwitchOwner[cmd.Switch]; !ok {
		return fmt.Errorf("executor: %s has no owning hub", cmd.Switch)
	}

	var lastErr error
	for attempt := 0; attempt <= config.SwitchCommandRetries; attempt++ {
		if attempt > 0 {
			e.Logger.WithField("switch", cmd.Switch).WithField("attempt", attempt+1).Info("executor: retrying switch command")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.SwitchCommandPause):
			}
		}

		seq := e.State.NextSeq()
		frame := wire.SwitchCommand{SeqNum: seq, Switch: string(cmd.Switch), Position: cmd.Position}
		if err := e.Radio.Broadcast(ctx, wire.CommandChannel, wire.Encode(frame)); err != nil {
			lastErr = err
			continue
		}

		if e.waitForSwitch(ctx, cmd.Switch, cmd.Position, config.SwitchCommandTimeout) {
			return nil
		}
		lastErr = fmt.Errorf("executor: %s did not confirm %s within %s", cmd.Switch, cmd.Position, config.SwitchCommandTimeout)
	}
	return lastErr
}

func (e *Executor) waitForSwitch(ctx context.Context, sw track.SwitchID, want wire.SwitchPosition, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if pos, ok := e.State.SwitchPosition(sw); ok && pos == want {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}

func (e *Executor) runPursue(ctx context.Context, cmd synth.PursueCommand) error {
	seq := e.State.NextSeq()
	frame := wire.TrainPursueCommand{SeqNum: seq, Train: cmd.Train, Op: cmd.Op, Pattern: cmd.Pattern}
	if err := e.Radio.Broadcast(ctx, wire.CommandChannel, wire.Encode(frame)); err != nil {
		return err
	}

	if e.waitForStopped(ctx, cmd.Train, config.TrainCommandTimeout) {
		return nil
	}
	return fmt.Errorf("executor: %s did not report STOPPED within %s", cmd.Train, config.TrainCommandTimeout)
}

func (e *Executor) runStop(ctx context.Context, cmd synth.StopCommand) error {
	seq := e.State.NextSeq()
	frame := wire.TrainStopCommand{SeqNum: seq, Train: cmd.Train}
	return e.Radio.Broadcast(ctx, wire.CommandChannel, wire.Encode(frame))
}

func (e *Executor) waitForStopped(ctx context.Context, train string, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if st, ok := e.State.Train(train); ok && st.Movement == wire.MovementStopped {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}
