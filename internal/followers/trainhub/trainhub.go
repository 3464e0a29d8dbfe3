// Package trainhub implements the train-controller follower: a state
// machine that drives a train forward or backward until a target color
// pattern is detected, broadcasting status on arrival and periodically
// while pursuing.
package trainhub

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/color"
	"github.com/eggybricks/trainctl/internal/config"
	"github.com/eggybricks/trainctl/internal/dedup"
	"github.com/eggybricks/trainctl/internal/radio"
	"github.com/eggybricks/trainctl/internal/wire"
)

// Motor abstracts the train's drive motor: signed power, and brake.
type Motor interface {
	Drive(power int) error
	Brake() error
}

// ColorSensor reports the logical color currently under the sensor and its
// distance to the nearest surface. Calibration from raw HSV readings to a
// logical color.Color happens entirely inside the concrete implementation;
// this package only ever sees the calibrated result.
type ColorSensor interface {
	Color() color.Color
	Distance() float64
}

type hubState int

const (
	stateIdle hubState = iota
	statePursuing
)

// Hub is one train's follower state machine.
type Hub struct {
	Train     string
	Motor     Motor
	Sensor    ColorSensor
	Radio     radio.Radio
	Channel   wire.Channel // this train's status channel
	MinRepeats int
	Speed     int // motor power magnitude, percent
	Logger    *logrus.Logger

	ledger    *dedup.Ledger
	statusSeq uint32
}

// New returns a Hub ready to Run.
func New(train string, motor Motor, sensor ColorSensor, r radio.Radio, ch wire.Channel, speed int, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	minRepeats := config.DefaultMinRepeats
	return &Hub{
		Train: train, Motor: motor, Sensor: sensor, Radio: r, Channel: ch,
		MinRepeats: minRepeats, Speed: speed, Logger: logger,
		ledger: dedup.New(dedup.DefaultCapacity),
	}
}

// Run listens for commands until ctx is done, running the IDLE/PURSUING
// state machine described by the follower's command contract.
func (h *Hub) Run(ctx context.Context) error {
	sub := h.Radio.Subscribe(wire.CommandChannel)
	state := stateIdle

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-sub:
			if !ok {
				return nil
			}
			newState := h.handleIdle(ctx, payload, state, sub)
			state = newState
		}
	}
}

// handleIdle processes one command frame while IDLE. A pursue command
// drives pursue() to completion (which itself continues consuming sub for
// preemption) and returns to IDLE; a STOP brakes and broadcasts a STOPPED
// status; an unrelated command is a no-op.
func (h *Hub) handleIdle(ctx context.Context, payload []byte, state hubState, sub <-chan []byte) hubState {
	cmd, ok := h.decodeForTrain(payload)
	if !ok {
		return state
	}
	switch c := cmd.(type) {
	case wire.TrainStopCommand:
		h.Motor.Brake()
		h.broadcast(ctx, color.NONE, wire.MovementStopped, nil)
		return stateIdle
	case wire.TrainPursueCommand:
		h.pursue(ctx, c, sub)
		return stateIdle
	}
	return state
}

// decodeForTrain decodes payload and applies the device-targeting and
// dedup checks shared by every command kind.
func (h *Hub) decodeForTrain(payload []byte) (wire.Frame, bool) {
	f, ok := wire.Decode(payload)
	if !ok {
		return nil, false
	}
	var train string
	var seq uint32
	switch c := f.(type) {
	case wire.TrainStopCommand:
		train, seq = c.Train, c.SeqNum
	case wire.TrainPursueCommand:
		train, seq = c.Train, c.SeqNum
	default:
		return nil, false
	}
	if train != h.Train {
		return nil, false
	}
	if !h.ledger.Observe(seq) {
		return nil, false
	}
	return f, true
}

// pursue drives the motor until cmd.Pattern is detected or a preempting
// command arrives on sub, handling both outcomes.
func (h *Hub) pursue(ctx context.Context, cmd wire.TrainPursueCommand, sub <-chan []byte) {
	direction := 1
	movement := wire.MovementForward
	if cmd.Op == wire.OpBackwardUntilPattern {
		direction = -1
		movement = wire.MovementBackward
	}

	h.Motor.Drive(direction * h.Speed)
	h.broadcast(ctx, color.NONE, movement, cmd.Pattern)

	ring := make([]color.Color, 0, len(cmd.Pattern)*config.RingBufferFactor)
	pollTicker := time.NewTicker(config.TrainSensorPollInterval)
	defer pollTicker.Stop()
	heartbeat := time.NewTicker(config.TrainHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Motor.Brake()
			return

		case payload, ok := <-sub:
			if !ok {
				h.Motor.Brake()
				return
			}
			next, ok := h.decodeForTrain(payload)
			if !ok {
				continue
			}
			switch c := next.(type) {
			case wire.TrainStopCommand:
				h.Motor.Brake()
				h.broadcast(ctx, h.Sensor.Color(), wire.MovementStopped, nil)
				return
			case wire.TrainPursueCommand:
				h.Motor.Brake()
				h.pursue(ctx, c, sub)
				return
			}

		case <-heartbeat.C:
			h.broadcast(ctx, h.Sensor.Color(), movement, cmd.Pattern)

		case <-pollTicker.C:
			if h.Sensor.Distance() > config.SensorDistanceThreshold {
				continue
			}
			c := h.Sensor.Color()
			if !color.IsPatternColor(c) {
				continue
			}
			ring = append(ring, c)
			if len(ring) > len(cmd.Pattern)*config.RingBufferFactor {
				ring = ring[1:]
			}

			stable := Consolidate(ring, h.MinRepeats)
			if len(stable) >= len(cmd.Pattern) {
				tail := stable[len(stable)-len(cmd.Pattern):]
				if color.Pattern(tail).Equal(cmd.Pattern) {
					h.Motor.Brake()
					h.broadcast(ctx, c, wire.MovementStopped, cmd.Pattern)
					return
				}
			}
		}
	}
}

func (h *Hub) broadcast(ctx context.Context, current color.Color, movement wire.Movement, pattern color.Pattern) {
	h.statusSeq++
	frame := wire.TrainStatus{SeqNum: h.statusSeq, Train: h.Train, Color: current, Movement: movement, Pattern: pattern}
	if err := h.Radio.Broadcast(ctx, h.Channel, wire.Encode(frame)); err != nil {
		h.Logger.WithError(err).WithField("train", h.Train).Debug("trainhub: status broadcast failed")
	}
}

// Consolidate groups consecutive equal readings into runs, keeps only runs
// of at least minRepeats, and collapses adjacent duplicates in the
// resulting sequence.
func Consolidate(history []color.Color, minRepeats int) []color.Color {
	if len(history) == 0 {
		return nil
	}

	type run struct {
		c     color.Color
		count int
	}
	var runs []run
	current := run{c: history[0], count: 1}
	for _, c := range history[1:] {
		if c == current.c {
			current.count++
		} else {
			runs = append(runs, current)
			current = run{c: c, count: 1}
		}
	}
	runs = append(runs, current)

	var stable []color.Color
	for _, r := range runs {
		if r.count < minRepeats {
			continue
		}
		if len(stable) == 0 || stable[len(stable)-1] != r.c {
			stable = append(stable, r.c)
		}
	}
	return stable
}
