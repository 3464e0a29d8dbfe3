// Package switchhub implements the switch-controller follower: it owns a
// set of physical switches, drives their motors on command, and broadcasts
// a full position snapshot after every move.
package switchhub

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/config"
	"github.com/eggybricks/trainctl/internal/dedup"
	"github.com/eggybricks/trainctl/internal/radio"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

// MotorDriver abstracts one switch's physical actuator: drive at a signed
// power level, then brake. The sign of power encodes direction; callers
// never drive without a following brake.
type MotorDriver interface {
	Drive(power int) error
	Brake() error
}

// SwitchSpec is one switch's static wiring: which motor drives it, the
// polarity sign applied to config.MotorPower, and its move-time constant
// (M-motors and L-motors settle at different rates).
type SwitchSpec struct {
	ID       track.SwitchID
	Motor    MotorDriver
	Polarity int // +1 or -1
	MoveTime time.Duration
}

// Hub drives every switch owned by one follower process.
type Hub struct {
	HubNumber int
	Radio     radio.Radio
	Logger    *logrus.Logger

	switches  map[track.SwitchID]SwitchSpec
	positions map[track.SwitchID]wire.SwitchPosition
	ledger    *dedup.Ledger
	statusSeq uint32
}

// New returns a Hub owning specs, ready to Boot and Run.
func New(hubNumber int, r radio.Radio, specs []SwitchSpec, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Hub{
		HubNumber: hubNumber,
		Radio:     r,
		Logger:    logger,
		switches:  make(map[track.SwitchID]SwitchSpec, len(specs)),
		positions: make(map[track.SwitchID]wire.SwitchPosition, len(specs)),
		ledger:    dedup.New(dedup.DefaultCapacity),
	}
	for _, s := range specs {
		h.switches[s.ID] = s
	}
	return h
}

// Boot drives every owned switch to STRAIGHT and broadcasts the resulting
// snapshot, matching a follower's boot contract.
func (h *Hub) Boot(ctx context.Context) error {
	for id := range h.switches {
		if err := h.move(id, wire.Straight); err != nil {
			return err
		}
	}
	return h.broadcastStatus(ctx)
}

// Run processes command frames until ctx is done. Each command is driven
// to completion (actuator move, position update, status broadcast) before
// the next is considered, so the hub never overlaps two switch moves.
func (h *Hub) Run(ctx context.Context) error {
	sub := h.Radio.Subscribe(wire.CommandChannel)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-sub:
			if !ok {
				return nil
			}
			h.handle(ctx, payload)
		}
	}
}

func (h *Hub) handle(ctx context.Context, payload []byte) {
	f, ok := wire.Decode(payload)
	if !ok {
		return
	}
	cmd, ok := f.(wire.SwitchCommand)
	if !ok {
		return
	}

	id := track.SwitchID(cmd.Switch)
	if _, owned := h.switches[id]; !owned {
		return
	}
	if !h.ledger.Observe(cmd.SeqNum) {
		return
	}

	if err := h.move(id, cmd.Position); err != nil {
		h.Logger.WithError(err).WithField("switch", id).Warn("switchhub: drive failed")
		return
	}
	if err := h.broadcastStatus(ctx); err != nil {
		h.Logger.WithError(err).Warn("switchhub: status broadcast failed")
	}
}

func (h *Hub) move(id track.SwitchID, target wire.SwitchPosition) error {
	spec := h.switches[id]
	power := config.MotorPower * spec.Polarity
	if target == wire.Straight {
		power = -power
	}
	if err := spec.Motor.Drive(power); err != nil {
		return err
	}
	time.Sleep(spec.MoveTime)
	if err := spec.Motor.Brake(); err != nil {
		return err
	}
	h.positions[id] = target
	return nil
}

func (h *Hub) broadcastStatus(ctx context.Context) error {
	h.statusSeq++
	positions := make(map[string]wire.SwitchPosition, len(h.positions))
	for id, pos := range h.positions {
		positions[string(id)] = pos
	}
	frame := wire.SwitchStatus{SeqNum: h.statusSeq, Positions: positions}
	ch := wire.SwitchStatusChannel(h.HubNumber)
	return h.Radio.Broadcast(ctx, ch, wire.Encode(frame))
}
