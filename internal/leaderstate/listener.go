package leaderstate

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/radio"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

// Listener continuously drains every switch-hub and train-hub status
// channel into a State for the lifetime of the leader process, with one
// draining goroutine per subscribed channel. It is the only writer of the
// switch and train maps; the executor reads them and draws command
// sequence numbers from the same State.
type Listener struct {
	state  *State
	radio  radio.Radio
	logger *logrus.Logger
}

// NewListener returns a Listener ready to Run.
func NewListener(state *State, r radio.Radio, logger *logrus.Logger) *Listener {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Listener{state: state, radio: r, logger: logger}
}

// Run subscribes to every status channel implied by t's switch ownership
// and the given train tags, and ingests frames until ctx is done.
func (l *Listener) Run(ctx context.Context, t *track.Track, trainChannels map[string]wire.Channel) {
	hubNums := make(map[int]bool)
	for _, hub := range t.SwitchOwner {
		hubNums[hub] = true
	}
	for hub := range hubNums {
		ch := wire.SwitchStatusChannel(hub)
		go l.drain(ctx, ch, l.handleSwitchStatus)
	}
	for _, ch := range trainChannels {
		go l.drain(ctx, ch, l.handleTrainStatus)
	}
	<-ctx.Done()
}

func (l *Listener) drain(ctx context.Context, ch wire.Channel, handle func(wire.Channel, []byte)) {
	sub := l.radio.Subscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			handle(ch, payload)
		}
	}
}

func (l *Listener) handleSwitchStatus(ch wire.Channel, payload []byte) {
	f, ok := wire.Decode(payload)
	if !ok {
		l.logger.WithField("channel", ch).Debug("leaderstate: dropping malformed switch status")
		return
	}
	status, ok := f.(wire.SwitchStatus)
	if !ok {
		return
	}
	if fresh := l.state.ApplySwitchStatus(ch, status); fresh {
		l.logger.WithFields(logrus.Fields{"channel": ch, "seq": status.SeqNum}).Debug("leaderstate: applied switch status")
	}
}

func (l *Listener) handleTrainStatus(ch wire.Channel, payload []byte) {
	f, ok := wire.Decode(payload)
	if !ok {
		l.logger.WithField("channel", ch).Debug("leaderstate: dropping malformed train status")
		return
	}
	status, ok := f.(wire.TrainStatus)
	if !ok {
		return
	}
	if fresh := l.state.ApplyTrainStatus(ch, status); fresh {
		l.logger.WithFields(logrus.Fields{"channel": ch, "seq": status.SeqNum, "train": status.Train}).Debug("leaderstate: applied train status")
	}
}
