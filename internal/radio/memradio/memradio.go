// Package memradio implements an in-process radio.Radio for tests and
// single-host demos: a fan-out bus generalized from a single message type
// to per-channel multiplexed byte payloads, with a configurable drop
// probability (drawn from a fixed-seed generator) to model the lossy
// medium. Which broadcast is lost is not selectable.
package memradio

import (
	"context"
	"math/rand"
	"sync"

	"github.com/eggybricks/trainctl/internal/wire"
)

// Radio is a concurrency-safe, in-process implementation of radio.Radio.
type Radio struct {
	mu          sync.RWMutex
	subscribers map[wire.Channel][]chan []byte
	closed      bool

	// dropProbability is the chance, in [0,1), that a given Broadcast is
	// lost entirely (delivered to no subscriber), modeling the lossy
	// medium. Zero by default.
	dropProbability float64
	rng             *rand.Rand
}

// New returns a ready-to-use Radio with no message loss.
func New() *Radio {
	return &Radio{
		subscribers: make(map[wire.Channel][]chan []byte),
		rng:         rand.New(rand.NewSource(1)),
	}
}

// WithDropProbability configures simulated message loss, returning r for
// chaining. p must be in [0, 1).
func (r *Radio) WithDropProbability(p float64) *Radio {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropProbability = p
	return r
}

// Broadcast delivers payload to every current subscriber of ch, unless the
// configured drop probability elects to lose the message. Delivery to each
// subscriber is non-blocking; a subscriber whose buffer is full is dropped
// to keep the broadcaster from stalling.
func (r *Radio) Broadcast(ctx context.Context, ch wire.Channel, payload []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil
	}
	drop := r.dropProbability > 0 && r.rng.Float64() < r.dropProbability
	subs := append([]chan []byte(nil), r.subscribers[ch]...)
	r.mu.RUnlock()

	if drop {
		return nil
	}

	buf := append([]byte(nil), payload...)
	for _, sub := range subs {
		select {
		case sub <- buf:
		default:
			go r.dropSubscriber(ch, sub)
		}
	}
	return nil
}

// Subscribe returns a buffered channel of payloads received on ch.
func (r *Radio) Subscribe(ch wire.Channel) <-chan []byte {
	c := make(chan []byte, 16)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(c)
		return c
	}
	r.subscribers[ch] = append(r.subscribers[ch], c)
	return c
}

func (r *Radio) dropSubscriber(ch wire.Channel, target chan []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subscribers[ch]
	for i, c := range subs {
		if c == target {
			subs[i] = subs[len(subs)-1]
			r.subscribers[ch] = subs[:len(subs)-1]
			close(c)
			return
		}
	}
}

// Close shuts down the Radio and closes every subscriber channel.
func (r *Radio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for _, subs := range r.subscribers {
		for _, c := range subs {
			close(c)
		}
	}
	r.subscribers = nil
	return nil
}
