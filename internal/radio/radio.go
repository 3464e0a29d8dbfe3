// Package radio abstracts the lossy, connectionless, broadcast-oriented
// medium. Planner, executor, and
// follower code depend only on this interface; concrete transports live in
// the udp and memradio subpackages.
package radio

import (
	"context"

	"github.com/eggybricks/trainctl/internal/wire"
)

// Radio is the broadcast medium. A single writer transmits a value on a
// channel; any number of readers subscribed to that channel may observe it,
// and delivery is best-effort (a reader may miss a message).
type Radio interface {
	// Broadcast transmits payload on ch. It does not block on readers.
	Broadcast(ctx context.Context, ch wire.Channel, payload []byte) error

	// Subscribe returns a channel of raw payloads received on ch. The
	// returned channel is closed when the Radio is closed.
	Subscribe(ch wire.Channel) <-chan []byte

	// Close releases any resources (sockets, goroutines) held by the Radio.
	Close() error
}
