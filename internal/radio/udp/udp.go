// Package udp implements radio.Radio over real OS UDP broadcast sockets,
// for running the leader and follower processes as separate OS processes
// (possibly on separate machines on the same broadcast domain). UDP is a
// natural fit for the lossy, connectionless, broadcast-oriented medium this
// system relies on: packets may be dropped or arrive out of order, and
// there is no connection state to maintain.
package udp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/wire"
)

// Radio multiplexes one logical broadcast channel per UDP port, computed
// as BasePort + int(channel). Every node listens on every channel it
// subscribes to and broadcasts to BroadcastAddr on the sender's channel
// port.
type Radio struct {
	basePort      int
	broadcastAddr string
	logger        *logrus.Logger

	sendConn *net.UDPConn

	mu     sync.Mutex
	listen map[wire.Channel]*channelListener
	closed bool
}

type channelListener struct {
	conn *net.UDPConn
	subs []chan []byte
	mu   sync.Mutex
}

// Config configures a udp.Radio.
type Config struct {
	// BasePort is added to a channel number to compute its UDP port.
	BasePort int
	// BroadcastAddr is the destination address for Broadcast, e.g.
	// "255.255.255.255" or a subnet-specific broadcast address.
	BroadcastAddr string
	Logger        *logrus.Logger
}

// New opens the shared send socket and returns a ready-to-use Radio.
// Per-channel listen sockets are opened lazily on first Subscribe.
func New(cfg Config) (*Radio, error) {
	if cfg.BasePort == 0 {
		cfg.BasePort = 30000
	}
	if cfg.BroadcastAddr == "" {
		cfg.BroadcastAddr = "255.255.255.255"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, fmt.Errorf("udp radio: open send socket: %w", err)
	}
	pc, err := newBroadcastConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Radio{
		basePort:      cfg.BasePort,
		broadcastAddr: cfg.BroadcastAddr,
		logger:        cfg.Logger,
		sendConn:      pc,
		listen:        make(map[wire.Channel]*channelListener),
	}, nil
}

func (r *Radio) port(ch wire.Channel) int {
	return r.basePort + int(ch)
}

// Broadcast sends payload as a single UDP datagram to the channel's port.
// Errors are possible (e.g. a too-large datagram) but message loss on the
// wire itself is silent by design, matching the medium's contract.
func (r *Radio) Broadcast(ctx context.Context, ch wire.Channel, payload []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dst := &net.UDPAddr{IP: net.ParseIP(r.broadcastAddr), Port: r.port(ch)}
	_, err := r.sendConn.WriteToUDP(payload, dst)
	if err != nil {
		r.logger.WithError(err).WithField("channel", ch).Debug("udp radio: broadcast failed")
	}
	return err
}

// Subscribe opens (once per channel) a listen socket on the channel's port
// and returns a buffered channel of received payloads.
func (r *Radio) Subscribe(ch wire.Channel) <-chan []byte {
	out := make(chan []byte, 16)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(out)
		return out
	}

	cl, ok := r.listen[ch]
	if !ok {
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: r.port(ch)})
		if err != nil {
			r.logger.WithError(err).WithField("channel", ch).Warn("udp radio: failed to listen on channel")
			close(out)
			return out
		}
		cl = &channelListener{conn: conn}
		r.listen[ch] = cl
		go r.readLoop(ch, cl)
	}
	cl.mu.Lock()
	cl.subs = append(cl.subs, out)
	cl.mu.Unlock()
	return out
}

func (r *Radio) readLoop(ch wire.Channel, cl *channelListener) {
	buf := make([]byte, 2048)
	for {
		n, _, err := cl.conn.ReadFromUDP(buf)
		if err != nil {
			return // socket closed
		}
		payload := append([]byte(nil), buf[:n]...)

		cl.mu.Lock()
		subs := append([]chan []byte(nil), cl.subs...)
		cl.mu.Unlock()

		for _, sub := range subs {
			select {
			case sub <- payload:
			default:
				r.logger.WithField("channel", ch).Trace("udp radio: subscriber buffer full, dropping")
			}
		}
	}
}

// Close closes every socket opened by this Radio.
func (r *Radio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.sendConn.Close()
	for _, cl := range r.listen {
		cl.conn.Close()
		cl.mu.Lock()
		for _, sub := range cl.subs {
			close(sub)
		}
		cl.mu.Unlock()
	}
	return nil
}
