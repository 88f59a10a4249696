package bridge

import (
	"errors"
	"sync"
)

// Transport moves raw envelopes across the boundary. Messages are delivered
// in send order within one direction.
type Transport interface {
	// Send writes one message. It never waits for the peer to read it.
	Send(data []byte) error
	// Messages yields inbound messages and is closed when the transport is.
	Messages() <-chan []byte
	Close() error
}

// ErrBackpressure is returned when a pipe's peer buffer is full. The message
// is dropped, consistent with the channel's no-delivery-guarantee contract.
var ErrBackpressure = errors.New("bridge: peer buffer full, message dropped")

// DefaultPipeBuffer is the per-direction capacity of NewPipe.
const DefaultPipeBuffer = 1024

type pipeEnd struct {
	in     chan []byte
	peer   *pipeEnd
	mu     *sync.RWMutex
	closed *bool
	once   *sync.Once
}

// NewPipe returns two connected in-process transports. Closing either end
// closes both.
func NewPipe(buffer int) (Transport, Transport) {
	if buffer <= 0 {
		buffer = DefaultPipeBuffer
	}
	var (
		mu     sync.RWMutex
		closed bool
		once   sync.Once
	)
	a := &pipeEnd{in: make(chan []byte, buffer), mu: &mu, closed: &closed, once: &once}
	b := &pipeEnd{in: make(chan []byte, buffer), mu: &mu, closed: &closed, once: &once}
	a.peer, b.peer = b, a
	return a, b
}

func (p *pipeEnd) Send(data []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if *p.closed {
		return ErrClosed
	}
	msg := append([]byte(nil), data...)
	select {
	case p.peer.in <- msg:
		return nil
	default:
		return ErrBackpressure
	}
}

func (p *pipeEnd) Messages() <-chan []byte { return p.in }

func (p *pipeEnd) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		*p.closed = true
		close(p.in)
		close(p.peer.in)
	})
	return nil
}
