package transport

import (
	"sync"

	"github.com/corvale/chorus/internal/protocol"
)

const pipeBuffer = 64

// Pipe returns two connected in-process ends. Envelopes written to one end
// are received on the other, in order. Closing either end closes both.
func Pipe() (Conn, Conn) {
	ab := make(chan protocol.Envelope, pipeBuffer)
	ba := make(chan protocol.Envelope, pipeBuffer)
	done := make(chan struct{})
	once := &sync.Once{}
	a := &pipeConn{send: ab, recv: ba, done: done, once: once}
	b := &pipeConn{send: ba, recv: ab, done: done, once: once}
	return a, b
}

type pipeConn struct {
	send chan<- protocol.Envelope
	recv <-chan protocol.Envelope
	done chan struct{}
	once *sync.Once
}

func (c *pipeConn) Send(env protocol.Envelope) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- env:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *pipeConn) Receive() (protocol.Envelope, error) {
	// Drain buffered envelopes even after close so no message is lost.
	select {
	case env := <-c.recv:
		return env, nil
	default:
	}
	select {
	case env := <-c.recv:
		return env, nil
	case <-c.done:
		return protocol.Envelope{}, ErrClosed
	}
}

func (c *pipeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}
