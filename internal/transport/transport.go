// Package transport provides the bidirectional channel between a tab and
// the coordinator. Two implementations exist: an in-process pipe for
// single-process mode and tests, and a WebSocket adapter for talking to a
// coordinator daemon.
package transport

import (
	"errors"

	"github.com/corvale/chorus/internal/protocol"
)

// ErrClosed is returned by Send and Receive after either end has closed.
var ErrClosed = errors.New("transport: connection closed")

// Conn is one end of a bidirectional envelope channel. Send and Receive may
// be called from different goroutines; Close unblocks both.
type Conn interface {
	Send(protocol.Envelope) error
	Receive() (protocol.Envelope, error)
	Close() error
}
