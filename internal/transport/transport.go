// Package transport owns the client side of the chat WebSocket connection.
//
// A Socket wraps at most one live connection. It never reports state through
// return values; every transition is delivered as an Event on the channel
// the owner handed to the Dialer, tagged with the socket's instance ID so the
// owner can discard events from sockets it has already replaced.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// EventKind identifies a socket lifecycle transition.
type EventKind int

const (
	EventOpened EventKind = iota + 1
	EventMessage
	EventClosed
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventMessage:
		return "message"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a tagged transition emitted by a Socket.
type Event struct {
	// Source is the ID of the socket that produced the event.
	Source uint64
	Kind   EventKind
	// Data is the raw frame for EventMessage.
	Data []byte
	// Err is set for EventError and wraps domain.ErrTransport.
	Err error
}

// Socket is a single client connection.
type Socket interface {
	// ID returns the instance tag carried by every event of this socket.
	ID() uint64
	// Open closes any current connection and starts dialing url in the
	// background.
	Open(url string)
	// Send queues payload for writing. It returns ErrNotOpen when the
	// connection is not open and nothing is sent.
	Send(payload []byte) error
	// Close requests closure. It is idempotent and does not block.
	Close()
}

// Dialer creates sockets bound to an owner's event channel.
type Dialer interface {
	NewSocket(id uint64, events chan<- Event) Socket
}

var (
	ErrNotOpen        = errors.New("socket is not open")
	ErrSendBufferFull = errors.New("socket send buffer full")
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed for the opening handshake.
	dialTimeout = 15 * time.Second
	// Maximum frame size accepted from the server.
	maxMessageSize = 64 * 1024
	// Outbound frames queued per socket before Send starts dropping.
	sendBuffer = 256
)

// Driver names accepted by NewDialer.
const (
	DriverCoder   = "coder"
	DriverGorilla = "gorilla"
)

// NewDialer returns the dialer for the named driver.
func NewDialer(driver string, logger *slog.Logger) (Dialer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch driver {
	case "", DriverCoder:
		return &CoderDialer{Logger: logger}, nil
	case DriverGorilla:
		return &GorillaDialer{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown websocket driver %q", driver)
	}
}
