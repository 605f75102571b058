package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nfrund/gobychat/internal/domain"
)

// conn is what a driver provides once the handshake succeeded.
type conn interface {
	// Read returns the next text frame. A normal closure by the peer is
	// reported as io.EOF.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Close performs the closing handshake.
	Close(reason string) error
	// CloseNow drops the connection without a handshake.
	CloseNow() error
}

type dialFunc func(ctx context.Context, url string) (conn, error)

// attempt is one Open call. A socket replaces its attempt on every Open and
// drops it on Close.
type attempt struct {
	ctx    context.Context
	cancel context.CancelFunc
	// done is closed when the owner abandons the attempt; no event is
	// delivered after that.
	done chan struct{}
	send chan []byte

	// Guarded by socket.mu.
	conn conn
	open bool
}

func (a *attempt) abandoned() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

type socket struct {
	id     uint64
	dial   dialFunc
	events chan<- Event
	log    *slog.Logger

	mu  sync.Mutex
	cur *attempt
}

func newSocket(id uint64, events chan<- Event, dial dialFunc, logger *slog.Logger) *socket {
	return &socket{
		id:     id,
		dial:   dial,
		events: events,
		log:    logger.With("socket", id),
	}
}

func (s *socket) ID() uint64 { return s.id }

func (s *socket) Open(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		s.closeLocked("reopening")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &attempt{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		send:   make(chan []byte, sendBuffer),
	}
	s.cur = a
	go s.run(a, url)
}

func (s *socket) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.cur
	if a == nil || !a.open {
		return ErrNotOpen
	}
	select {
	case a.send <- payload:
		return nil
	default:
		s.log.Warn("Socket send buffer full, dropping message", "size", len(payload))
		return ErrSendBufferFull
	}
}

func (s *socket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked("client disconnect")
}

func (s *socket) closeLocked(reason string) {
	a := s.cur
	if a == nil {
		return
	}
	s.cur = nil
	a.open = false
	close(a.done)

	c := a.conn
	if c == nil {
		// Still dialing: cancelling aborts the handshake.
		a.cancel()
		return
	}
	go func() {
		if err := c.Close(reason); err != nil {
			s.log.Debug("Closing handshake did not complete", "error", err)
		}
		a.cancel()
	}()
}

func (s *socket) run(a *attempt, url string) {
	dialCtx, cancel := context.WithTimeout(a.ctx, dialTimeout)
	c, err := s.dial(dialCtx, url)
	cancel()
	if err != nil {
		s.emit(a, Event{Kind: EventError, Err: fmt.Errorf("%w: dial: %v", domain.ErrTransport, err)})
		s.emit(a, Event{Kind: EventClosed})
		return
	}

	s.mu.Lock()
	if s.cur != a {
		// Superseded while the handshake was in flight.
		s.mu.Unlock()
		_ = c.CloseNow()
		return
	}
	a.conn = c
	a.open = true
	s.mu.Unlock()

	s.log.Debug("WebSocket connected", "url", url)
	s.emit(a, Event{Kind: EventOpened})

	go s.writePump(a, c)
	s.readPump(a, c)
}

// readPump delivers frames in the order the connection produced them.
func (s *socket) readPump(a *attempt, c conn) {
	defer func() {
		s.mu.Lock()
		a.open = false
		s.mu.Unlock()
		a.cancel()
		_ = c.CloseNow()
	}()

	for {
		data, err := c.Read(a.ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !a.abandoned() {
				s.log.Error("WebSocket read error", "error", err)
				s.emit(a, Event{Kind: EventError, Err: fmt.Errorf("%w: read: %v", domain.ErrTransport, err)})
			}
			s.emit(a, Event{Kind: EventClosed})
			return
		}
		s.emit(a, Event{Kind: EventMessage, Data: data})
	}
}

func (s *socket) writePump(a *attempt, c conn) {
	for {
		select {
		case payload := <-a.send:
			ctx, cancel := context.WithTimeout(a.ctx, writeWait)
			err := c.Write(ctx, payload)
			cancel()
			if err != nil {
				if !a.abandoned() {
					s.log.Error("WebSocket write error", "error", err)
				}
				return
			}
		case <-a.ctx.Done():
			return
		}
	}
}

func (s *socket) emit(a *attempt, ev Event) {
	ev.Source = s.id
	if a.abandoned() {
		return
	}
	select {
	case s.events <- ev:
	case <-a.done:
	}
}
