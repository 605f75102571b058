package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/wire"
)

// ErrHubStopped is returned when a hub's Run loop has already exited.
var ErrHubStopped = errors.New("hub stopped")

// Member is a single connection registered with a room hub. The hub writes
// encoded server frames to Send and closes it on unregistration.
type Member struct {
	ID       string
	Username string
	// Send is a buffered channel of outbound frames. The hub writes to it and
	// the connection's write pump drains it.
	Send chan []byte
}

// NewMember creates a member with a send buffer of the given size.
func NewMember(id, username string, buffer int) *Member {
	return &Member{ID: id, Username: username, Send: make(chan []byte, buffer)}
}

// Hub owns the membership of one room and fans chat events out to it.
// All membership changes go through the Run loop.
type Hub struct {
	room    string
	members map[*Member]bool

	register   chan *Member
	unregister chan *Member
	broadcast  chan domain.ChatEvent
	done       chan struct{}

	occupancy atomic.Int64
	now       func() time.Time
	log       *slog.Logger
}

// New creates a hub for room. Run must be started before members register.
func New(room string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		room:       room,
		members:    make(map[*Member]bool),
		register:   make(chan *Member),
		unregister: make(chan *Member),
		broadcast:  make(chan domain.ChatEvent, 64),
		done:       make(chan struct{}),
		now:        time.Now,
		log:        logger.With("room", room),
	}
}

// Room returns the room name.
func (h *Hub) Room() string { return h.room }

// Occupancy returns the number of registered members.
func (h *Hub) Occupancy() int { return int(h.occupancy.Load()) }

// Register adds m to the room. Every member, m included, then receives a
// join event carrying the new occupancy.
func (h *Hub) Register(ctx context.Context, m *Member) error {
	return send(ctx, h.done, h.register, m)
}

// Unregister removes m from the room and closes its Send channel. Remaining
// members receive a leave event.
func (h *Hub) Unregister(ctx context.Context, m *Member) error {
	return send(ctx, h.done, h.unregister, m)
}

// Broadcast queues ev for delivery to every member. Message events are
// stamped with the current occupancy.
func (h *Hub) Broadcast(ctx context.Context, ev domain.ChatEvent) error {
	return send(ctx, h.done, h.broadcast, ev)
}

func send[T any](ctx context.Context, done <-chan struct{}, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes membership changes and broadcasts until ctx is cancelled.
// On exit every remaining member's Send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for m := range h.members {
			close(m.Send)
			delete(h.members, m)
		}
		h.occupancy.Store(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case m := <-h.register:
			h.members[m] = true
			h.occupancy.Store(int64(len(h.members)))
			h.log.Info("Member joined", "member_id", m.ID, "username", m.Username, "total_members", len(h.members))
			h.fanOut(domain.ChatEvent{Kind: domain.KindJoin, Username: m.Username, Timestamp: h.now()})

		case m := <-h.unregister:
			if !h.members[m] {
				continue
			}
			delete(h.members, m)
			close(m.Send)
			h.occupancy.Store(int64(len(h.members)))
			h.log.Info("Member left", "member_id", m.ID, "username", m.Username, "total_members", len(h.members))
			h.fanOut(domain.ChatEvent{Kind: domain.KindLeave, Username: m.Username, Timestamp: h.now()})

		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

// fanOut stamps ev with the occupancy, encodes it once and delivers it with a
// non-blocking send. A member whose buffer is full is dropped.
func (h *Hub) fanOut(ev domain.ChatEvent) {
	if ev.Kind != domain.KindSystem {
		n := len(h.members)
		ev.UserCount = &n
	}
	frame, err := wire.EncodeInbound(ev)
	if err != nil {
		h.log.Error("Failed to encode chat event", "kind", ev.Kind, "error", err)
		return
	}

	h.log.Debug("Broadcasting event", "kind", ev.Kind, "recipient_count", len(h.members))
	for m := range h.members {
		select {
		case m.Send <- frame:
		default:
			close(m.Send)
			delete(h.members, m)
			h.occupancy.Store(int64(len(h.members)))
			h.log.Warn("Dropping slow member", "member_id", m.ID, "total_members", len(h.members))
		}
	}
}
