package hub

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/wire"
)

// Bus is the message bus rooms publish chat traffic on.
type Bus interface {
	pubsub.Publisher
	pubsub.Subscriber
}

// Registry creates room hubs on demand and connects each one to its bus
// topic. Hubs live until the registry's context is cancelled.
type Registry struct {
	ctx context.Context
	bus Bus
	log *slog.Logger

	mu   sync.Mutex
	hubs map[string]*Hub
}

// NewRegistry returns an empty registry whose hubs run under ctx.
func NewRegistry(ctx context.Context, bus Bus, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		ctx:  ctx,
		bus:  bus,
		log:  logger,
		hubs: make(map[string]*Hub),
	}
}

// Seed creates the hubs for rooms so they are listed before anyone joins.
func (r *Registry) Seed(rooms ...string) error {
	for _, room := range rooms {
		if _, err := r.Hub(room); err != nil {
			return err
		}
	}
	return nil
}

// Hub returns the hub for room, creating, starting and subscribing it on
// first use.
func (r *Registry) Hub(room string) (*Hub, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.hubs[room]; ok {
		return h, nil
	}

	h := New(room, r.log)
	go h.Run(r.ctx)

	topic := pubsub.RoomTopic(room)
	err := r.bus.Subscribe(r.ctx, topic, func(ctx context.Context, msg pubsub.Message) error {
		ev, err := wire.DecodeInbound(msg.Payload)
		if err != nil {
			return err
		}
		return h.Broadcast(ctx, ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	r.hubs[room] = h
	r.log.Info("Room created", "room", room, "topic", topic)
	return h, nil
}

// Publish puts ev on the room's topic. The room's hub delivers it to members
// once the bus hands it back.
func (r *Registry) Publish(ctx context.Context, room, userID string, ev domain.ChatEvent) error {
	payload, err := wire.EncodeInbound(ev)
	if err != nil {
		return err
	}
	return r.bus.Publish(ctx, pubsub.Message{
		Topic:   pubsub.RoomTopic(room),
		UserID:  userID,
		Payload: payload,
	})
}

// Rooms lists the known room names in sorted order.
func (r *Registry) Rooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]string, 0, len(r.hubs))
	for room := range r.hubs {
		rooms = append(rooms, room)
	}
	slices.Sort(rooms)
	return rooms
}

// Occupancy reports the member count of every known room.
func (r *Registry) Occupancy() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int, len(r.hubs))
	for room, h := range r.hubs {
		out[room] = h.Occupancy()
	}
	return out
}
