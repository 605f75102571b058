// Package session implements the client chat session: one live connection,
// the state machine driven by its events, and the history of the active room.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/store"
	"github.com/nfrund/gobychat/internal/transport"
	"github.com/nfrund/gobychat/internal/wire"
)

// Directory looks up the rooms known to the server.
type Directory interface {
	FetchRooms(ctx context.Context) ([]string, error)
}

// Options configures a Manager.
type Options struct {
	// Host is the chat server's host:port.
	Host string
	// Secure selects wss:// instead of ws://.
	Secure bool
	Logger *slog.Logger
	// EventBuffer is the capacity of the socket event channel.
	EventBuffer int
	// Clock stamps outbound messages. Defaults to time.Now.
	Clock func() time.Time
}

// Snapshot is a consistent read of the whole session.
type Snapshot struct {
	Identity    domain.Identity
	Status      domain.Status
	Messages    []domain.ChatEvent
	UserCount   int
	Rooms       []string
	CurrentRoom string
}

// Manager owns the session state and the single active socket. All
// operations and socket events are serialized on one mutex; Run is the only
// goroutine that dispatches socket events.
type Manager struct {
	dialer    transport.Dialer
	directory Directory
	host      string
	secure    bool
	now       func() time.Time
	log       *slog.Logger

	events   chan transport.Event
	messages *store.MessageStore

	mu          sync.Mutex
	identity    domain.Identity
	status      domain.Status
	userCount   int
	currentRoom string
	rooms       []string
	socket      transport.Socket
	lastID      uint64
	subs        map[int]chan Notification
	nextSub     int
}

// NewManager creates a disconnected session. Call Run to start processing
// socket events.
func NewManager(dialer transport.Dialer, directory Directory, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Manager{
		dialer:    dialer,
		directory: directory,
		host:      opts.Host,
		secure:    opts.Secure,
		now:       opts.Clock,
		log:       opts.Logger,
		events:    make(chan transport.Event, opts.EventBuffer),
		messages:  store.New(),
		status:    domain.StatusDisconnected,
		rooms:     []string{},
		subs:      make(map[int]chan Notification),
	}
}

// Run dispatches socket events until ctx is cancelled, then tears the
// session down.
func (m *Manager) Run(ctx context.Context) {
	m.log.Info("Session event loop started")
	for {
		select {
		case ev := <-m.events:
			m.dispatch(ev)
		case <-ctx.Done():
			m.Disconnect()
			m.log.Info("Session event loop stopped")
			return
		}
	}
}

// Connect opens a session for username in room, replacing any previous
// connection and discarding its history.
func (m *Manager) Connect(username, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectLocked(domain.Identity{Username: username, Room: room})
}

// ChangeRoom moves the session to newRoom. It does nothing when newRoom is
// already the active room of a connected session.
func (m *Manager) ChangeRoom(username, newRoom string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == domain.StatusConnected && newRoom == m.currentRoom {
		m.log.Debug("Already in room, ignoring room change", "room", newRoom)
		return
	}
	m.log.Info("Changing room", "from", m.currentRoom, "to", newRoom)
	m.connectLocked(domain.Identity{Username: username, Room: newRoom})
}

// SendMessage posts content to the active room. Calls made while the
// session is not connected are dropped. The message is not stored locally;
// it is recorded when the server echoes it back.
func (m *Manager) SendMessage(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != domain.StatusConnected || m.socket == nil {
		m.log.Debug("Dropping message", "status", m.status, "error", domain.ErrInvalidOperation)
		return
	}

	ev := domain.ChatEvent{
		Kind:      domain.KindMessage,
		Username:  m.identity.Username,
		Content:   content,
		Timestamp: m.now().UTC(),
	}
	payload, err := wire.EncodeOutbound(ev)
	if err != nil {
		m.log.Error("Failed to encode outbound message", "error", err)
		return
	}
	if err := m.socket.Send(payload); err != nil {
		m.log.Warn("Failed to send message", "room", m.identity.Room, "error", err)
	}
}

// Disconnect closes the connection and resets the session. Calling it again
// has no further effect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// FetchRooms refreshes the room list. On failure the previous list is kept
// and the error, wrapping domain.ErrDirectoryUnavailable, is returned.
func (m *Manager) FetchRooms(ctx context.Context) ([]string, error) {
	rooms, err := m.directory.FetchRooms(ctx)
	if err != nil {
		m.log.Warn("Failed to fetch rooms", "error", err)
		if !errors.Is(err, domain.ErrDirectoryUnavailable) {
			err = errors.Join(domain.ErrDirectoryUnavailable, err)
		}
		return m.Rooms(), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = append([]string(nil), rooms...)
	m.notifyLocked(Notification{Kind: RoomsUpdated, Rooms: m.copyRoomsLocked()})
	return m.copyRoomsLocked(), nil
}

func (m *Manager) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Messages returns a copy of the active room's history in arrival order.
func (m *Manager) Messages() []domain.ChatEvent {
	return m.messages.Snapshot()
}

func (m *Manager) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userCount
}

func (m *Manager) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyRoomsLocked()
}

// CurrentRoom is the room of the last connection that opened.
func (m *Manager) CurrentRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentRoom
}

func (m *Manager) Identity() domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Snapshot returns every readable field under one lock.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Identity:    m.identity,
		Status:      m.status,
		Messages:    m.messages.Snapshot(),
		UserCount:   m.userCount,
		Rooms:       m.copyRoomsLocked(),
		CurrentRoom: m.currentRoom,
	}
}

func (m *Manager) connectLocked(id domain.Identity) {
	m.resetLocked()

	m.identity = id
	m.lastID++
	m.socket = m.dialer.NewSocket(m.lastID, m.events)
	m.setStatusLocked(domain.StatusConnecting)

	m.log.Info("Connecting", "username", id.Username, "room", id.Room, "socket", m.lastID)
	m.socket.Open(BuildURL(m.host, m.secure, id.Username, id.Room))
}

// resetLocked releases the socket and clears everything that belongs to the
// previous room. The identity is kept for display until it is replaced.
func (m *Manager) resetLocked() {
	m.releaseSocketLocked()

	if m.messages.Len() > 0 {
		m.messages.Clear()
		m.notifyLocked(Notification{Kind: MessagesCleared})
	}
	m.setUserCountLocked(0)
	m.currentRoom = ""
}

// releaseSocketLocked closes the current socket, passing through Closed.
// Events still in flight from it become stale.
func (m *Manager) releaseSocketLocked() {
	if m.socket != nil {
		m.setStatusLocked(domain.StatusClosed)
		m.socket.Close()
		m.socket = nil
	}
	m.setStatusLocked(domain.StatusDisconnected)
}

func (m *Manager) dispatch(ev transport.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.socket == nil || ev.Source != m.socket.ID() {
		m.log.Debug("Discarding event from stale socket", "socket", ev.Source, "event", ev.Kind)
		return
	}

	switch ev.Kind {
	case transport.EventOpened:
		m.currentRoom = m.identity.Room
		m.setStatusLocked(domain.StatusConnected)
		m.log.Info("WebSocket connected", "room", m.currentRoom)

	case transport.EventMessage:
		chatEv, err := wire.DecodeInbound(ev.Data)
		if err != nil {
			m.log.Warn("Dropping inbound message", "room", m.identity.Room, "error", err)
			return
		}
		m.messages.Append(chatEv)
		m.notifyLocked(Notification{Kind: EventAppended, Event: chatEv})
		if chatEv.HasUserCount() {
			m.setUserCountLocked(*chatEv.UserCount)
		}

	case transport.EventClosed:
		m.log.Info("WebSocket disconnected", "room", m.identity.Room)
		m.releaseSocketLocked()

	case transport.EventError:
		m.log.Error("WebSocket error", "room", m.identity.Room, "error", ev.Err)
		m.releaseSocketLocked()
	}
}

func (m *Manager) setStatusLocked(s domain.Status) {
	if m.status == s {
		return
	}
	m.log.Debug("Session status changed", "from", m.status, "to", s)
	m.status = s
	m.notifyLocked(Notification{Kind: StatusChanged, Status: s})
}

func (m *Manager) setUserCountLocked(n int) {
	if m.userCount == n {
		return
	}
	m.userCount = n
	m.notifyLocked(Notification{Kind: UserCountChanged, UserCount: n})
}

func (m *Manager) copyRoomsLocked() []string {
	return append([]string{}, m.rooms...)
}
