package session

import "github.com/nfrund/gobychat/internal/domain"

// NotificationKind identifies what changed in the session.
type NotificationKind int

const (
	StatusChanged NotificationKind = iota + 1
	EventAppended
	MessagesCleared
	UserCountChanged
	RoomsUpdated
)

// Notification describes one observable change. Only the field matching
// Kind is meaningful.
type Notification struct {
	Kind      NotificationKind
	Status    domain.Status
	Event     domain.ChatEvent
	UserCount int
	Rooms     []string
}

// Subscribe registers an observer. Notifications are delivered without
// blocking the session; when the channel buffer is full they are dropped.
// The returned function unregisters the observer and closes the channel.
func (m *Manager) Subscribe(buffer int) (<-chan Notification, func()) {
	ch := make(chan Notification, buffer)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

func (m *Manager) notifyLocked(n Notification) {
	for id, ch := range m.subs {
		select {
		case ch <- n:
		default:
			m.log.Warn("Session subscriber too slow, dropping notification", "subscriber", id, "kind", n.Kind)
		}
	}
}
