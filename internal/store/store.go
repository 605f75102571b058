// Package store holds the ordered chat history of the active room.
package store

import (
	"sync"

	"github.com/nfrund/gobychat/internal/domain"
)

// MessageStore is an append-only sequence of chat events kept in arrival
// order. Timestamps are informational and never used for ordering.
type MessageStore struct {
	mu     sync.RWMutex
	events []domain.ChatEvent
}

// New creates an empty MessageStore.
func New() *MessageStore {
	return &MessageStore{}
}

// Append adds ev at the end of the sequence.
func (s *MessageStore) Append(ev domain.ChatEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Clear empties the store.
func (s *MessageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// Len returns the number of stored events.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Snapshot returns a copy of the stored events. Later appends or clears do
// not affect the returned slice.
func (s *MessageStore) Snapshot() []domain.ChatEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ChatEvent, len(s.events))
	copy(out, s.events)
	return out
}
