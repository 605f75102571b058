package session

import (
	"context"
	"sync"

	"github.com/nfrund/gobychat/internal/transport"
)

// fakeSocket records what the manager asks of it.
type fakeSocket struct {
	id     uint64
	events chan<- transport.Event

	mu     sync.Mutex
	urls   []string
	sent   [][]byte
	closed int
}

func (s *fakeSocket) ID() uint64 { return s.id }

func (s *fakeSocket) Open(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
}

func (s *fakeSocket) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, payload)
	return nil
}

func (s *fakeSocket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeSocket) getSent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

func (s *fakeSocket) getURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func (s *fakeSocket) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// emit pushes an event the way a real socket would.
func (s *fakeSocket) emit(kind transport.EventKind, data string) {
	s.events <- transport.Event{Source: s.id, Kind: kind, Data: []byte(data)}
}

// fakeDialer hands out fakeSockets and remembers them.
type fakeDialer struct {
	mu      sync.Mutex
	sockets []*fakeSocket
}

func (d *fakeDialer) NewSocket(id uint64, events chan<- transport.Event) transport.Socket {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &fakeSocket{id: id, events: events}
	d.sockets = append(d.sockets, s)
	return s
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sockets)
}

func (d *fakeDialer) last() *fakeSocket {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sockets) == 0 {
		return nil
	}
	return d.sockets[len(d.sockets)-1]
}

type fakeDirectory struct {
	mu    sync.Mutex
	rooms []string
	err   error
	calls int
}

func (d *fakeDirectory) FetchRooms(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return append([]string(nil), d.rooms...), nil
}

func (d *fakeDirectory) set(rooms []string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms, d.err = rooms, err
}
