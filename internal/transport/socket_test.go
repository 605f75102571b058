package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/gobychat/internal/domain"
)

// newEchoServer echoes every frame back, and closes normally on "bye".
func newEchoServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		for {
			typ, data, err := c.Read(r.Context())
			if err != nil {
				return
			}
			if string(data) == "bye" {
				c.Close(websocket.StatusNormalClosure, "bye")
				return
			}
			if err := c.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for socket event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, events <-chan Event, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s from socket %d", ev.Kind, ev.Source)
	case <-time.After(wait):
	}
}

func dialers() map[string]Dialer {
	return map[string]Dialer{
		DriverCoder:   &CoderDialer{},
		DriverGorilla: &GorillaDialer{},
	}
}

func TestSocket_OpenSendReceive(t *testing.T) {
	for name, d := range dialers() {
		t.Run(name, func(t *testing.T) {
			_, url := newEchoServer(t)
			events := make(chan Event, 16)
			s := d.NewSocket(7, events)
			defer s.Close()

			s.Open(url)
			ev := nextEvent(t, events)
			require.Equal(t, EventOpened, ev.Kind)
			assert.Equal(t, uint64(7), ev.Source)

			require.NoError(t, s.Send([]byte(`one`)))
			require.NoError(t, s.Send([]byte(`two`)))

			ev = nextEvent(t, events)
			require.Equal(t, EventMessage, ev.Kind)
			assert.Equal(t, "one", string(ev.Data))
			ev = nextEvent(t, events)
			require.Equal(t, EventMessage, ev.Kind)
			assert.Equal(t, "two", string(ev.Data), "frames must arrive in order")
		})
	}
}

func TestSocket_SendWhenNotOpen(t *testing.T) {
	for name, d := range dialers() {
		t.Run(name, func(t *testing.T) {
			events := make(chan Event, 4)
			s := d.NewSocket(1, events)

			assert.ErrorIs(t, s.Send([]byte("x")), ErrNotOpen)

			s.Close()
			assert.ErrorIs(t, s.Send([]byte("x")), ErrNotOpen)
		})
	}
}

func TestSocket_CloseSilencesEvents(t *testing.T) {
	for name, d := range dialers() {
		t.Run(name, func(t *testing.T) {
			_, url := newEchoServer(t)
			events := make(chan Event, 16)
			s := d.NewSocket(3, events)

			s.Open(url)
			require.Equal(t, EventOpened, nextEvent(t, events).Kind)

			s.Close()
			s.Close()
			assert.ErrorIs(t, s.Send([]byte("late")), ErrNotOpen)
			assertNoEvent(t, events, 300*time.Millisecond)
		})
	}
}

func TestSocket_CloseNeverOpened(t *testing.T) {
	s := (&CoderDialer{}).NewSocket(1, make(chan Event))
	assert.NotPanics(t, func() {
		s.Close()
		s.Close()
	})
}

func TestSocket_DialFailure(t *testing.T) {
	for name, d := range dialers() {
		t.Run(name, func(t *testing.T) {
			srv, url := newEchoServer(t)
			srv.Close()

			events := make(chan Event, 4)
			s := d.NewSocket(9, events)
			defer s.Close()
			s.Open(url)

			ev := nextEvent(t, events)
			require.Equal(t, EventError, ev.Kind)
			assert.ErrorIs(t, ev.Err, domain.ErrTransport)
			assert.Equal(t, EventClosed, nextEvent(t, events).Kind)
		})
	}
}

func TestSocket_PeerNormalClosure(t *testing.T) {
	for name, d := range dialers() {
		t.Run(name, func(t *testing.T) {
			_, url := newEchoServer(t)
			events := make(chan Event, 8)
			s := d.NewSocket(2, events)
			defer s.Close()

			s.Open(url)
			require.Equal(t, EventOpened, nextEvent(t, events).Kind)
			require.NoError(t, s.Send([]byte("bye")))

			assert.Equal(t, EventClosed, nextEvent(t, events).Kind, "a normal closure is not an error")
			assert.Eventually(t, func() bool {
				return s.Send([]byte("x")) == ErrNotOpen
			}, time.Second, 10*time.Millisecond)
		})
	}
}

func TestSocket_ReopenReplacesConnection(t *testing.T) {
	_, url := newEchoServer(t)
	events := make(chan Event, 16)
	s := (&CoderDialer{}).NewSocket(4, events)
	defer s.Close()

	s.Open(url)
	require.Equal(t, EventOpened, nextEvent(t, events).Kind)

	s.Open(url)
	require.Equal(t, EventOpened, nextEvent(t, events).Kind, "the first connection must not report its closure")

	require.NoError(t, s.Send([]byte("again")))
	ev := nextEvent(t, events)
	assert.Equal(t, EventMessage, ev.Kind)
	assert.Equal(t, "again", string(ev.Data))
}

func TestNewDialer(t *testing.T) {
	d, err := NewDialer("", nil)
	require.NoError(t, err)
	assert.IsType(t, &CoderDialer{}, d)

	d, err = NewDialer(DriverGorilla, nil)
	require.NoError(t, err)
	assert.IsType(t, &GorillaDialer{}, d)

	_, err = NewDialer("carrier-pigeon", nil)
	assert.Error(t, err)
}
