package transport

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaDialer creates sockets backed by github.com/gorilla/websocket.
type GorillaDialer struct {
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	Logger *slog.Logger
}

// NewSocket implements Dialer.
func (d *GorillaDialer) NewSocket(id uint64, events chan<- Event) Socket {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return newSocket(id, events, d.dial, logger.With("driver", DriverGorilla))
}

func (d *GorillaDialer) dial(ctx context.Context, url string) (conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	c, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(maxMessageSize)
	return &gorillaConn{c: c}, nil
}

type gorillaConn struct {
	c *websocket.Conn
}

// Read blocks until a frame arrives or the connection is closed; gorilla
// has no context support, so cancellation happens through Close.
func (gc *gorillaConn) Read(_ context.Context) ([]byte, error) {
	_, data, err := gc.c.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

func (gc *gorillaConn) Write(ctx context.Context, data []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}
	if err := gc.c.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return gc.c.WriteMessage(websocket.TextMessage, data)
}

func (gc *gorillaConn) Close(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	err := gc.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	if cerr := gc.c.Close(); err == nil {
		err = cerr
	}
	return err
}

func (gc *gorillaConn) CloseNow() error {
	return gc.c.Close()
}
