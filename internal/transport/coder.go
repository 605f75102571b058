package transport

import (
	"context"
	"io"
	"log/slog"

	"github.com/coder/websocket"
)

// CoderDialer creates sockets backed by github.com/coder/websocket.
type CoderDialer struct {
	Options *websocket.DialOptions
	Logger  *slog.Logger
}

// NewSocket implements Dialer.
func (d *CoderDialer) NewSocket(id uint64, events chan<- Event) Socket {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return newSocket(id, events, d.dial, logger.With("driver", DriverCoder))
}

func (d *CoderDialer) dial(ctx context.Context, url string) (conn, error) {
	c, _, err := websocket.Dial(ctx, url, d.Options)
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(maxMessageSize)
	return &coderConn{c: c}, nil
}

type coderConn struct {
	c *websocket.Conn
}

func (cc *coderConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := cc.c.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

func (cc *coderConn) Write(ctx context.Context, data []byte) error {
	return cc.c.Write(ctx, websocket.MessageText, data)
}

func (cc *coderConn) Close(reason string) error {
	return cc.c.Close(websocket.StatusNormalClosure, reason)
}

func (cc *coderConn) CloseNow() error {
	return cc.c.CloseNow()
}
