package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/gobychat/internal/hub"
	"github.com/nfrund/gobychat/internal/middleware"
	"github.com/nfrund/gobychat/internal/wire"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// Maximum frame size accepted from a peer.
	maxMessageSize = 64 << 10
	// Outbound frames buffered per member before it counts as slow.
	memberBuffer = 256

	anonymousUsername = "Anonymous"
	defaultRoom       = "default"
)

// serveWS upgrades the request and joins the caller to the room named in the
// query string, creating the room if needed.
func (s *Server) serveWS(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		username = anonymousUsername
	}
	room := c.QueryParam("room")
	if room == "" {
		room = defaultRoom
	}
	logger := middleware.FromContext(c.Request().Context()).With("username", username, "room", room)

	h, err := s.Registry.Hub(room)
	if err != nil {
		return err
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Clients are CLIs and pages on other origins.
	})
	if err != nil {
		logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return nil
	}
	conn.SetReadLimit(maxMessageSize)

	m := hub.NewMember(uuid.NewString(), username, memberBuffer)
	if err := h.Register(s.ctx, m); err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return nil
	}

	cl := &client{member: m, conn: conn, hub: h, server: s, room: room, log: logger.With("member_id", m.ID)}
	go cl.writePump()
	go cl.readPump()
	return nil
}

type client struct {
	member *hub.Member
	conn   *websocket.Conn
	hub    *hub.Hub
	server *Server
	room   string
	log    *slog.Logger
}

// readPump publishes every valid frame from the peer to the room's topic,
// stamped with the sender's username.
func (cl *client) readPump() {
	defer func() {
		if err := cl.hub.Unregister(context.Background(), cl.member); err != nil && !errors.Is(err, hub.ErrHubStopped) {
			cl.log.Error("Failed to unregister member", "error", err)
		}
	}()

	ctx := cl.server.ctx
	for {
		_, data, err := cl.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				cl.log.Info("WebSocket closed normally by client")
			default:
				if ctx.Err() == nil {
					cl.log.Warn("WebSocket read error", "error", err)
				}
			}
			return
		}

		ev, err := wire.DecodeOutbound(data)
		if err != nil {
			cl.log.Warn("Dropping malformed client frame", "error", err)
			continue
		}
		ev.Username = cl.member.Username
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
		if err := cl.server.Registry.Publish(ctx, cl.room, cl.member.ID, ev); err != nil {
			cl.log.Error("Failed to publish chat message", "error", err)
		}
	}
}

// writePump drains the member's send channel onto the connection. The hub
// closing the channel ends the connection.
func (cl *client) writePump() {
	for frame := range cl.member.Send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := cl.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			cl.log.Warn("WebSocket write error", "error", err)
			cl.conn.CloseNow()
			return
		}
	}
	cl.conn.Close(websocket.StatusNormalClosure, "")
}
