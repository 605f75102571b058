package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/gobychat/cmd/chat-cli/internal/render"
	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/session"
	"github.com/nfrund/gobychat/internal/storage"
)

const (
	connectTimeout = 20 * time.Second
	pollInterval   = 20 * time.Millisecond
)

var errNoIdentity = errors.New("no saved identity: pass --username and --room")

func newJoinCmd(c *cli) *cobra.Command {
	var username, room string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a room and chat interactively",
		Long: `Join a room and chat from the terminal. Missing flags fall back to the
identity saved by the previous join.

Lines you type are sent as messages, except these commands:
  /room <name>   switch to another room
  /rooms         list the rooms known to the server
  /who           show how many people are in the room
  /quit          leave and exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.resolveIdentity(username, room)
			if err != nil {
				return err
			}
			return c.chat(cmd.Context(), id, cmd.InOrStdin(), render.NewPrinter(cmd.OutOrStdout()))
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "name shown to other members")
	cmd.Flags().StringVarP(&room, "room", "r", "", "room to join")
	return cmd
}

// resolveIdentity merges the flags over the saved identity and normalizes the result.
func (c *cli) resolveIdentity(username, room string) (domain.Identity, error) {
	saved, ok, err := c.client.Identities.Load()
	if err != nil {
		return domain.Identity{}, err
	}
	if ok {
		if username == "" {
			username = saved.Username
		}
		if room == "" {
			room = saved.Room
		}
	}

	id, err := storage.Normalize(username, room)
	if errors.Is(err, storage.ErrEmptyIdentity) {
		return domain.Identity{}, errNoIdentity
	}
	return id, err
}

// chat runs one interactive session until /quit, end of input or ctx is done.
func (c *cli) chat(ctx context.Context, id domain.Identity, in io.Reader, out *render.Printer) error {
	ctx, cancel := context.WithCancel(ctx)
	mgr := c.client.Session

	runDone := make(chan struct{})
	go func() {
		mgr.Run(ctx)
		close(runDone)
	}()

	notes, unsubscribe := mgr.Subscribe(256)
	printDone := make(chan struct{})
	go func() {
		for n := range notes {
			out.Notification(n)
		}
		close(printDone)
	}()

	defer func() {
		cancel()
		<-runDone
		unsubscribe()
		<-printDone
	}()

	mgr.Connect(id.Username, id.Room)
	if err := waitConnected(ctx, mgr); err != nil {
		return err
	}
	c.saveIdentity(id, out)
	out.Printf("Joined %q as %s. Type /quit to leave.", id.Room, id.Username)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				mgr.Disconnect()
				return nil
			}
			if quit := c.handleLine(ctx, &id, strings.TrimSpace(line), out); quit {
				mgr.Disconnect()
				return nil
			}
		}
	}
}

// handleLine executes one input line and reports whether the user asked to quit.
func (c *cli) handleLine(ctx context.Context, id *domain.Identity, line string, out *render.Printer) bool {
	mgr := c.client.Session

	switch {
	case line == "":
	case line == "/quit":
		return true
	case line == "/who":
		out.Printf("%d online in %s", mgr.UserCount(), mgr.CurrentRoom())
	case line == "/rooms":
		rooms, err := mgr.FetchRooms(ctx)
		if err != nil {
			out.Printf("could not fetch rooms: %v", err)
			return false
		}
		out.Printf("rooms: %s", strings.Join(rooms, ", "))
	case line == "/room" || strings.HasPrefix(line, "/room "):
		next, err := storage.Normalize(id.Username, strings.TrimSpace(strings.TrimPrefix(line, "/room")))
		if err != nil {
			out.Printf("usage: /room <name>")
			return false
		}
		mgr.ChangeRoom(next.Username, next.Room)
		*id = next
		c.saveIdentity(next, out)
	case strings.HasPrefix(line, "/"):
		out.Printf("unknown command %s", strings.Fields(line)[0])
	default:
		if mgr.Status() != domain.StatusConnected {
			out.Printf("not connected; use /room <name> to reconnect")
			return false
		}
		mgr.SendMessage(line)
	}
	return false
}

func (c *cli) saveIdentity(id domain.Identity, out *render.Printer) {
	if err := c.client.Identities.Save(id); err != nil {
		out.Printf("could not save identity: %v", err)
	}
}

// waitConnected blocks until the first connection attempt settles.
func waitConnected(ctx context.Context, mgr *session.Manager) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		switch mgr.Status() {
		case domain.StatusConnected:
			return nil
		case domain.StatusDisconnected:
			return fmt.Errorf("could not connect to the chat server: %w", domain.ErrTransport)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("connecting: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
