// Package render formats room listings and session notifications for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/session"
)

// Output formats accepted by Rooms.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Rooms writes the room list in the given format.
func Rooms(w io.Writer, rooms []string, format string) error {
	switch format {
	case FormatJSON:
		if rooms == nil {
			rooms = []string{}
		}
		output := struct {
			Rooms []string `json:"rooms"`
			Count int      `json:"count"`
		}{Rooms: rooms, Count: len(rooms)}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)

	case FormatTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ROOM")
		fmt.Fprintln(tw, "----")
		if len(rooms) == 0 {
			fmt.Fprintln(tw, "No rooms found")
		}
		for _, room := range rooms {
			fmt.Fprintln(tw, room)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("invalid format %q (valid: %s, %s)", format, FormatTable, FormatJSON)
	}
}

// Printer serializes terminal output shared by the notification loop and the
// input loop.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter wraps w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Printf writes one formatted line.
func (p *Printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Notification prints n, skipping kinds that have nothing to show.
func (p *Printer) Notification(n session.Notification) {
	if line, ok := Line(n); ok {
		p.Printf("%s", line)
	}
}

// Line renders a notification as a single terminal line.
func Line(n session.Notification) (string, bool) {
	switch n.Kind {
	case session.StatusChanged:
		switch n.Status {
		case domain.StatusConnecting:
			return "-- connecting...", true
		case domain.StatusConnected:
			return "-- connected", true
		case domain.StatusDisconnected:
			return "-- disconnected", true
		}
	case session.EventAppended:
		return Event(n.Event), true
	}
	return "", false
}

// Event renders a chat event.
func Event(ev domain.ChatEvent) string {
	ts := ev.Timestamp.Local().Format("15:04:05")
	switch ev.Kind {
	case domain.KindMessage:
		return fmt.Sprintf("[%s] %s: %s", ts, ev.Username, ev.Content)
	case domain.KindJoin:
		return fmt.Sprintf("[%s] * %s joined%s", ts, ev.Username, online(ev))
	case domain.KindLeave:
		return fmt.Sprintf("[%s] * %s left%s", ts, ev.Username, online(ev))
	default:
		return fmt.Sprintf("[%s] ! %s", ts, strings.TrimSpace(ev.Content))
	}
}

func online(ev domain.ChatEvent) string {
	if !ev.HasUserCount() {
		return ""
	}
	return fmt.Sprintf(" (%d online)", *ev.UserCount)
}
