// Package wire defines the JSON frames exchanged with the chat server and
// converts them to and from domain.ChatEvent.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/gobychat/internal/domain"
)

// TimestampLayout is the layout used for every timestamp on the wire.
const TimestampLayout = time.RFC3339Nano

var validate = validator.New()

// Outbound is the frame a client sends to post a chat message.
type Outbound struct {
	Type      string `json:"type" validate:"eq=message"`
	Content   string `json:"content" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required"`
}

// Inbound is the frame a server pushes to clients. Which fields are required
// depends on Type.
type Inbound struct {
	Type      string `json:"type" validate:"required,oneof=message join leave system"`
	Username  string `json:"username,omitempty" validate:"required_unless=Type system"`
	Content   string `json:"content,omitempty" validate:"required_if=Type message,required_if=Type system"`
	Timestamp string `json:"timestamp" validate:"required"`
	UserCount *int   `json:"userCount,omitempty" validate:"omitempty,gte=0"`
}

// EncodeOutbound serializes a message event into the client frame. Only the
// type, content and timestamp travel; the server stamps the username.
func EncodeOutbound(ev domain.ChatEvent) ([]byte, error) {
	if ev.Kind != domain.KindMessage {
		return nil, fmt.Errorf("encode outbound: unsupported kind %q", ev.Kind)
	}
	return json.Marshal(Outbound{
		Type:      string(domain.KindMessage),
		Content:   ev.Content,
		Timestamp: ev.Timestamp.UTC().Format(TimestampLayout),
	})
}

// DecodeOutbound parses a client frame. The returned event has no username;
// the receiver knows who sent it.
func DecodeOutbound(data []byte) (domain.ChatEvent, error) {
	var out Outbound
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedInbound, err)
	}
	if err := validate.Struct(out); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedInbound, err)
	}
	ts, err := time.Parse(TimestampLayout, out.Timestamp)
	if err != nil {
		return domain.ChatEvent{}, fmt.Errorf("%w: timestamp: %v", domain.ErrMalformedInbound, err)
	}
	return domain.ChatEvent{
		Kind:      domain.KindMessage,
		Content:   out.Content,
		Timestamp: ts,
	}, nil
}

// EncodeInbound serializes an event into the server frame, omitting the
// fields its kind does not use.
func EncodeInbound(ev domain.ChatEvent) ([]byte, error) {
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("encode inbound: unknown kind %q", ev.Kind)
	}
	in := Inbound{
		Type:      string(ev.Kind),
		Timestamp: ev.Timestamp.UTC().Format(TimestampLayout),
		UserCount: ev.UserCount,
	}
	if ev.Kind != domain.KindSystem {
		in.Username = ev.Username
	}
	if ev.Kind == domain.KindMessage || ev.Kind == domain.KindSystem {
		in.Content = ev.Content
	}
	return json.Marshal(in)
}

// DecodeInbound parses and validates a server frame. Any failure is reported
// as domain.ErrMalformedInbound.
func DecodeInbound(data []byte) (domain.ChatEvent, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedInbound, err)
	}
	if err := validate.Struct(in); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedInbound, err)
	}
	ts, err := time.Parse(TimestampLayout, in.Timestamp)
	if err != nil {
		return domain.ChatEvent{}, fmt.Errorf("%w: timestamp: %v", domain.ErrMalformedInbound, err)
	}

	ev := domain.ChatEvent{
		Kind:      domain.Kind(in.Type),
		Timestamp: ts,
		UserCount: in.UserCount,
	}
	// Fields that are not meaningful for the kind are dropped.
	switch ev.Kind {
	case domain.KindMessage:
		ev.Username, ev.Content = in.Username, in.Content
	case domain.KindJoin, domain.KindLeave:
		ev.Username = in.Username
	case domain.KindSystem:
		ev.Content = in.Content
	}
	return ev, nil
}
