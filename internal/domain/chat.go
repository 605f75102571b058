package domain

import "time"

// Identity is the user and room a session is bound to. It is a value:
// switching rooms produces a new Identity with the same Username.
type Identity struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// WithRoom returns a copy of the identity bound to room.
func (id Identity) WithRoom(room string) Identity {
	return Identity{Username: id.Username, Room: room}
}

// IsZero reports whether the identity has not been set.
func (id Identity) IsZero() bool {
	return id.Username == "" && id.Room == ""
}

// Kind classifies a ChatEvent.
type Kind string

const (
	KindMessage Kind = "message"
	KindJoin    Kind = "join"
	KindLeave   Kind = "leave"
	KindSystem  Kind = "system"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMessage, KindJoin, KindLeave, KindSystem:
		return true
	}
	return false
}

// ChatEvent is one unit of conversation history.
//
// Kind determines which fields are meaningful: Username is set for message,
// join and leave; Content for message and system. UserCount is set only when
// the server reported the room occupancy along with the event.
type ChatEvent struct {
	Kind      Kind
	Username  string
	Content   string
	Timestamp time.Time
	UserCount *int
}

// HasUserCount reports whether the event carries an occupancy count.
func (e ChatEvent) HasUserCount() bool {
	return e.UserCount != nil
}
