package domain

// Status is the connection status of a chat session.
type Status int

const (
	// StatusDisconnected means no connection is open or being opened.
	StatusDisconnected Status = iota
	// StatusConnecting means a connection attempt is in flight.
	StatusConnecting
	// StatusConnected means the connection is open and messages may be sent.
	StatusConnected
	// StatusClosed is entered while a previous connection is torn down.
	// It always feeds back into StatusDisconnected.
	StatusClosed
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}
