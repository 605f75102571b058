package session

import (
	"net/url"
	"strings"
)

// BuildURL returns the WebSocket endpoint for joining room as username.
// Query values are percent-encoded the way browsers' encodeURIComponent
// does it, so spaces become %20 rather than '+'.
func BuildURL(host string, secure bool, username, room string) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	return scheme + "://" + host + "/ws?username=" + encodeComponent(username) + "&room=" + encodeComponent(room)
}

// HTTPBaseURL returns the plain HTTP base for the same server.
func HTTPBaseURL(host string, secure bool) string {
	if secure {
		return "https://" + host
	}
	return "http://" + host
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
