// Package view holds the gomponents markup served by the chat server.
package view

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

// RoomsFragmentPath is polled by the rooms page to refresh the list.
const RoomsFragmentPath = "/rooms/fragment"

// RoomsPage is the server's landing page: the room directory, refreshed by htmx.
func RoomsPage(rooms []string, occupancy map[string]int) g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.TitleEl(g.Text("gobychat rooms")),
				h.Script(h.Src("https://unpkg.com/htmx.org@2.0.4")),
			),
			h.Body(
				h.H1(g.Text("Rooms")),
				h.Div(
					h.ID("rooms"),
					hx.Get(RoomsFragmentPath),
					hx.Trigger("every 5s"),
					hx.Swap("innerHTML"),
					RoomList(rooms, occupancy),
				),
			),
		),
	)
}

// RoomList renders the room names with their member counts.
func RoomList(rooms []string, occupancy map[string]int) g.Node {
	if len(rooms) == 0 {
		return h.P(h.Class("empty"), g.Text("No rooms yet."))
	}
	return h.Ul(
		g.Map(rooms, func(room string) g.Node {
			return h.Li(
				h.Data("room", room),
				g.Text(room),
				h.Span(h.Class("count"), g.Textf(" (%d)", occupancy[room])),
			)
		}),
	)
}
