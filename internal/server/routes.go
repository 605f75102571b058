package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/gobychat/internal/middleware"
	"github.com/nfrund/gobychat/internal/view"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/", s.roomsPage)
	s.E.GET("/rooms", s.listRooms)
	s.E.GET(view.RoomsFragmentPath, s.roomsFragment)
	s.E.GET("/ws", s.serveWS, middleware.RateLimiter())

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

// listRooms answers the room directory as a JSON array of names.
func (s *Server) listRooms(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Registry.Rooms())
}

func (s *Server) roomsPage(c echo.Context) error {
	return s.renderer.RenderPage(c, http.StatusOK, view.RoomsPage(s.Registry.Rooms(), s.Registry.Occupancy()))
}

func (s *Server) roomsFragment(c echo.Context) error {
	return s.renderer.RenderPage(c, http.StatusOK, view.RoomList(s.Registry.Rooms(), s.Registry.Occupancy()))
}
