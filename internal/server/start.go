package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the HTTP server until an interrupt or terminate signal arrives,
// then shuts it down gracefully.
func (s *Server) Start(addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Chat server listening", "addr", addr, "rooms", s.Registry.Rooms())
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		_ = s.Close()
		return err
	case sig := <-quit:
		s.log.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops accepting requests, disconnects every member and releases the bus.
func (s *Server) Shutdown(ctx context.Context) error {
	// Hijacked WebSocket connections are not tracked by http.Server, so the
	// hubs are stopped first to close them.
	closeErr := s.Close()
	return errors.Join(s.E.Shutdown(ctx), closeErr)
}
