package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLogger_InjectsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	original := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(original)

	e := echo.New()
	e.Use(echomw.RequestID(), Logger)
	e.GET("/rooms", func(c echo.Context) error {
		FromContext(c.Request().Context()).Info("handled")
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "msg=handled")
	assert.Contains(t, out, "request_id="+rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, out, "path=/rooms")
	assert.Contains(t, out, "method=GET")
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
