package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}, RateLimiter())

	get := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allows requests within the burst", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, get("192.0.2.1:1234").Code)
	})

	t.Run("blocks requests exceeding the burst", func(t *testing.T) {
		const burst = 10
		for i := 0; i < burst; i++ {
			require.Equal(t, http.StatusOK, get("192.0.2.2:1234").Code, "request %d should be allowed", i+1)
		}

		rec := get("192.0.2.2:1234")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "Too many connection attempts")

		// Other clients are unaffected.
		assert.Equal(t, http.StatusOK, get("192.0.2.3:1234").Code)
	})
}
