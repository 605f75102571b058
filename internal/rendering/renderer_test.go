package rendering

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

type brokenNode struct{}

func (brokenNode) Render(io.Writer) error { return errors.New("boom") }

func TestNodeRenderer_RenderComponent(t *testing.T) {
	r := NewNodeRenderer()

	out, err := r.RenderComponent(h.P(h.Class("x"), g.Text("a < b")))
	require.NoError(t, err)
	assert.Equal(t, `<p class="x">a &lt; b</p>`, string(out))

	_, err = r.RenderComponent(brokenNode{})
	assert.ErrorContains(t, err, "boom")
}

func TestNodeRenderer_RenderPage(t *testing.T) {
	e := echo.New()
	r := NewNodeRenderer()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, r.RenderPage(c, http.StatusCreated, h.Span(g.Text("ok"))))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Equal(t, "<span>ok</span>", rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	err := r.RenderPage(c, http.StatusOK, brokenNode{})
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	assert.Empty(t, rec.Body.String())
}
