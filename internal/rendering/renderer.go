package rendering

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// Renderer turns gomponents nodes into bytes or HTTP responses.
type Renderer interface {
	// RenderComponent renders a node to a slice of bytes. Useful for htmx fragments.
	RenderComponent(node g.Node) ([]byte, error)

	// RenderPage writes node as an HTML response with the given status.
	RenderPage(c echo.Context, status int, node g.Node) error
}

// NodeRenderer is the default Renderer.
type NodeRenderer struct{}

// NewNodeRenderer creates a new NodeRenderer instance.
func NewNodeRenderer() *NodeRenderer {
	return &NodeRenderer{}
}

// RenderComponent implements the Renderer interface.
func (r *NodeRenderer) RenderComponent(node g.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render component to bytes: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage implements the Renderer interface. The node is rendered into a
// buffer first so a failure still produces a clean 500.
func (r *NodeRenderer) RenderPage(c echo.Context, status int, node g.Node) error {
	body, err := r.RenderComponent(node)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.HTMLBlob(status, body)
}
