package aptos

import (
	"context"
	"encoding/json"
	"net/http"
)

// View executes a read-only function call and returns the ordered result
// values undecoded. An empty result slice is a valid answer (e.g. a balance
// resource that was never initialized), not an error.
func (c *Client) View(ctx context.Context, req ViewRequest) ([]json.RawMessage, error) {
	if req.TypeArguments == nil {
		req.TypeArguments = []string{}
	}
	if req.Arguments == nil {
		req.Arguments = []any{}
	}
	var out []json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, viewPath, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
