package escuela

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// DefaultPageSize is the page size used when a request carries no limit.
const DefaultPageSize = 20

// PageFunc fetches one page. Pagers and accumulators are driven by a PageFunc,
// which keeps them independent of the concrete endpoint.
type PageFunc[T any] func(ctx context.Context, req PageRequest) (*Page[T], error)

// paginate posts req to a cursor endpoint and normalizes the response.
func paginate[T any](ctx context.Context, c *Client, path string, req PageRequest, opts []CallOption) (*Page[T], error) {
	if req.Limit <= 0 {
		req.Limit = DefaultPageSize
	}
	if req.LastSeenID < 0 {
		req.LastSeenID = InitialCursor
	}
	h, err := c.authed(opts...)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, path, h, req, &raw); err != nil {
		return nil, err
	}
	p := decodePage[T](raw, c.Logger)
	return &p, nil
}

// decodePage is lenient: a body without a recognizable list yields an empty
// page and an absent, null, zero or non-numeric next_cursor yields nil.
func decodePage[T any](b []byte, logger Logger) Page[T] {
	out := Page[T]{Items: []T{}}
	var rp rawPage
	if err := json.Unmarshal(b, &rp); err != nil {
		if logger != nil {
			logger("page.malformed", map[string]any{"error": err.Error()})
		}
		return out
	}
	for _, list := range []json.RawMessage{rp.Users, rp.Pagos, rp.Items} {
		if isNull(list) {
			continue
		}
		var items []T
		if err := json.Unmarshal(list, &items); err != nil {
			if logger != nil {
				logger("page.malformed", map[string]any{"error": err.Error()})
			}
			break
		}
		if items != nil {
			out.Items = items
		}
		break
	}
	var next int64
	if !isNull(rp.NextCursor) && json.Unmarshal(rp.NextCursor, &next) == nil && next > InitialCursor {
		out.NextCursor = &next
	}
	return out
}

func isNull(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}
