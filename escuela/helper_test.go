package escuela

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func newTestServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	cl := New(
		WithBaseURL(srv.URL),
		WithToken("test-token"),
		WithRetries(2),
		WithBackoff(50*time.Millisecond, 200*time.Millisecond),
	)
	return srv, cl
}

func mustPath(t *testing.T, r *http.Request, want string) {
	t.Helper()
	if r.URL.Path != want {
		t.Fatalf("path = %s, want %s", r.URL.Path, want)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// rowSource serves ids 1..n with the cursor rule of the backend: rows with
// id > last_seen_id ascending, next cursor set only while rows remain.
type rowSource struct {
	mu    sync.Mutex
	ids   []int64
	calls []PageRequest
	err   error
	gate  chan struct{} // when set, each fetch waits for a receive
}

func newRowSource(n int) *rowSource {
	s := &rowSource{}
	for i := 1; i <= n; i++ {
		s.ids = append(s.ids, int64(i))
	}
	return s
}

func (s *rowSource) fetch(ctx context.Context, req PageRequest) (*Page[int64], error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	gate, err := s.gate, s.err
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := &Page[int64]{Items: []int64{}}
	for _, id := range s.ids {
		if id > req.LastSeenID && len(out.Items) < req.Limit {
			out.Items = append(out.Items, id)
		}
	}
	if n := len(out.Items); n > 0 && out.Items[n-1] < s.ids[len(s.ids)-1] {
		next := out.Items[n-1]
		out.NextCursor = &next
	}
	return out, nil
}

func (s *rowSource) requests() []PageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PageRequest, len(s.calls))
	copy(out, s.calls)
	return out
}

func ids(from, to int64) []int64 {
	var out []int64
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func decodeBody(t *testing.T, r *http.Request, v any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
}
