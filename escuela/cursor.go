package escuela

import "sync"

// CursorStore records the cursors visited going forward so that "previous
// page" can be served without asking the server for a backward cursor.
// The zero value is ready to use.
type CursorStore struct {
	mu    sync.Mutex
	stack []int64
}

// NewCursorStore returns an empty store.
func NewCursorStore() *CursorStore { return &CursorStore{} }

// Push records cursor when moving forward to a page not visited before.
// Pushing the cursor already on top is ignored, so a page depth never holds
// two entries.
func (s *CursorStore) Push(cursor int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.stack); n > 0 && s.stack[n-1] == cursor {
		return
	}
	s.stack = append(s.stack, cursor)
}

// Pop removes and returns the most recent cursor, or InitialCursor when the
// history is empty.
func (s *CursorStore) Pop() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.stack)
	if n == 0 {
		return InitialCursor
	}
	c := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return c
}

// Peek returns the most recent cursor without removing it, or InitialCursor
// when the history is empty.
func (s *CursorStore) Peek() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.stack); n > 0 {
		return s.stack[n-1]
	}
	return InitialCursor
}

// Reset clears the history; the next fetch starts from InitialCursor.
func (s *CursorStore) Reset() {
	s.mu.Lock()
	s.stack = s.stack[:0]
	s.mu.Unlock()
}

// Depth is the number of recorded page boundaries.
func (s *CursorStore) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

// Snapshot returns a copy of the history, oldest first.
func (s *CursorStore) Snapshot() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.stack))
	copy(out, s.stack)
	return out
}
