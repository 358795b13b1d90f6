package escuela

import (
	"context"
	"strings"
	"sync"
)

// PageState is a snapshot of a Pager.
type PageState[T any] struct {
	Items      []T
	NextCursor *int64
	Cursor     int64 // cursor the visible page was fetched with
	Page       int   // 1-based page number
	Limit      int
	Search     string
	Loading    bool
	Err        error
}

// HasNext reports whether a forward page exists.
func (s PageState[T]) HasNext() bool { return s.NextCursor != nil }

// HasPrev reports whether a previous page exists.
func (s PageState[T]) HasPrev() bool { return s.Page > 1 }

// Pager drives a next/previous table over a cursor endpoint. Forward moves use
// the server's next cursor; backward moves replay cursors from a CursorStore.
//
// Each fetch takes a generation number. A response whose generation is no
// longer current is discarded, so a slow page cannot overwrite a newer one.
// The mutex is never held while the PageFunc runs.
type Pager[T any] struct {
	fetch   PageFunc[T]
	cfg     viewConfig
	history *CursorStore

	mu      sync.Mutex
	items   []T
	next    *int64
	cursor  int64
	search  string
	limit   int
	loading bool
	err     error
	gen     uint64
}

// NewPager returns a Pager over fetch. Nothing is fetched until Load.
func NewPager[T any](fetch PageFunc[T], opts ...ViewOption) *Pager[T] {
	cfg := newViewConfig(opts)
	return &Pager[T]{
		fetch:   fetch,
		cfg:     cfg,
		history: NewCursorStore(),
		search:  strings.TrimSpace(cfg.search),
		limit:   cfg.limit,
		items:   []T{},
	}
}

// Load fetches the first page.
func (p *Pager[T]) Load(ctx context.Context) error {
	return p.FetchPage(ctx, InitialCursor, true)
}

// FetchPage loads the page starting after cursor. When back is false and
// cursor is not InitialCursor, the cursor of the page being left is pushed
// onto the history once the new page arrives. Without a session token the call
// is a no-op.
func (p *Pager[T]) FetchPage(ctx context.Context, cursor int64, back bool) error {
	return p.fetchPage(ctx, cursor, back, false)
}

// fetchPage pops the history top once the page is adopted when pop is set,
// so a failed or superseded backward fetch leaves the history intact.
func (p *Pager[T]) fetchPage(ctx context.Context, cursor int64, back, pop bool) error {
	if !p.cfg.authorized() {
		p.cfg.log("page.skip", map[string]any{"reason": "no session"})
		return nil
	}
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.loading = true
	req := PageRequest{Limit: p.limit, LastSeenID: cursor, Search: p.search}
	p.mu.Unlock()

	p.cfg.log("page.fetch", map[string]any{
		"cursor": cursor, "limit": req.Limit, "search": req.Search, "back": back, "gen": gen,
	})
	page, err := p.fetch(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		p.cfg.log("page.stale", map[string]any{"gen": gen, "current": p.gen})
		return nil
	}
	p.loading = false
	if err != nil {
		p.err = err
		p.cfg.report(err)
		return err
	}
	if pop {
		p.history.Pop()
	} else if !back && cursor != InitialCursor {
		p.history.Push(p.cursor)
	}
	p.err = nil
	p.cursor = cursor
	p.items = page.Items
	if p.items == nil {
		p.items = []T{}
	}
	p.next = page.NextCursor
	return nil
}

// Next moves forward. It reports false without fetching when there is no
// next cursor or a fetch is already running.
func (p *Pager[T]) Next(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.loading || p.next == nil {
		p.mu.Unlock()
		return false, nil
	}
	next := *p.next
	p.mu.Unlock()
	return true, p.FetchPage(ctx, next, false)
}

// Prev moves back one page; from the first page it reloads the first page.
// It reports false without a session or while a fetch is running. The
// history entry is dropped only after the previous page has loaded.
func (p *Pager[T]) Prev(ctx context.Context) (bool, error) {
	if !p.cfg.authorized() {
		return false, nil
	}
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return false, nil
	}
	p.mu.Unlock()
	return true, p.fetchPage(ctx, p.history.Peek(), true, true)
}

// SetSearch applies a new search term, discarding the history and the
// visible rows, and fetches the first page. An unchanged term is ignored, and
// without a session nothing changes.
func (p *Pager[T]) SetSearch(ctx context.Context, term string) (bool, error) {
	if !p.cfg.authorized() {
		return false, nil
	}
	term = strings.TrimSpace(term)
	p.mu.Lock()
	if term == p.search {
		p.mu.Unlock()
		return false, nil
	}
	p.search = term
	p.resetLocked(true)
	p.mu.Unlock()
	return true, p.FetchPage(ctx, InitialCursor, true)
}

// SetLimit changes the page size and restarts from the first page. Without a
// session nothing changes.
func (p *Pager[T]) SetLimit(ctx context.Context, n int) (bool, error) {
	if !p.cfg.authorized() {
		return false, nil
	}
	p.mu.Lock()
	if n <= 0 || n == p.limit {
		p.mu.Unlock()
		return false, nil
	}
	p.limit = n
	p.resetLocked(false)
	p.mu.Unlock()
	return true, p.FetchPage(ctx, InitialCursor, true)
}

// Refresh discards the history and reloads the first page, keeping the visible
// rows until the new page arrives. Used after a create, edit or delete.
func (p *Pager[T]) Refresh(ctx context.Context) error {
	if !p.cfg.authorized() {
		return nil
	}
	p.mu.Lock()
	p.resetLocked(false)
	p.mu.Unlock()
	return p.FetchPage(ctx, InitialCursor, true)
}

func (p *Pager[T]) resetLocked(clear bool) {
	p.gen++
	p.loading = false
	p.history.Reset()
	p.cursor = InitialCursor
	if clear {
		p.items = []T{}
		p.next = nil
	}
}

// State returns a snapshot safe to read from any goroutine.
func (p *Pager[T]) State() PageState[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]T, len(p.items))
	copy(items, p.items)
	return PageState[T]{
		Items:      items,
		NextCursor: copyCursor(p.next),
		Cursor:     p.cursor,
		Page:       p.history.Depth() + 1,
		Limit:      p.limit,
		Search:     p.search,
		Loading:    p.loading,
		Err:        p.err,
	}
}

// History returns the cursors recorded for backward navigation.
func (p *Pager[T]) History() []int64 { return p.history.Snapshot() }

func copyCursor(c *int64) *int64 {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
