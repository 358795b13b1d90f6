package escuela

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ScrollThreshold is the distance from the bottom, in scroll units, at which
// an infinite list asks for more rows.
const ScrollThreshold = 50

// ScrollPosition describes a scrollable container in arbitrary but consistent
// units (pixels in a browser, EstimateSize units per row in a terminal).
type ScrollPosition struct {
	Offset   int // distance scrolled from the top
	Viewport int // visible height
	Content  int // total scrollable height
}

// NearBottom reports whether the viewport is within threshold of the end.
func (p ScrollPosition) NearBottom(threshold int) bool {
	return p.Content-(p.Offset+p.Viewport) <= threshold
}

// AccumulatorState is a snapshot of an Accumulator.
type AccumulatorState[T any] struct {
	Items      []T
	NextCursor *int64
	Search     string
	Loading    bool
	Done       bool // the server reported no further pages
	Err        error
}

// Accumulator grows a list by appending successive cursor pages, as an
// infinite-scroll view does. At most one load runs per generation; overlapping
// LoadMore calls share it. Reset and SetSearch start a new generation and any
// response of an older one is dropped.
type Accumulator[T any] struct {
	fetch  PageFunc[T]
	cfg    viewConfig
	flight singleflight.Group

	mu       sync.Mutex
	items    []T
	next     *int64
	started  bool
	done     bool
	inflight bool
	search   string
	err      error
	gen      uint64
}

// NewAccumulator returns an empty Accumulator over fetch.
func NewAccumulator[T any](fetch PageFunc[T], opts ...ViewOption) *Accumulator[T] {
	cfg := newViewConfig(opts)
	return &Accumulator[T]{
		fetch:  fetch,
		cfg:    cfg,
		search: strings.TrimSpace(cfg.search),
		items:  []T{},
	}
}

// LoadMore appends the next page. It reports whether a page was merged by
// this call or a load it joined. Once the server reports no next cursor it
// returns false without fetching until Reset.
func (a *Accumulator[T]) LoadMore(ctx context.Context) (bool, error) {
	if !a.cfg.authorized() {
		a.cfg.log("page.skip", map[string]any{"reason": "no session"})
		return false, nil
	}
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return false, nil
	}
	if a.started && a.next == nil {
		a.mu.Unlock()
		return false, nil
	}
	cursor := a.cursorLocked()
	gen := a.gen
	a.inflight = true
	req := PageRequest{Limit: a.cfg.limit, LastSeenID: cursor, Search: a.search}
	a.mu.Unlock()

	v, err, shared := a.flight.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return a.load(ctx, gen, req)
	})
	if shared {
		a.cfg.log("page.shared", map[string]any{"cursor": cursor, "gen": gen})
	}
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (a *Accumulator[T]) load(ctx context.Context, gen uint64, req PageRequest) (bool, error) {
	// Drop a request whose cursor another load has already merged.
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return false, nil
	}
	if a.done || a.cursorLocked() != req.LastSeenID {
		a.inflight = false
		a.mu.Unlock()
		return false, nil
	}
	a.mu.Unlock()
	a.cfg.log("page.fetch", map[string]any{
		"cursor": req.LastSeenID, "limit": req.Limit, "search": req.Search, "gen": gen,
	})
	page, err := a.fetch(ctx, req)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		a.cfg.log("page.stale", map[string]any{"gen": gen, "current": a.gen})
		return false, nil
	}
	a.inflight = false
	if err != nil {
		a.err = err
		a.cfg.report(err)
		return false, err
	}
	a.err = nil
	a.started = true
	a.items = append(a.items, page.Items...)
	a.next = page.NextCursor
	a.done = page.NextCursor == nil
	return true, nil
}

// OnScroll loads more rows when pos is within ScrollThreshold of the bottom.
// It returns immediately when a load is already running or the list is complete.
func (a *Accumulator[T]) OnScroll(ctx context.Context, pos ScrollPosition) (bool, error) {
	if !pos.NearBottom(ScrollThreshold) {
		return false, nil
	}
	a.mu.Lock()
	busy := a.inflight || a.done
	a.mu.Unlock()
	if busy {
		return false, nil
	}
	return a.LoadMore(ctx)
}

// Reset drops every accumulated row and loads the first page again. Without a
// session nothing changes.
func (a *Accumulator[T]) Reset(ctx context.Context) (bool, error) {
	if !a.cfg.authorized() {
		return false, nil
	}
	a.mu.Lock()
	a.resetLocked()
	a.mu.Unlock()
	return a.LoadMore(ctx)
}

// SetSearch restarts the list with a new search term. An unchanged term is ignored.
func (a *Accumulator[T]) SetSearch(ctx context.Context, term string) (bool, error) {
	if !a.cfg.authorized() {
		return false, nil
	}
	term = strings.TrimSpace(term)
	a.mu.Lock()
	if term == a.search && a.started {
		a.mu.Unlock()
		return false, nil
	}
	a.search = term
	a.resetLocked()
	a.mu.Unlock()
	return a.LoadMore(ctx)
}

// cursorLocked is the cursor of the page to load next.
func (a *Accumulator[T]) cursorLocked() int64 {
	if !a.started || a.next == nil {
		return InitialCursor
	}
	return *a.next
}

func (a *Accumulator[T]) resetLocked() {
	a.gen++
	a.items = []T{}
	a.next = nil
	a.started = false
	a.done = false
	a.inflight = false
	a.err = nil
}

// State returns a snapshot safe to read from any goroutine.
func (a *Accumulator[T]) State() AccumulatorState[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := make([]T, len(a.items))
	copy(items, a.items)
	return AccumulatorState[T]{
		Items:      items,
		NextCursor: copyCursor(a.next),
		Search:     a.search,
		Loading:    a.inflight,
		Done:       a.done,
		Err:        a.err,
	}
}

// Len returns the number of accumulated rows.
func (a *Accumulator[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}
