package escuela

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_AppendsUntilExhausted(t *testing.T) {
	src := newRowSource(25)
	a := NewAccumulator(src.fetch, WithPageSize(10))
	ctx := testContext(t)

	for i := 0; i < 3; i++ {
		merged, err := a.LoadMore(ctx)
		require.NoError(t, err)
		assert.True(t, merged)
	}
	st := a.State()
	assert.Equal(t, ids(1, 25), st.Items)
	assert.True(t, st.Done)

	merged, err := a.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Len(t, src.requests(), 3, "terminal state issues no request")

	reqs := src.requests()
	assert.Equal(t, []int64{0, 10, 20}, []int64{reqs[0].LastSeenID, reqs[1].LastSeenID, reqs[2].LastSeenID})
}

func TestAccumulator_OverlappingLoadsShareOneRequest(t *testing.T) {
	src := newRowSource(100)
	src.gate = make(chan struct{})
	a := NewAccumulator(src.fetch, WithPageSize(10))
	ctx := testContext(t)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.LoadMore(ctx)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return len(src.requests()) == 1 }, time.Second, 5*time.Millisecond)

	// A scroll while loading is ignored.
	triggered, err := a.OnScroll(ctx, ScrollPosition{Offset: 990, Viewport: 10, Content: 1000})
	require.NoError(t, err)
	assert.False(t, triggered)

	close(src.gate)
	wg.Wait()

	assert.Len(t, src.requests(), 1)
	assert.Equal(t, ids(1, 10), a.State().Items, "merged once")
}

func TestAccumulator_OnScroll(t *testing.T) {
	src := newRowSource(30)
	a := NewAccumulator(src.fetch, WithPageSize(10))
	ctx := testContext(t)
	_, err := a.LoadMore(ctx)
	require.NoError(t, err)

	triggered, err := a.OnScroll(ctx, ScrollPosition{Offset: 0, Viewport: 100, Content: 560})
	require.NoError(t, err)
	assert.False(t, triggered, "far from bottom")

	triggered, err = a.OnScroll(ctx, ScrollPosition{Offset: 420, Viewport: 100, Content: 560})
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.Equal(t, 20, a.Len())
}

func TestAccumulator_SearchDropsInflight(t *testing.T) {
	gate := make(chan struct{})
	fetch := func(ctx context.Context, req PageRequest) (*Page[string], error) {
		if req.Search == "" {
			<-gate
			return &Page[string]{Items: []string{"old"}}, nil
		}
		return &Page[string]{Items: []string{"new-" + req.Search}}, nil
	}
	a := NewAccumulator(fetch)
	ctx := testContext(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.LoadMore(ctx)
	}()
	require.Eventually(t, func() bool { return a.State().Loading }, time.Second, 5*time.Millisecond)

	changed, err := a.SetSearch(ctx, "luis")
	require.NoError(t, err)
	assert.True(t, changed)
	close(gate)
	<-done

	st := a.State()
	assert.Equal(t, []string{"new-luis"}, st.Items)
	assert.True(t, st.Done)
	assert.False(t, st.Loading)
}

func TestAccumulator_ResetReloads(t *testing.T) {
	src := newRowSource(15)
	a := NewAccumulator(src.fetch, WithPageSize(10))
	ctx := testContext(t)
	_, _ = a.LoadMore(ctx)
	_, _ = a.LoadMore(ctx)
	require.True(t, a.State().Done)

	_, err := a.Reset(ctx)
	require.NoError(t, err)
	st := a.State()
	assert.Equal(t, ids(1, 10), st.Items)
	assert.False(t, st.Done)
}

func TestAccumulator_NoSessionIsNoop(t *testing.T) {
	src := newRowSource(5)
	a := NewAccumulator(src.fetch, WithViewSession(&MemorySession{}))
	merged, err := a.LoadMore(testContext(t))
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Empty(t, src.requests())
}

func TestAccumulator_LosingSessionKeepsState(t *testing.T) {
	src := newRowSource(25)
	sess := NewMemorySession("tok")
	a := NewAccumulator(src.fetch, WithPageSize(10), WithViewSession(sess))
	ctx := testContext(t)
	_, err := a.LoadMore(ctx)
	require.NoError(t, err)
	calls := len(src.requests())

	require.NoError(t, sess.Clear())

	changed, err := a.Reset(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	changed, err = a.SetSearch(ctx, "luis")
	require.NoError(t, err)
	assert.False(t, changed)

	st := a.State()
	assert.Equal(t, ids(1, 10), st.Items)
	assert.Empty(t, st.Search)
	require.NotNil(t, st.NextCursor)
	assert.Len(t, src.requests(), calls)
}
