package escuela

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	vals []string
	ch   chan string
}

func newRecorder() *recorder { return &recorder{ch: make(chan string, 16)} }

func (r *recorder) call(v string) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
	r.ch <- v
}

func (r *recorder) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.vals...)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(40*time.Millisecond, rec.call)
	defer d.Stop()

	d.Input("ab")
	d.Input("abc")

	select {
	case v := <-rec.ch:
		assert.Equal(t, "abc", v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never fired")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"abc"}, rec.values())
}

func TestDebouncer_EmptyFiresImmediately(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(time.Hour, rec.call)
	defer d.Stop()

	d.Input("abc")
	d.Input("   ")
	require.Equal(t, []string{""}, rec.values())
	assert.False(t, d.Pending(), "empty input cancels the pending term")
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(30*time.Millisecond, rec.call)

	d.Input("ana")
	d.Stop()
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.values())

	d.Input("later")
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.values())
}

func TestDebouncer_Flush(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(time.Hour, rec.call)
	defer d.Stop()

	d.Input("per")
	assert.True(t, d.Pending())
	d.Flush()
	assert.Equal(t, []string{"per"}, rec.values())
	d.Flush()
	assert.Equal(t, []string{"per"}, rec.values())
}
