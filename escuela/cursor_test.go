package escuela

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorStore(t *testing.T) {
	var s CursorStore
	assert.Equal(t, InitialCursor, s.Pop(), "empty pop")

	s.Push(0)
	s.Push(20)
	s.Push(20)
	assert.Equal(t, []int64{0, 20}, s.Snapshot())
	assert.Equal(t, 2, s.Depth())

	assert.Equal(t, int64(20), s.Pop())
	assert.Equal(t, int64(0), s.Pop())
	assert.Equal(t, InitialCursor, s.Pop())

	s.Push(5)
	s.Reset()
	assert.Zero(t, s.Depth())
}

func TestCursorStore_PushPopSymmetry(t *testing.T) {
	s := NewCursorStore()
	pushed := []int64{0, 21, 42, 63}
	for _, c := range pushed {
		s.Push(c)
	}
	for i := len(pushed) - 1; i >= 0; i-- {
		assert.Equal(t, pushed[i], s.Pop())
	}
}

func TestCursorStore_Peek(t *testing.T) {
	var s CursorStore
	assert.Equal(t, InitialCursor, s.Peek())
	s.Push(0)
	s.Push(10)
	assert.Equal(t, int64(10), s.Peek())
	assert.Equal(t, 2, s.Depth(), "peek keeps the entry")
}
