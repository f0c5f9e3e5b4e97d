package tui

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScrollback(max, height int) *Scrollback[int] {
	return NewScrollback(max, height, func(item int) string {
		return strconv.Itoa(item)
	})
}

func fill(s *Scrollback[int], n int) {
	for i := 0; i < n; i++ {
		s.Append(i)
	}
}

func TestScrollbackFollowsTail(t *testing.T) {
	s := newTestScrollback(100, 3)
	fill(s, 5)

	require.True(t, s.Following())
	assert.Equal(t, "2\n3\n4", s.View())
}

func TestScrollbackDropsOldestAtCap(t *testing.T) {
	s := newTestScrollback(4, 10)
	fill(s, 6)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []int{2, 3, 4, 5}, s.Items())
}

func TestScrollbackScrollUpDetaches(t *testing.T) {
	s := newTestScrollback(100, 3)
	fill(s, 10)

	s.ScrollUp(2)
	require.False(t, s.Following())
	assert.Equal(t, "5\n6\n7", s.View())

	// New output must not move a detached viewport.
	s.Append(10)
	assert.Equal(t, "5\n6\n7", s.View())
}

func TestScrollbackScrollDownReattaches(t *testing.T) {
	s := newTestScrollback(100, 3)
	fill(s, 10)

	s.ScrollUp(4)
	require.False(t, s.Following())

	s.ScrollDown(4)
	require.True(t, s.Following())

	s.Append(10)
	assert.Equal(t, "8\n9\n10", s.View())
}

func TestScrollbackPageMovement(t *testing.T) {
	s := newTestScrollback(100, 4)
	fill(s, 20)

	s.PageUp()
	assert.Equal(t, "12\n13\n14\n15", s.View())

	s.PageUp()
	assert.Equal(t, "8\n9\n10\n11", s.View())

	s.PageDown()
	s.PageDown()
	assert.True(t, s.Following())
}

func TestScrollbackTopAndBottom(t *testing.T) {
	s := newTestScrollback(100, 3)
	fill(s, 10)

	s.Top()
	assert.Equal(t, "0\n1\n2", s.View())
	assert.False(t, s.Following())

	s.Bottom()
	assert.Equal(t, "7\n8\n9", s.View())
	assert.True(t, s.Following())
}

func TestScrollbackClearReattaches(t *testing.T) {
	s := newTestScrollback(100, 3)
	fill(s, 10)
	s.ScrollUp(5)

	s.Clear()

	assert.Zero(t, s.Len())
	assert.Empty(t, s.View())
	assert.True(t, s.Following())

	s.Append(42)
	assert.Equal(t, "42", s.View())
}

func TestScrollbackShortBufferRendersAllRows(t *testing.T) {
	s := newTestScrollback(100, 10)
	fill(s, 3)

	assert.Equal(t, "0\n1\n2", s.View())
	assert.True(t, s.Following())
}

func TestScrollbackResizeKeepsTail(t *testing.T) {
	s := newTestScrollback(100, 3)
	fill(s, 10)

	s.Resize(5)
	assert.Equal(t, "5\n6\n7\n8\n9", s.View())

	s.Resize(2)
	assert.Equal(t, "8\n9", s.View())
}

func TestScrollbackTrimAdjustsDetachedOffset(t *testing.T) {
	s := newTestScrollback(5, 2)
	fill(s, 5)

	s.Top()
	require.Equal(t, "0\n1", s.View())

	// Appending past the cap drops item 0; the viewport stays on the oldest
	// remaining items.
	s.Append(5)
	assert.Equal(t, "1\n2", s.View())
}

func TestScrollbackItemsReturnsCopy(t *testing.T) {
	s := newTestScrollback(10, 2)
	fill(s, 3)

	items := s.Items()
	items[0] = 99

	assert.Equal(t, []int{0, 1, 2}, s.Items())
}
