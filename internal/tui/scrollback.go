package tui

import "strings"

// ScrollbackRenderFunc renders one buffered item as a single display line.
type ScrollbackRenderFunc[T any] func(item T) string

// Scrollback is a capped output buffer with virtual rendering: only the rows
// inside the viewport are rendered, so a full buffer scrolls without
// re-rendering thousands of styled lines per frame.
//
// The buffer follows the tail by default. Scrolling up detaches it; scrolling
// back to the bottom reattaches it, so new output resumes auto-scrolling.
type Scrollback[T any] struct {
	items  []T
	render ScrollbackRenderFunc[T]

	// max is the buffer cap. Once reached, appends drop the oldest items.
	max    int
	offset int
	height int
	follow bool
}

// NewScrollback creates a buffer holding at most max items, rendering height
// rows at a time.
func NewScrollback[T any](max, height int, render ScrollbackRenderFunc[T]) *Scrollback[T] {
	if max < 1 {
		max = 1
	}
	if height < 1 {
		height = 1
	}
	return &Scrollback[T]{
		render: render,
		max:    max,
		height: height,
		follow: true,
	}
}

// Append adds an item, dropping the oldest when the buffer is full. While the
// buffer is following the tail, the viewport advances with the new item.
func (s *Scrollback[T]) Append(item T) {
	s.items = append(s.items, item)
	if len(s.items) > s.max {
		overflow := len(s.items) - s.max
		s.items = append(s.items[:0], s.items[overflow:]...)
		s.offset -= overflow
		if s.offset < 0 {
			s.offset = 0
		}
	}
	if s.follow {
		s.offset = s.maxOffset()
	}
}

// Clear drops every buffered item and reattaches the viewport to the tail.
func (s *Scrollback[T]) Clear() {
	s.items = s.items[:0]
	s.offset = 0
	s.follow = true
}

// Len reports the number of buffered items.
func (s *Scrollback[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the buffered items, oldest first.
func (s *Scrollback[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Following reports whether the viewport is attached to the tail.
func (s *Scrollback[T]) Following() bool {
	return s.follow
}

// Resize sets the viewport height in rows. A following viewport stays on the
// tail; a detached one keeps its position where possible.
func (s *Scrollback[T]) Resize(height int) {
	if height < 1 {
		height = 1
	}
	s.height = height
	s.clamp()
}

// ScrollUp moves the viewport n rows toward the oldest item and detaches it
// from the tail.
func (s *Scrollback[T]) ScrollUp(n int) {
	s.offset -= n
	s.follow = false
	s.clamp()
}

// ScrollDown moves the viewport n rows toward the newest item. Reaching the
// bottom reattaches it to the tail.
func (s *Scrollback[T]) ScrollDown(n int) {
	s.offset += n
	s.clamp()
	s.follow = s.offset == s.maxOffset()
}

// PageUp scrolls one viewport height toward the oldest item.
func (s *Scrollback[T]) PageUp() {
	s.ScrollUp(s.height)
}

// PageDown scrolls one viewport height toward the newest item.
func (s *Scrollback[T]) PageDown() {
	s.ScrollDown(s.height)
}

// Top jumps to the oldest item and detaches from the tail.
func (s *Scrollback[T]) Top() {
	s.offset = 0
	s.follow = len(s.items) <= s.height
}

// Bottom jumps to the newest item and reattaches to the tail.
func (s *Scrollback[T]) Bottom() {
	s.offset = s.maxOffset()
	s.follow = true
}

// View renders the visible rows joined by newlines. Short buffers render
// fewer rows than the viewport height; empty buffers render nothing.
func (s *Scrollback[T]) View() string {
	if len(s.items) == 0 {
		return ""
	}

	from := s.offset
	to := from + s.height
	if to > len(s.items) {
		to = len(s.items)
	}

	var b strings.Builder
	for i := from; i < to; i++ {
		if i > from {
			b.WriteByte('\n')
		}
		b.WriteString(s.render(s.items[i]))
	}
	return b.String()
}

func (s *Scrollback[T]) maxOffset() int {
	if len(s.items) <= s.height {
		return 0
	}
	return len(s.items) - s.height
}

func (s *Scrollback[T]) clamp() {
	if s.offset > s.maxOffset() {
		s.offset = s.maxOffset()
	}
	if s.offset < 0 {
		s.offset = 0
	}
	if s.follow {
		s.offset = s.maxOffset()
	}
}
