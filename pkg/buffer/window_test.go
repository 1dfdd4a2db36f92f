package buffer

import (
	"slices"
	"testing"
)

func TestWindow(t *testing.T) {
	t.Run("under bound", func(t *testing.T) {
		w := WindowN[int](5)
		w.Append([]int{1, 2, 3})
		if w.Len() != 3 {
			t.Errorf("len=%d", w.Len())
		}
		if got := w.Tail(3); !slices.Equal(got, []int{1, 2, 3}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("truncates from front", func(t *testing.T) {
		w := WindowN[int](5)
		w.Append([]int{1, 2, 3})
		w.Append([]int{4, 5, 6, 7})
		if w.Len() != 5 {
			t.Errorf("len=%d", w.Len())
		}
		if got := w.Tail(5); !slices.Equal(got, []int{3, 4, 5, 6, 7}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("append larger than bound", func(t *testing.T) {
		w := WindowN[int](3)
		w.Append([]int{1, 2, 3, 4, 5, 6})
		if got := w.Tail(3); !slices.Equal(got, []int{4, 5, 6}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("tail shorter than n", func(t *testing.T) {
		w := WindowN[int](5)
		w.Append([]int{1, 2})
		if got := w.Tail(10); !slices.Equal(got, []int{1, 2}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("tail is a copy", func(t *testing.T) {
		w := WindowN[int](5)
		w.Append([]int{1, 2, 3})
		got := w.Tail(3)
		got[0] = 99
		if again := w.Tail(3); again[0] != 1 {
			t.Errorf("window mutated through tail: %v", again)
		}
	})

	t.Run("reset", func(t *testing.T) {
		w := WindowN[int](5)
		w.Append([]int{1, 2, 3})
		w.Reset()
		if w.Len() != 0 {
			t.Errorf("len=%d", w.Len())
		}
		w.Append([]int{9})
		if got := w.Tail(1); !slices.Equal(got, []int{9}) {
			t.Errorf("got=%v", got)
		}
	})
}
