// Package rank holds the binary max-heap used to order scored feed items.
package rank

// MaxHeap is a binary max-heap over any item type. Ordering comes from the
// score function given to NewMaxHeap; ties keep no particular order.
type MaxHeap[T any] struct {
	items []T
	score func(T) float64
}

func NewMaxHeap[T any](score func(T) float64) *MaxHeap[T] {
	return &MaxHeap[T]{score: score}
}

func (h *MaxHeap[T]) Len() int {
	return len(h.items)
}

// Insert appends item and sifts it up to its place.
func (h *MaxHeap[T]) Insert(item T) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// ExtractMax removes and returns the highest scored item. ok is false when
// the heap is empty.
func (h *MaxHeap[T]) ExtractMax() (item T, ok bool) {
	if len(h.items) == 0 {
		return item, false
	}

	top := h.items[0]
	last := len(h.items) - 1
	tail := h.items[last]
	var zero T
	h.items[last] = zero
	h.items = h.items[:last]

	if len(h.items) > 0 {
		h.items[0] = tail
		h.siftDown(0)
	}
	return top, true
}

// Peek returns the highest scored item without removing it.
func (h *MaxHeap[T]) Peek() (item T, ok bool) {
	if len(h.items) == 0 {
		return item, false
	}
	return h.items[0], true
}

// TopN returns up to n items from highest to lowest score. It drains a copy,
// so the receiver is left untouched.
func (h *MaxHeap[T]) TopN(n int) []T {
	if n <= 0 || len(h.items) == 0 {
		return []T{}
	}

	tmp := &MaxHeap[T]{
		items: make([]T, len(h.items)),
		score: h.score,
	}
	copy(tmp.items, h.items)

	if n > len(tmp.items) {
		n = len(tmp.items)
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		item, _ := tmp.ExtractMax()
		out = append(out, item)
	}
	return out
}

// Index returns the backing position of the first item matching, or -1.
func (h *MaxHeap[T]) Index(match func(T) bool) int {
	for i, item := range h.items {
		if match(item) {
			return i
		}
	}
	return -1
}

// Fix restores heap order after the score of the item at position i changed
// in either direction.
func (h *MaxHeap[T]) Fix(i int) {
	if i < 0 || i >= len(h.items) {
		return
	}
	if !h.siftUp(i) {
		h.siftDown(i)
	}
}

// siftUp reports whether the item moved.
func (h *MaxHeap[T]) siftUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if h.score(h.items[parent]) >= h.score(h.items[i]) {
			break
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
		moved = true
	}
	return moved
}

func (h *MaxHeap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		larger := left
		if right := left + 1; right < n && h.score(h.items[right]) > h.score(h.items[left]) {
			larger = right
		}
		if h.score(h.items[i]) >= h.score(h.items[larger]) {
			return
		}
		h.items[i], h.items[larger] = h.items[larger], h.items[i]
		i = larger
	}
}
