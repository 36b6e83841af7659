package kmerhash

// hashHeap keeps the retained hash values of a sketch with the next value to
// evict at the root: a max-heap for MinHash sketches and a min-heap for
// MaxHash sketches. Index-based for O(log n) push and replace.
type hashHeap struct {
	values      []uint64
	keepLargest bool // MaxHash: evict the smallest
}

func newHashHeap(capacity int, keepLargest bool) *hashHeap {
	return &hashHeap{
		values:      make([]uint64, 0, capacity),
		keepLargest: keepLargest,
	}
}

func (h *hashHeap) len() int {
	return len(h.values)
}

// top returns the value that would be evicted next. Precondition: len() > 0.
func (h *hashHeap) top() uint64 {
	return h.values[0]
}

// better reports whether v should displace the current top.
func (h *hashHeap) better(v, top uint64) bool {
	if h.keepLargest {
		return v > top
	}
	return v < top
}

func (h *hashHeap) push(v uint64) {
	h.values = append(h.values, v)
	h.up(len(h.values) - 1)
}

// replaceTop swaps the root for v and returns the evicted root. O(log n).
func (h *hashHeap) replaceTop(v uint64) uint64 {
	out := h.values[0]
	h.values[0] = v
	h.down(0, len(h.values))
	return out
}

func (h *hashHeap) less(i, j int) bool {
	if h.keepLargest {
		return h.values[i] < h.values[j]
	}
	return h.values[i] > h.values[j]
}

func (h *hashHeap) swap(i, j int) {
	h.values[i], h.values[j] = h.values[j], h.values[i]
}

func (h *hashHeap) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || !h.less(j, i) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *hashHeap) down(i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && h.less(j2, j1) {
			j = j2 // right child
		}
		if !h.less(j, i) {
			break
		}
		h.swap(i, j)
		i = j
	}
}
