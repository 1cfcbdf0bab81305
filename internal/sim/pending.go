package sim

import "main/internal/schema"

// pendingHeap holds entity-emitted messages awaiting re-insertion into
// the dispatch order. Min-heap by the global message order.
type pendingHeap struct {
	items []schema.Message
}

func (h *pendingHeap) len() int { return len(h.items) }

func (h *pendingHeap) peek() (schema.Message, bool) {
	if len(h.items) == 0 {
		return schema.Message{}, false
	}
	return h.items[0], true
}

func (h *pendingHeap) push(msg schema.Message) {
	h.items = append(h.items, msg)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !schema.Less(h.items[i], h.items[parent]) {
			return
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *pendingHeap) pop() (schema.Message, bool) {
	if len(h.items) == 0 {
		return schema.Message{}, false
	}
	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items = h.items[:last]

	i, n := 0, len(h.items)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && schema.Less(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && schema.Less(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			return top, true
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
