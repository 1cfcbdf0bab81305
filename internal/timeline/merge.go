package timeline

import (
	"main/internal/schema"
)

// Merger performs the k-way merge across timelines. It keeps the
// timelines in a flat arena and orders live ones through an index
// min-heap keyed by their head messages, so the hot loop neither
// allocates nor chases pointers. A timeline whose head drains is retired
// from the heap; retirement never stops the merge while others remain.
type Merger struct {
	arena []*Timeline
	heap  []int
}

// NewMerger primes every timeline and builds the heap.
func NewMerger(timelines ...*Timeline) (*Merger, error) {
	m := &Merger{arena: timelines, heap: make([]int, 0, len(timelines))}
	for i, t := range timelines {
		if err := t.Prime(); err != nil {
			return nil, err
		}
		if _, ok := t.Head(); ok {
			m.heap = append(m.heap, i)
		}
	}
	for i := len(m.heap)/2 - 1; i >= 0; i-- {
		m.siftDown(i)
	}
	return m, nil
}

// Live returns the number of timelines still participating in the merge.
func (m *Merger) Live() int { return len(m.heap) }

// Peek returns the earliest pending message across all live timelines.
func (m *Merger) Peek() (schema.Message, bool) {
	if len(m.heap) == 0 {
		return schema.Message{}, false
	}
	head, _ := m.arena[m.heap[0]].Head()
	return head, true
}

// Pop consumes the earliest pending message, advances its timeline and
// restores the heap order.
func (m *Merger) Pop() (schema.Message, error) {
	t := m.arena[m.heap[0]]
	msg, _ := t.Head()
	if err := t.Advance(); err != nil {
		return schema.Message{}, err
	}
	if _, ok := t.Head(); ok {
		m.siftDown(0)
	} else {
		last := len(m.heap) - 1
		m.heap[0] = m.heap[last]
		m.heap = m.heap[:last]
		if len(m.heap) > 0 {
			m.siftDown(0)
		}
	}
	return msg, nil
}

// Restart rewinds every timeline and rebuilds the heap for a fresh run.
func (m *Merger) Restart() error {
	m.heap = m.heap[:0]
	for i, t := range m.arena {
		if err := t.Restart(); err != nil {
			return err
		}
		if err := t.Prime(); err != nil {
			return err
		}
		if _, ok := t.Head(); ok {
			m.heap = append(m.heap, i)
		}
	}
	for i := len(m.heap)/2 - 1; i >= 0; i-- {
		m.siftDown(i)
	}
	return nil
}

func (m *Merger) less(i, j int) bool {
	a, _ := m.arena[m.heap[i]].Head()
	b, _ := m.arena[m.heap[j]].Head()
	return schema.Less(a, b)
}

func (m *Merger) siftDown(i int) {
	n := len(m.heap)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && m.less(left, smallest) {
			smallest = left
		}
		if right < n && m.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			return
		}
		m.heap[i], m.heap[smallest] = m.heap[smallest], m.heap[i]
		i = smallest
	}
}
