package watch

import "container/heap"

// Merge performs a k-way merge of the per-group batches produced by one
// fetch round. Each batch is already sorted (the source API guarantees
// per-group order), so the merge is a heap walk rather than a full sort.
// The result is ordered by (timestamp, sequence, group) ascending; the
// tie-break keys make the order deterministic and nothing more. Merging
// never reorders across rounds: callers emit each round's result before
// the next round starts.
func Merge(batches [][]Event) []Event {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	if total == 0 {
		return nil
	}

	h := make(mergeHeap, 0, len(batches))
	for i, batch := range batches {
		if len(batch) > 0 {
			h = append(h, mergeSource{events: batch, index: i})
		}
	}
	heap.Init(&h)

	merged := make([]Event, 0, total)
	for h.Len() > 0 {
		src := &h[0]
		merged = append(merged, src.events[src.pos])
		src.pos++
		if src.pos == len(src.events) {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}
	return merged
}

type mergeSource struct {
	events []Event
	pos    int
	index  int
}

type mergeHeap []mergeSource

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	a, b := h[i].events[h[i].pos], h[j].events[h[j].pos]
	if a.Less(b) {
		return true
	}
	if b.Less(a) {
		return false
	}
	// Identical keys can only come from distinct batches; keep the merge
	// stable by batch position.
	return h[i].index < h[j].index
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(mergeSource)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
