package queue

import "github.com/opencode-ai/mcp-gateway/pkg/types"

// entry wraps a queue item with the insertion sequence used to break
// priority ties in FIFO order.
type entry struct {
	item *types.QueueItem
	seq  int64
}

// itemHeap is a min-heap ordered by (priority, seq): lower priority value
// wins, ties broken by earlier insertion.
type itemHeap []*entry

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].item.Priority != h[j].item.Priority {
		return h[i].item.Priority < h[j].item.Priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) {
	*h = append(*h, x.(*entry))
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
