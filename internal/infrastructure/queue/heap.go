package queue

import "github.com/tdex-network/tdex-execd/internal/core/domain"

// jobHeap orders waiting jobs by priority class first and by sequence number
// within the same class. It implements container/heap.Interface.
type jobHeap []*domain.Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool { return h[i].Less(h[j]) }

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x interface{}) {
	*h = append(*h, x.(*domain.Job))
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return job
}
