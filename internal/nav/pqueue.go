package nav

import (
	"container/heap"

	"github.com/talgya/tidewater/internal/world"
)

// searchNode is one frontier entry of the A* search.
type searchNode struct {
	coord  world.HexCoord
	g      int // cost from start
	f      int // g + heuristic
	seq    uint64
	index  int
	parent *searchNode
}

// nodeHeap orders nodes by f, then by insertion sequence so equal-f ties
// always resolve first-in first-out.
type nodeHeap []*searchNode

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// PriorityQueue is a binary min-heap of search nodes keyed by total
// estimated cost. Insert and ExtractMin are O(log n).
type PriorityQueue struct {
	nodes nodeHeap
	seq   uint64
}

// Insert adds a node to the queue.
func (pq *PriorityQueue) Insert(n *searchNode) {
	n.seq = pq.seq
	pq.seq++
	heap.Push(&pq.nodes, n)
}

// ExtractMin removes and returns the node with the lowest f.
// Returns nil when the queue is empty.
func (pq *PriorityQueue) ExtractMin() *searchNode {
	if len(pq.nodes) == 0 {
		return nil
	}
	return heap.Pop(&pq.nodes).(*searchNode)
}

// IsEmpty reports whether the queue holds no nodes.
func (pq *PriorityQueue) IsEmpty() bool {
	return len(pq.nodes) == 0
}

// Len returns the number of queued nodes.
func (pq *PriorityQueue) Len() int {
	return len(pq.nodes)
}
