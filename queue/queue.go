// Package queue provides the bounded candidate heaps used by graph search.
package queue

import "container/heap"

// Compile time check to ensure Candidates satisfies the heap interface.
var _ heap.Interface = (*Candidates)(nil)

// Item is one search candidate: a slot id and its score.
type Item struct {
	ID    uint32  // ID is the index slot of the candidate.
	Score float32 // Score is the priority of the item in the queue.
	Index int     // Index is maintained by the heap.Interface methods.
}

// Candidates implements heap.Interface over Items.
//
// With Desc false the heap is a min-heap (best candidate on top when score is
// a distance); with Desc true it is a max-heap (worst candidate on top, used
// to bound result sets).
type Candidates struct {
	Desc  bool    // Desc orders the heap by descending score.
	Items []*Item // Items contains the elements of the queue.
}

// Len returns the number of elements in the queue.
func (c *Candidates) Len() int { return len(c.Items) }

// Less reports whether the element with index i should sort before the element with index j.
func (c *Candidates) Less(i, j int) bool {
	if c.Desc {
		return c.Items[i].Score > c.Items[j].Score
	}

	return c.Items[i].Score < c.Items[j].Score
}

// Swap swaps the elements with indexes i and j.
func (c *Candidates) Swap(i, j int) {
	c.Items[i], c.Items[j] = c.Items[j], c.Items[i]
	c.Items[i].Index, c.Items[j].Index = i, j
}

// Push adds x to the queue.
func (c *Candidates) Push(x any) {
	item, _ := x.(*Item)
	item.Index = len(c.Items)
	c.Items = append(c.Items, item)
}

// Pop removes and returns the top element from the queue.
func (c *Candidates) Pop() any {
	if len(c.Items) == 0 {
		return nil
	}

	old := c.Items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // Avoid memory leak
	item.Index = -1
	c.Items = old[:n-1]

	return item
}

// Top returns the top element without removing it.
func (c *Candidates) Top() *Item {
	if len(c.Items) == 0 {
		return nil
	}

	return c.Items[0]
}
