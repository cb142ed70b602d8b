package queue

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scores = []float32{0.4, 9, 0.001, 0.0534, 0.234, 2.03, 2.042, 2.532, 1.0009, 0.329, 10.03, 1.039}

func TestMaxHeap(t *testing.T) {
	c := &Candidates{Desc: true}
	heap.Init(c)

	for i, s := range scores {
		heap.Push(c, &Item{ID: uint32(i), Score: s})
	}

	top := c.Top()
	require.NotNil(t, top)
	assert.Equal(t, float32(10.03), top.Score)
	assert.Equal(t, uint32(10), top.ID)
	assert.Equal(t, len(scores), c.Len())

	// Pruning from the top drops the worst candidates first.
	for c.Len() > 5 {
		heap.Pop(c)
	}

	remaining := make([]float32, 0, c.Len())
	for c.Len() > 0 {
		item, _ := heap.Pop(c).(*Item)
		remaining = append(remaining, item.Score)
	}

	assert.Equal(t, []float32{1.0009, 1.039, 0.4, 0.329, 0.234}, remaining)
}

func TestMinHeap(t *testing.T) {
	c := &Candidates{}
	heap.Init(c)

	for i, s := range scores {
		heap.Push(c, &Item{ID: uint32(i), Score: s})
	}

	top := c.Top()
	require.NotNil(t, top)
	assert.Equal(t, float32(0.001), top.Score)

	// Popping yields ascending scores.
	prev := float32(-1)
	for c.Len() > 0 {
		item, _ := heap.Pop(c).(*Item)
		assert.GreaterOrEqual(t, item.Score, prev)
		prev = item.Score
	}
}

func TestEmptyQueue(t *testing.T) {
	c := &Candidates{}
	assert.Nil(t, c.Top())
	assert.Nil(t, c.Pop())
	assert.Equal(t, 0, c.Len())
}
