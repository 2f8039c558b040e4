package queue_test

import (
	"sync"
	"testing"

	"github.com/jarlopez/petty/internal/queue"
	"github.com/stretchr/testify/assert"
)

func TestPopOnEmptyQueue(t *testing.T) {
	q := queue.New()
	task, ok := q.Pop()
	assert.False(t, ok)
	assert.Nil(t, task)
	assert.Equal(t, 0, q.Len())
}

func TestFIFOOrderWithinOneChunk(t *testing.T) {
	q := queue.New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Push(func() { order = append(order, i) })
	}
	assert.Equal(t, 5, q.Len())
	for i := 0; i < 5; i++ {
		task, ok := q.Pop()
		assert.True(t, ok)
		task()
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, q.Len())
}

func TestFIFOOrderAcrossChunkBoundary(t *testing.T) {
	q := queue.New()
	const n = 300 // spans more than two 128-task chunks
	var order []int
	for i := 0; i < n; i++ {
		i := i
		q.Push(func() { order = append(order, i) })
	}
	assert.Equal(t, n, q.Len())
	for i := 0; i < n; i++ {
		task, ok := q.Pop()
		assert.True(t, ok)
		task()
	}
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestQueueDrainsToEmptyAndCanBeRefilled(t *testing.T) {
	q := queue.New()
	q.Push(func() {})
	_, ok := q.Pop()
	assert.True(t, ok)
	_, ok = q.Pop()
	assert.False(t, ok)

	ran := false
	q.Push(func() { ran = true })
	task, ok := q.Pop()
	assert.True(t, ok)
	task()
	assert.True(t, ran)
}

func TestConcurrentPushSingleConsumer(t *testing.T) {
	q := queue.New()
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		p := p
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := p*perProducer + i
				q.Push(func() { _ = v })
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		task, ok := q.Pop()
		if !ok {
			break
		}
		task()
		count++
	}
	assert.Equal(t, producers*perProducer, count)
	assert.Equal(t, 0, q.Len())
}
