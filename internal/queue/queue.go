// Package queue implements the inbound multi-producer, single-consumer task
// queue used to submit Work closures to the event loop goroutine. The queue
// synchronizes itself: Push is safe from any goroutine at any time, with no
// external locking required of callers, while Pop is reserved for the single
// consumer.
package queue

import "sync"

const chunkSize = 128

var chunkPool = sync.Pool{
	New: func() any { return &chunk{} },
}

type chunk struct {
	tasks   [chunkSize]func()
	next    *chunk
	readPos int
	pos     int
}

func newChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

func returnChunk(c *chunk) {
	for i := 0; i < c.pos; i++ {
		c.tasks[i] = nil
	}
	c.pos = 0
	c.readPos = 0
	c.next = nil
	chunkPool.Put(c)
}

// Queue is a chunked linked-list FIFO of closures. An internal mutex guards
// all list manipulation, so any number of producer goroutines may Push
// concurrently with each other and with the consumer's Pop; tasks from a
// single producer are delivered in submission order. Drained chunks are
// recycled through a pool rather than reallocated.
type Queue struct {
	mu     sync.Mutex
	head   *chunk
	tail   *chunk
	length int
}

// New creates an empty Queue.
func New() *Queue { return &Queue{} }

// Push enqueues task. Safe to call from any goroutine.
func (q *Queue) Push(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tail == nil {
		q.tail = newChunk()
		q.head = q.tail
	}
	if q.tail.pos == len(q.tail.tasks) {
		newTail := newChunk()
		q.tail.next = newTail
		q.tail = newTail
	}
	q.tail.tasks[q.tail.pos] = task
	q.tail.pos++
	q.length++
}

// Pop dequeues the oldest task, returning false if the queue is empty.
// Intended to be called only from the single consumer goroutine.
func (q *Queue) Pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == nil {
		return nil, false
	}
	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
			return nil, false
		}
		old := q.head
		q.head = q.head.next
		returnChunk(old)
	}
	if q.head.readPos >= q.head.pos {
		return nil, false
	}

	task := q.head.tasks[q.head.readPos]
	q.head.tasks[q.head.readPos] = nil
	q.head.readPos++
	q.length--

	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
		} else {
			old := q.head
			q.head = q.head.next
			returnChunk(old)
		}
	}
	return task, true
}

// Len reports the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}
