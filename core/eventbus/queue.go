package eventbus

import "rpgbase-go/core/event"

// queue is a double-ended ring buffer of events.
type queue struct {
	buf  []event.Event
	head int
	size int
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 16
	}
	return &queue{buf: make([]event.Event, capacity)}
}

func (q *queue) len() int {
	return q.size
}

// pushBack appends e after every queued event.
func (q *queue) pushBack(e event.Event) {
	q.grow()
	q.buf[(q.head+q.size)%len(q.buf)] = e
	q.size++
}

// pushFront places e ahead of every queued event.
func (q *queue) pushFront(e event.Event) {
	q.grow()
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = e
	q.size++
}

// popFront removes and returns the head event.
func (q *queue) popFront() (event.Event, bool) {
	if q.size == 0 {
		return event.Event{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = event.Event{} // release payload references
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return e, true
}

// names returns the queued event names, head first.
func (q *queue) names() []string {
	out := make([]string, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)].Name
	}
	return out
}

func (q *queue) grow() {
	if q.size < len(q.buf) {
		return
	}
	buf := make([]event.Event, len(q.buf)*2)
	for i := 0; i < q.size; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
