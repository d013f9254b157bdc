package eventbus

import (
	"strings"
	"testing"

	"rpgbase-go/core/event"
)

func TestQueue_Order(t *testing.T) {
	q := newQueue(2)

	q.pushBack(event.New("b", nil))
	q.pushBack(event.New("c", nil))
	q.pushFront(event.New("a", nil))
	q.pushBack(event.New("d", nil))
	q.pushFront(event.New("z", nil))

	if got := strings.Join(q.names(), ","); got != "z,a,b,c,d" {
		t.Errorf("names() = %v, want z,a,b,c,d", got)
	}

	var popped []string
	for {
		e, ok := q.popFront()
		if !ok {
			break
		}
		popped = append(popped, e.Name)
	}
	if got := strings.Join(popped, ","); got != "z,a,b,c,d" {
		t.Errorf("pop order = %v, want z,a,b,c,d", got)
	}
	if q.len() != 0 {
		t.Errorf("len() = %d, want 0", q.len())
	}
}

func TestQueue_WrapAround(t *testing.T) {
	q := newQueue(4)

	for i := 0; i < 20; i++ {
		q.pushBack(event.New("x", event.Data{"i": i}))
		e, _ := q.popFront()
		if got, _ := e.Data.Int("i"); got != i {
			t.Fatalf("popped %d, want %d", got, i)
		}
	}
	if q.len() != 0 {
		t.Errorf("len() = %d, want 0", q.len())
	}
}

func TestQueue_DefaultCapacity(t *testing.T) {
	q := newQueue(0)
	if len(q.buf) != 16 {
		t.Errorf("capacity = %d, want 16", len(q.buf))
	}
	if _, ok := q.popFront(); ok {
		t.Error("popFront on empty queue should report false")
	}
}
