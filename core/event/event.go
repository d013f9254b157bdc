// Package event defines the event record published onto the bus.
// An event is a name plus an open payload; the bus interprets only the
// reserved source and target keys.
package event

import (
	"fmt"
	"math"
	"sort"
)

// Reserved payload keys interpreted by the bus.
const (
	// KeySource holds the receiver that originated the event.
	KeySource = "source"
	// KeyTarget holds the receiver the event is aimed at.
	KeyTarget = "target"
)

// Data is the open payload carried by an event.
// A nil Data is valid and behaves as an empty payload.
type Data map[string]any

// Source returns the value stored under KeySource, or nil.
func (d Data) Source() any {
	if d == nil {
		return nil
	}
	return d[KeySource]
}

// Target returns the value stored under KeyTarget, or nil.
func (d Data) Target() any {
	if d == nil {
		return nil
	}
	return d[KeyTarget]
}

// Int returns the payload value under key as an int.
// Any Go numeric type is accepted as long as it holds a whole number that
// fits in an int; ok is false otherwise.
func (d Data) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return intFromInt64(v)
	case uint:
		return intFromUint64(uint64(v))
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return intFromUint64(uint64(v))
	case uint64:
		return intFromUint64(v)
	case float32:
		return intFromFloat(float64(v))
	case float64:
		return intFromFloat(v)
	default:
		return 0, false
	}
}

func intFromInt64(v int64) (int, bool) {
	if v < math.MinInt || v > math.MaxInt {
		return 0, false
	}
	return int(v), true
}

func intFromUint64(v uint64) (int, bool) {
	if v > math.MaxInt {
		return 0, false
	}
	return int(v), true
}

func intFromFloat(f float64) (int, bool) {
	if f != math.Trunc(f) || f < float64(math.MinInt) || f >= float64(math.MaxInt)+1 {
		return 0, false
	}
	return int(f), true
}

// String returns the payload value under key as a string.
func (d Data) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

// Has reports whether key is present in the payload.
func (d Data) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Clone returns a shallow copy of the payload.
// Receiver references are copied as references.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Keys returns the payload keys in sorted order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Event is a named message waiting in, or popped from, the bus queue.
// The bus never mutates an event once it has been published.
type Event struct {
	Name string
	Data Data
}

// New creates an event with the given name and payload.
func New(name string, data Data) Event {
	return Event{Name: name, Data: data}
}

// String returns a short description for logging/debugging.
func (e Event) String() string {
	return fmt.Sprintf("%s%v", e.Name, e.Data.Keys())
}
