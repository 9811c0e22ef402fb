package common

import (
	"sync"
)

// Event fans a value out to every registered callback.
type Event[T any] struct {
	callbacks []func(T)
	mutex     sync.Mutex
}

// AddCallback adds a new callback to the event.
func (e *Event[T]) AddCallback(callback func(T)) {
	if callback == nil {
		return
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.callbacks = append(e.callbacks, callback)
}

// Fire calls every callback with data. Callbacks run on the caller's goroutine
// and must not block.
func (e *Event[T]) Fire(data T) {
	e.mutex.Lock()
	callbacks := make([]func(T), len(e.callbacks))
	copy(callbacks, e.callbacks)
	e.mutex.Unlock()

	for _, callback := range callbacks {
		callback(data)
	}
}

// Len returns the number of callbacks.
func (e *Event[T]) Len() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return len(e.callbacks)
}
