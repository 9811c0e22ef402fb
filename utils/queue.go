package utils

import (
	"container/list"
	"context"
	"errors"
	"sync"
)

// ErrDequeClosed is returned by Get once the deque is closed and drained.
var ErrDequeClosed = errors.New("deque closed")

// Deque is an unbounded FIFO mailbox. Put never blocks; Get blocks until an
// item arrives, the context ends, or the deque is closed.
type Deque struct {
	sync.RWMutex
	notEmptyNotify chan struct{}
	container      *list.List
	closed         bool
}

func NewDeque() *Deque {
	return &Deque{container: list.New(), notEmptyNotify: make(chan struct{}, 1)}
}

// Put appends item. Items put after Close are dropped and Put returns false.
func (s *Deque) Put(item interface{}) bool {
	s.Lock()
	if s.closed {
		s.Unlock()
		return false
	}
	s.container.PushFront(item)
	s.Unlock()
	select {
	case s.notEmptyNotify <- struct{}{}:
	default:
	}
	return true
}

// Get removes the oldest item.
func (s *Deque) Get(ctx context.Context) (interface{}, error) {
	for {
		s.Lock()
		if back := s.container.Back(); back != nil {
			item := s.container.Remove(back)
			s.Unlock()
			return item, nil
		}
		closed := s.closed
		s.Unlock()
		if closed {
			return nil, ErrDequeClosed
		}

		select {
		case <-s.notEmptyNotify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (s *Deque) Len() int {
	s.RLock()
	defer s.RUnlock()
	return s.container.Len()
}

// Close stops accepting items. Queued items can still be drained with Get.
func (s *Deque) Close() {
	s.Lock()
	s.closed = true
	s.Unlock()
	select {
	case s.notEmptyNotify <- struct{}{}:
	default:
	}
}
