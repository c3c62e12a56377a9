// Package actor serialises operations on a single goroutine so that state
// owned by a controller has exactly one writer.
package actor

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("actor: queue closed")

type Queue struct {
	ops  chan func()
	done chan struct{}

	closeOnce sync.Once
	stopped   chan struct{}
}

func NewQueue() *Queue {
	q := &Queue{
		ops:     make(chan func(), 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case op := <-q.ops:
			op()
		case <-q.done:
			return
		}
	}
}

// Do runs fn on the queue and waits for it to finish.
// It must not be called from inside an operation of the same queue.
func (q *Queue) Do(fn func()) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn()
	}

	if q.closed() {
		return ErrClosed
	}
	select {
	case q.ops <- op:
	case <-q.done:
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-q.stopped:
		// The loop may have run op just before stopping.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Post schedules fn without waiting. It reports false when the queue is closed.
func (q *Queue) Post(fn func()) bool {
	if q.closed() {
		return false
	}
	select {
	case q.ops <- fn:
		return true
	case <-q.done:
		return false
	}
}

func (q *Queue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Close stops the loop. Operations still buffered are dropped.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	<-q.stopped
}

// Query runs fn on q and returns its result.
func Query[T any](q *Queue, fn func() T) (T, error) {
	var out T
	err := q.Do(func() {
		out = fn()
	})
	return out, err
}
