package actor

import (
	"errors"
	"sync"
	"testing"
)

func TestDoRunsInOrder(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if err := q.Do(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Do failed: %v", err)
		}
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("Expected ordered execution, got %v", got)
		}
	}
}

func TestSingleWriter(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	// Unsynchronised counter; the race detector flags any concurrent access.
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				q.Do(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	n, err := Query(q, func() int { return counter })
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if n != 1000 {
		t.Errorf("Expected 1000 increments, got %d", n)
	}
}

func TestPost(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	ran := make(chan struct{})
	if !q.Post(func() { close(ran) }) {
		t.Fatal("Expected Post to succeed on an open queue")
	}
	<-ran
}

func TestClosedQueue(t *testing.T) {
	q := NewQueue()
	q.Close()
	q.Close()

	if err := q.Do(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if q.Post(func() {}) {
		t.Error("Expected Post to fail on a closed queue")
	}
	if _, err := Query(q, func() int { return 1 }); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Query, got %v", err)
	}
}
