package audioio

import (
	"fmt"
	"testing"
	"time"
)

func TestFrameQueueFIFO(t *testing.T) {
	q := NewFrameQueue(0)

	q.Push([]byte{1})
	q.Push([]byte{2})
	q.Push([]byte{3})

	for i, want := range []byte{1, 2, 3} {
		frame, ok := q.TryPop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if frame[0] != want {
			t.Errorf("pop %d: got %d, want %d", i, frame[0], want)
		}
	}

	if _, ok := q.TryPop(); ok {
		t.Error("expected empty queue after draining")
	}
}

func TestFrameQueueOverflowEvictsOldest(t *testing.T) {
	q := NewFrameQueue(100)

	for i := 0; i < 101; i++ {
		q.Push([]byte{byte(i)})
	}

	if got := q.Len(); got != 100 {
		t.Fatalf("Len() = %d, want 100", got)
	}
	if got := q.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}

	// Frame 0 was evicted; frame 1 is now at the head.
	frame, ok := q.TryPop()
	if !ok {
		t.Fatal("queue unexpectedly empty")
	}
	if frame[0] != 1 {
		t.Errorf("head frame = %d, want 1", frame[0])
	}
}

func TestFrameQueuePop(t *testing.T) {
	t.Run("returns immediately when non-empty", func(t *testing.T) {
		q := NewFrameQueue(10)
		q.Push([]byte{42})

		start := time.Now()
		frame, ok := q.Pop(time.Second)
		if !ok {
			t.Fatal("expected frame")
		}
		if frame[0] != 42 {
			t.Errorf("got %d, want 42", frame[0])
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("Pop blocked %v on non-empty queue", elapsed)
		}
	})

	t.Run("times out on empty queue", func(t *testing.T) {
		q := NewFrameQueue(10)

		if _, ok := q.Pop(50 * time.Millisecond); ok {
			t.Error("expected timeout on empty queue")
		}
	})

	t.Run("wakes on concurrent push", func(t *testing.T) {
		q := NewFrameQueue(10)

		go func() {
			time.Sleep(20 * time.Millisecond)
			q.Push([]byte{7})
		}()

		frame, ok := q.Pop(time.Second)
		if !ok {
			t.Fatal("expected frame from concurrent push")
		}
		if frame[0] != 7 {
			t.Errorf("got %d, want 7", frame[0])
		}
	})
}

func TestFrameQueueClear(t *testing.T) {
	q := NewFrameQueue(0)
	for i := 0; i < 5; i++ {
		q.Push([]byte{byte(i)})
	}

	if n := q.Clear(); n != 5 {
		t.Errorf("Clear() = %d, want 5", n)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", q.Len())
	}
}

func TestFrameQueueConcurrent(t *testing.T) {
	q := NewFrameQueue(50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			q.Push([]byte(fmt.Sprintf("%d", i)))
		}
	}()

	popped := 0
	for {
		select {
		case <-done:
			// Drain whatever is left.
			for {
				if _, ok := q.TryPop(); !ok {
					return
				}
				popped++
			}
		default:
			if _, ok := q.TryPop(); ok {
				popped++
			}
		}
	}
}
