package audioio

import (
	"sync"
	"time"
)

// FrameQueue is a thread-safe FIFO of raw PCM frames connecting the
// capture, network, and playback loops.
//
// A capacity greater than zero bounds the queue: when full, the oldest
// frame is discarded to make room for the new one, so the consumer always
// sees the freshest audio at the cost of an occasional glitch. A capacity
// of zero means unbounded.
type FrameQueue struct {
	mu      sync.Mutex
	frames  [][]byte
	cap     int
	dropped int64

	// wake is signalled on Push so a blocked Pop can re-check.
	wake chan struct{}
}

// NewFrameQueue creates a queue with the given capacity (0 = unbounded).
func NewFrameQueue(capacity int) *FrameQueue {
	return &FrameQueue{
		cap:  capacity,
		wake: make(chan struct{}, 1),
	}
}

// Push appends a frame. On a full bounded queue the oldest frame is
// evicted first. Push never blocks.
func (q *FrameQueue) Push(frame []byte) {
	q.mu.Lock()
	if q.cap > 0 && len(q.frames) >= q.cap {
		q.frames = q.frames[1:]
		q.dropped++
	}
	q.frames = append(q.frames, frame)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the oldest frame without blocking.
func (q *FrameQueue) TryPop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return nil, false
	}
	frame := q.frames[0]
	q.frames = q.frames[1:]
	return frame, true
}

// Pop removes and returns the oldest frame, waiting up to timeout for one
// to arrive. Returns false if the queue stayed empty.
func (q *FrameQueue) Pop(timeout time.Duration) ([]byte, bool) {
	if frame, ok := q.TryPop(); ok {
		return frame, true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-q.wake:
			if frame, ok := q.TryPop(); ok {
				return frame, true
			}
		case <-deadline.C:
			// One last look in case a Push raced the timer.
			return q.TryPop()
		}
	}
}

// Clear empties the queue immediately and returns the number of frames
// discarded. Used to silence ongoing playback abruptly.
func (q *FrameQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.frames)
	q.frames = nil
	return n
}

// Len returns the number of buffered frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns the number of frames evicted due to overflow.
func (q *FrameQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
