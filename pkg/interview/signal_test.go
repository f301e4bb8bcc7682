package interview

import (
	"context"
	"testing"
	"time"
)

func TestSignalSetWakesWaiter(t *testing.T) {
	s := NewSignal()

	done := make(chan bool, 1)
	go func() {
		done <- s.Wait(context.Background(), time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Set()

	select {
	case fired := <-done:
		if !fired {
			t.Fatal("Wait returned false after Set")
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}

	if !s.IsSet() {
		t.Error("IsSet false after Set")
	}
}

func TestSignalWaitReturnsImmediatelyWhenSet(t *testing.T) {
	s := NewSignal()
	s.Set()

	start := time.Now()
	if !s.Wait(context.Background(), time.Second) {
		t.Fatal("Wait returned false on a set signal")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait on a set signal took %v", elapsed)
	}
}

func TestSignalWaitTimeout(t *testing.T) {
	s := NewSignal()

	if s.Wait(context.Background(), 20*time.Millisecond) {
		t.Fatal("Wait returned true without Set")
	}
}

func TestSignalClearRearms(t *testing.T) {
	s := NewSignal()
	s.Set()
	s.Clear()

	if s.IsSet() {
		t.Fatal("IsSet true after Clear")
	}
	if s.Wait(context.Background(), 20*time.Millisecond) {
		t.Fatal("Wait returned true on a cleared signal")
	}

	s.Set()
	if !s.Wait(context.Background(), time.Second) {
		t.Fatal("Wait returned false after re-Set")
	}
}

func TestSignalWaitHonorsContext(t *testing.T) {
	s := NewSignal()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if s.Wait(ctx, 5*time.Second) {
		t.Fatal("Wait returned true on cancelled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait ignored cancellation, took %v", elapsed)
	}
}

func TestSignalDoubleSetIsNoop(t *testing.T) {
	s := NewSignal()
	s.Set()
	s.Set()

	if !s.IsSet() {
		t.Fatal("IsSet false after double Set")
	}
}
