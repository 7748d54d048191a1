package scrape

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsWithinBudget(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), testLogger(t), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("got %v, want success on third try", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetry_ExhaustsBudget(t *testing.T) {
	p := RetryPolicy{Attempts: 2, Backoff: time.Millisecond}
	sentinel := errors.New("still broken")
	calls := 0
	err := p.Do(context.Background(), testLogger(t), "op", func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want wrapped sentinel", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	p := RetryPolicy{Attempts: 5, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), testLogger(t), "op", func() error {
		calls++
		return Permanent(ErrOTPRejected)
	})
	if !errors.Is(err, ErrOTPRejected) {
		t.Fatalf("got %v, want ErrOTPRejected", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry of a permanent failure)", calls)
	}
}

func TestRetry_HonorsCancellation(t *testing.T) {
	p := RetryPolicy{Attempts: 10, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, testLogger(t), "op", func() error {
			return errors.New("transient")
		})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestRetry_ZeroAttemptsMeansOneTry(t *testing.T) {
	var p RetryPolicy
	calls := 0
	_ = p.Do(context.Background(), testLogger(t), "op", func() error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
