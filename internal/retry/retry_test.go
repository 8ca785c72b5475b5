package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Do(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	boom := errors.New("reverted")
	err := Do(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return Permanent(boom)
	})
	if err != boom {
		t.Fatalf("expected unwrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoStopsOnContextErrorFromFn(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestPolicyDoublesAndCaps(t *testing.T) {
	b := policy(500 * time.Millisecond)
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Fatalf("step %d: got %s, want %s", i, got, w)
		}
	}
	for i := 0; i < 20; i++ {
		b.NextBackOff()
	}
	if got := b.NextBackOff(); got != MaxDelay {
		t.Fatalf("expected cap %s, got %s", MaxDelay, got)
	}
	if got := policy(0).NextBackOff(); got != defaultDelay {
		t.Fatalf("zero base: got %s", got)
	}
}
