package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/weles/pkg/retry"
)

func TestBlockingRetriesUntilDone(t *testing.T) {
	calls := 0
	got, err := retry.Blocking(context.Background(), retry.Static(time.Millisecond), func() (int, error) {
		calls++
		if calls < 3 {
			return calls, retry.ErrRetry
		}
		return calls, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 || calls != 3 {
		t.Errorf("got %d after %d calls, want 3", got, calls)
	}
}

func TestBlockingStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := retry.Blocking(context.Background(), retry.Static(time.Millisecond), func() (struct{}, error) {
		calls++
		return struct{}{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("error: got %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestBlockingHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := retry.Blocking(ctx, retry.Static(5*time.Millisecond), func() (int, error) {
		return 0, retry.ErrRetry
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error: got %v, want deadline exceeded", err)
	}
}

func TestExponentialCeiling(t *testing.T) {
	b := retry.Exponential(time.Millisecond, 10, 3*time.Millisecond)

	start := time.Now()
	for range 4 {
		if err := b(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	// 1ms + 3ms + 3ms + 3ms
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("backoff exceeded ceiling: %v", elapsed)
	}
}
