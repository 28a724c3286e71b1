package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_Success(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got: %d", attempts)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	var hooks []int

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	},
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) {
			hooks = append(hooks, attempt)
		}),
	)

	if err != nil {
		t.Errorf("expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got: %d", attempts)
	}
	if len(hooks) != 2 || hooks[0] != 1 || hooks[1] != 2 {
		t.Errorf("expected retry hooks for attempts [1 2], got: %v", hooks)
	}
}

func TestDo_MaxRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	persistent := errors.New("no route to host")

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return persistent
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	if !errors.Is(err, persistent) {
		t.Fatalf("expected wrapped persistent error, got: %v", err)
	}
	// MaxRetries counts retries after the first attempt.
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got: %d", attempts)
	}
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0
	denied := errors.New("unable to authenticate")

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return Fatal(denied)
	}, WithInitialDelay(time.Millisecond))

	if attempts != 1 {
		t.Errorf("expected 1 attempt, got: %d", attempts)
	}
	if !errors.Is(err, denied) {
		t.Errorf("expected error to wrap %v, got: %v", denied, err)
	}
	if !IsFatal(err) {
		t.Error("expected error to stay fatal")
	}
}

func TestDo_ContextCancelledBeforeStart(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, func(context.Context) error {
		attempts++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if attempts != 0 {
		t.Errorf("expected no attempts, got: %d", attempts)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	last := errors.New("timeout")

	attempts := 0
	err := Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return last
	}, WithInitialDelay(time.Hour))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if !errors.Is(err, last) {
		t.Errorf("expected last attempt error to be kept, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got: %d", attempts)
	}
}

func TestDo_DelayIsCapped(t *testing.T) {
	t.Parallel()
	var delays []time.Duration

	_ = Do(context.Background(), func(context.Context) error {
		return errors.New("fail")
	},
		WithMaxRetries(4),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(3*time.Millisecond),
		WithMultiplier(2),
		WithOnRetry(func(_ int, _ error, d time.Duration) {
			delays = append(delays, d)
		}),
	)

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond, 3 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestFatal_Nil(t *testing.T) {
	t.Parallel()
	if Fatal(nil) != nil {
		t.Error("expected Fatal(nil) to be nil")
	}
	if IsFatal(errors.New("plain")) {
		t.Error("plain error must not be fatal")
	}
}
