package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestTripsAfterThreshold(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, OpenTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected the operation error, got %v", i, err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %v", cb.State())
	}

	err := cb.Execute(ctx, func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker must short-circuit, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 2, OpenTimeout: time.Hour})
	ctx := context.Background()

	cb.Execute(ctx, func() error { return errBoom })
	cb.Execute(ctx, func() error { return nil })
	cb.Execute(ctx, func() error { return errBoom })

	if cb.State() != StateClosed {
		t.Fatalf("interleaved success must reset the count, got %v", cb.State())
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	cb.Execute(ctx, func() error { return errBoom })
	if cb.State() != StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(20 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after the timeout, got %v", cb.State())
	}

	cb.Execute(ctx, func() error { return nil })
	if cb.State() != StateHalfOpen {
		t.Fatalf("one success is below the threshold, got %v", cb.State())
	}

	cb.Execute(ctx, func() error { return nil })
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after recovery, got %v", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	cb.Execute(ctx, func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	cb.Execute(ctx, func() error { return errBoom })
	if cb.State() != StateOpen {
		t.Fatalf("a half-open failure must reopen immediately, got %v", cb.State())
	}
}

func TestContextCancelled(t *testing.T) {
	cb := New("test", Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	err := cb.Execute(ctx, func() error { ran = true; return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Error("operation must not run under a cancelled context")
	}
}
