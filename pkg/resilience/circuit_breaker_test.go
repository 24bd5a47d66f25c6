package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failing(context.Context) error { return errors.New("dependency down") }
func succeeding(context.Context) error { return nil }

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "blob-write",
		FailureThreshold: 3,
		OpenTimeout:      time.Second,
	})

	for i := 0; i < 2; i++ {
		if err := cb.Execute(context.Background(), failing); errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("circuit must stay closed below threshold, tripped at %d", i+1)
		}
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed before threshold, got %s", cb.State())
	}

	_ = cb.Execute(context.Background(), failing)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open at threshold, got %s", cb.State())
	}

	err := cb.Execute(context.Background(), succeeding)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open circuit must fail fast, got %v", err)
	}

	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *CircuitOpenError, got %T", err)
	}
	if openErr.Name != "blob-write" || openErr.RetryAfter <= 0 {
		t.Fatalf("unexpected open error: %+v", openErr)
	}
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Second})

	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), succeeding)
	_ = cb.Execute(context.Background(), failing)

	if cb.State() != CircuitClosed {
		t.Fatalf("non-consecutive failures must not trip, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      30 * time.Millisecond,
	})

	_ = cb.Execute(context.Background(), failing)
	time.Sleep(50 * time.Millisecond)

	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open after window, got %s", cb.State())
	}
	if err := cb.Execute(context.Background(), succeeding); err != nil {
		t.Fatalf("probe must be admitted, got %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("successful probe must close the circuit, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      30 * time.Millisecond,
	})

	_ = cb.Execute(context.Background(), failing)
	time.Sleep(50 * time.Millisecond)

	_ = cb.Execute(context.Background(), failing)
	if cb.State() != CircuitOpen {
		t.Fatalf("failed probe must reopen, got %s", cb.State())
	}
}

func TestCircuitBreaker_CancellationDoesNotCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return context.Canceled
		})
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("cancellations must not trip the breaker, got %s", cb.State())
	}
}
