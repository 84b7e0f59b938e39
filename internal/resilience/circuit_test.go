package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	cb.nowFunc = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_ClosedAllows(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	if err := cb.Allow(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cb.Healthy() {
		t.Error("new breaker should be healthy")
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	for i := 0; i < 3; i++ {
		cb.Record(errors.New("fail"))
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}
	if !errors.Is(cb.Allow(), ErrCircuitOpen) {
		t.Error("expected ErrCircuitOpen")
	}
	if cb.Healthy() {
		t.Error("open breaker should not be healthy")
	}
}

func TestCircuitBreaker_SuccessResetsStreak(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	cb.Record(errors.New("fail"))
	cb.Record(errors.New("fail"))
	cb.Record(nil)
	cb.Record(errors.New("fail"))
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
	if cb.ConsecutiveFailures() != 1 {
		t.Errorf("expected streak 1, got %d", cb.ConsecutiveFailures())
	}
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)
	cb.Record(errors.New("fail"))

	*now = now.Add(61 * time.Second)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	cb.Record(nil)
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)
	cb.Record(errors.New("fail"))
	*now = now.Add(2 * time.Minute)

	if err := cb.Allow(); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	cb.Record(errors.New("still failing"))
	if cb.State() != CircuitOpen {
		t.Errorf("expected open, got %s", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.Record(errors.New("fail"))
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions %v", transitions)
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cb.Allow()
			if i%2 == 0 {
				cb.Record(nil)
			} else {
				cb.Record(errors.New("fail"))
			}
			_ = cb.State()
		}(i)
	}
	wg.Wait()
}

func TestFromCircuitConfig(t *testing.T) {
	cfg := FromCircuitConfig(2, 30)
	if cfg.FailureThreshold != 2 || cfg.ResetTimeout != 30*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
	def := FromCircuitConfig(0, 0)
	if def.FailureThreshold != 5 || def.ResetTimeout != time.Minute {
		t.Errorf("expected defaults, got %+v", def)
	}
}

func TestCircuitState_String(t *testing.T) {
	if CircuitClosed.String() != "closed" || CircuitOpen.String() != "open" ||
		CircuitHalfOpen.String() != "half-open" || CircuitState(9).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
