package throttle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		rps    int
		burst  int
		expErr error
	}{
		{
			name:   "Invalid RPS (zero)",
			rps:    0,
			burst:  10,
			expErr: ErrMustNotBeZero,
		},
		{
			name:   "Invalid RPS (negative)",
			rps:    -5,
			burst:  10,
			expErr: ErrMustNotBeZero,
		},
		{
			name:   "Invalid Burst (zero)",
			rps:    10,
			burst:  0,
			expErr: ErrMustNotBeZero,
		},
		{
			name:   "Invalid Burst (negative)",
			rps:    10,
			burst:  -5,
			expErr: ErrMustNotBeZero,
		},
		{
			name:  "Valid input",
			rps:   10,
			burst: 20,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lim, err := New(tc.rps, tc.burst, func() *slog.Logger { return nil })

			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Errorf("exp err %v; got: %v", tc.expErr, err)
				}
			} else {
				if err != nil {
					t.Errorf("exp nil err, got: %v", err)
				}

				if lim == nil {
					t.Error("exp non-nil Limiter")
				}
			}
		})
	}
}

func TestLimiter_WithinBurstIsFast(t *testing.T) {
	lim, err := New(5, 5, func() *slog.Logger { return nil })
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := lim.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if took := time.Since(start); took > 100*time.Millisecond {
		t.Errorf("burst acquires should be fast (< 100ms); took %v", took)
	}
}

func TestLimiter_ExceedBurstSlowsDown(t *testing.T) {
	lim, err := New(10, 5, func() *slog.Logger { return nil })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 8)

	start := time.Now()
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			errs[idx] = lim.Acquire(ctx)
		}(i)
	}
	wg.Wait()
	duration := time.Since(start)

	for i, err := range errs {
		if err != nil {
			t.Errorf("acquire %d: %v", i, err)
		}
	}

	// (8-5 acquires) / 10 RPS = 0.3 seconds minimum
	minDuration := time.Duration(float64(time.Second) * float64(8-5) / float64(10))
	if duration < minDuration {
		t.Errorf("execution should be slowed down by throttle (>= %v), but took %v", minDuration, duration)
	}
}

func TestLimiter_TimeoutWhileWaiting(t *testing.T) {
	lim, err := New(5, 2, func() *slog.Logger { return nil })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 5)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			errs[idx] = lim.Acquire(ctx)
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			if !errors.Is(err, ErrWaitingFailed) {
				t.Errorf("expected ErrWaitingFailed, got: %v", err)
			}
		}
	}
	if failed != 3 { // 2 use burst, the rest time out waiting
		t.Errorf("expected 3 failed acquires; got %d", failed)
	}
}

func TestLimiter_PreCancelledContextFailsEarly(t *testing.T) {
	lim, err := New(20, 10, func() *slog.Logger { return nil })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err = lim.Acquire(ctx)
	if took := time.Since(start); took > 50*time.Millisecond {
		t.Errorf("pre-cancelled acquire should fail fast; took %v", took)
	}

	if !errors.Is(err, ErrContextEnded) {
		t.Errorf("expected ErrContextEnded, got: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in the chain, got: %v", err)
	}
}

func TestLimiter_NilAdmitsEverything(t *testing.T) {
	var lim *Limiter
	if err := lim.Acquire(context.Background()); err != nil {
		t.Errorf("nil limiter must admit: %v", err)
	}
}
