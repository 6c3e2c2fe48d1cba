package auction

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPhaseAt(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"well_before_end", end.Add(-20 * time.Minute), PhaseNormal},
		{"just_over_warning", end.Add(-301 * time.Second), PhaseNormal},
		{"at_warning_threshold", end.Add(-300 * time.Second), PhaseWarning},
		{"inside_warning", end.Add(-2 * time.Minute), PhaseWarning},
		{"at_critical_threshold", end.Add(-60 * time.Second), PhaseCritical},
		{"inside_critical", end.Add(-time.Second), PhaseCritical},
		{"exactly_at_end", end, PhaseEnded},
		{"one_second_past_end", end.Add(time.Second), PhaseEnded},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, PhaseAt(tc.now, end))
		})
	}
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	require.Equal(t, 90*time.Second, Remaining(end.Add(-90*time.Second), end))
	require.Equal(t, time.Duration(0), Remaining(end, end))
	require.Equal(t, time.Duration(0), Remaining(end.Add(time.Hour), end))
}

func TestCountdown_FiresOnTimeUpExactlyOnce(t *testing.T) {
	t.Parallel()

	var fired int32
	c := NewCountdown(time.Now().Add(-time.Second), func() {
		atomic.AddInt32(&fired, 1)
	})

	require.Equal(t, PhaseEnded, c.Phase())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Run returns immediately for an already-ended session.
	c.Run(ctx)
	c.Run(ctx)
	c.fire() // calls beyond the first are tolerated

	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestCountdown_NilCallbackTolerated(t *testing.T) {
	t.Parallel()

	c := NewCountdown(time.Now().Add(-time.Minute), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Run(ctx) // must not panic
}

func TestCountdown_ContextCancelStopsRun(t *testing.T) {
	t.Parallel()

	c := NewCountdown(time.Now().Add(time.Hour), func() {
		t.Error("onTimeUp must not fire before the end time")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
