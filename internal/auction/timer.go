package auction

import (
	"context"
	"sync"
	"time"
)

// Phase is the timer state of an auction session.
type Phase string

const (
	PhaseNormal   Phase = "normal"   // plenty of time left
	PhaseWarning  Phase = "warning"  // 300s or less remaining
	PhaseCritical Phase = "critical" // 60s or less remaining
	PhaseEnded    Phase = "ended"    // terminal
)

const (
	warningThreshold  = 300 * time.Second
	criticalThreshold = 60 * time.Second
)

// PhaseAt derives the timer phase purely from the clock and the end time.
func PhaseAt(now, endTime time.Time) Phase {
	remaining := endTime.Sub(now)
	switch {
	case remaining <= 0:
		return PhaseEnded
	case remaining <= criticalThreshold:
		return PhaseCritical
	case remaining <= warningThreshold:
		return PhaseWarning
	default:
		return PhaseNormal
	}
}

// Remaining returns the non-negative time left until endTime.
func Remaining(now, endTime time.Time) time.Duration {
	if r := endTime.Sub(now); r > 0 {
		return r
	}
	return 0
}

// Countdown ticks at one-second resolution and fires OnTimeUp exactly once
// when the session reaches its end time. Ended is terminal; the countdown
// stops itself after firing.
type Countdown struct {
	endTime  time.Time
	onTimeUp func()
	now      func() time.Time

	once sync.Once
}

// NewCountdown creates a countdown toward endTime. onTimeUp may be nil.
func NewCountdown(endTime time.Time, onTimeUp func()) *Countdown {
	return &Countdown{
		endTime:  endTime,
		onTimeUp: onTimeUp,
		now:      time.Now,
	}
}

// Phase returns the current phase.
func (c *Countdown) Phase() Phase {
	return PhaseAt(c.now(), c.endTime)
}

// Run blocks until the auction ends or the context is cancelled.
func (c *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if c.Phase() == PhaseEnded {
			c.fire()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// fire invokes OnTimeUp at most once. Calls beyond the first are tolerated
// and do nothing.
func (c *Countdown) fire() {
	c.once.Do(func() {
		if c.onTimeUp != nil {
			c.onTimeUp()
		}
	})
}
