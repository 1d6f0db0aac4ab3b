package sim

import (
	"context"
	"time"
)

// Pacer throttles the run so simulated time advances at SpeedFactor
// simulated seconds per wall-clock second.
type Pacer struct {
	speedFactor float64
	start       time.Time
	now         func() time.Time
}

// NewPacer returns a pacer anchored at the current wall time. A speed factor
// of 0 disables pacing.
func NewPacer(speedFactor float64) *Pacer {
	return &Pacer{speedFactor: speedFactor, start: time.Now(), now: time.Now}
}

// Wait blocks until the wall-clock deadline for simElapsed seconds of
// simulated time, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context, simElapsed float64) error {
	if p == nil || p.speedFactor <= 0 {
		return nil
	}
	deadline := p.start.Add(time.Duration(simElapsed / p.speedFactor * float64(time.Second)))
	return sleepContext(ctx, deadline.Sub(p.now()))
}

// sleepContext sleeps for d unless ctx finishes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
