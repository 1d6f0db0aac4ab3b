package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacer_DisabledNeverBlocks(t *testing.T) {
	var nilPacer *Pacer
	assert.NoError(t, nilPacer.Wait(context.Background(), 100))
	assert.NoError(t, NewPacer(0).Wait(context.Background(), 100))
}

func TestPacer_PastDeadlineReturnsImmediately(t *testing.T) {
	// GIVEN a pacer whose wall clock is already far ahead
	p := NewPacer(1)
	p.now = func() time.Time { return p.start.Add(time.Hour) }

	start := time.Now()
	err := p.Wait(context.Background(), 10)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacer_CancelledWhileWaiting(t *testing.T) {
	// GIVEN a pacer that would wait an hour of wall time
	p := NewPacer(1)
	p.now = func() time.Time { return p.start }
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// WHEN waiting
	err := p.Wait(ctx, 3600)

	// THEN the context ends the wait
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPacer_WaitsForDeadline(t *testing.T) {
	p := NewPacer(2) // 2 simulated seconds per wall second

	start := time.Now()
	err := p.Wait(context.Background(), 0.05)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
