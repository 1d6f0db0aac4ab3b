package conveyor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMechanics_BeltSpeed(t *testing.T) {
	m := DefaultMechanics()

	// 1440 rpm -> 150.8 rad/s -> 150.8 * 0.15 / 12
	assert.InDelta(t, 2*math.Pi*1440/60*0.15/12, m.BeltSpeed(1440), 1e-12)
	assert.Equal(t, 0.0, m.BeltSpeed(0))
}

func TestMechanics_LoadTorque(t *testing.T) {
	m := DefaultMechanics()

	tests := []struct {
		name  string
		mass  float64
		accel float64
		want  float64
	}{
		{"empty", 0, 3, 0},
		{"rolling only", 100, 0, 100 * 9.81 * 0.03 * 0.15 / (12 * 0.9)},
		{"rolling and accelerating", 100, 0.5, (100*9.81*0.03 + 50) * 0.15 / (12 * 0.9)},
		{"braking belt pushes back", 100, -2, (100*9.81*0.03 - 200) * 0.15 / (12 * 0.9)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, m.LoadTorque(tc.mass, tc.accel), 1e-12)
		})
	}
}

func TestMechanics_Validate(t *testing.T) {
	assert.NoError(t, DefaultMechanics().Validate())

	m := DefaultMechanics()
	m.GearRatio = 0
	assert.Error(t, m.Validate())

	m = DefaultMechanics()
	m.MechEfficiency = 1.5
	assert.Error(t, m.Validate())
}

func TestNewLine_RejectsBadGeometry(t *testing.T) {
	_, err := NewLine(50, 0)
	assert.Error(t, err)
	_, err = NewLine(0, 5)
	assert.Error(t, err)
}

func TestLine_SegmentAtClampsToLine(t *testing.T) {
	l, err := NewLine(50, 5)
	require.NoError(t, err)

	tests := []struct {
		pos  float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{9.999, 0},
		{10, 1},
		{49.9, 4},
		{55, 4},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, l.SegmentAt(tc.pos), "pos %g", tc.pos)
	}
	start, end := l.Span(2)
	assert.Equal(t, 20.0, start)
	assert.Equal(t, 30.0, end)
}

func TestLine_MassBetweenUsesHalfOpenSpan(t *testing.T) {
	l, err := NewLine(50, 5)
	require.NoError(t, err)
	l.Add(10, 4)
	l.Add(15, 6)
	l.Add(20, 100)

	assert.Equal(t, 10.0, l.MassBetween(10, 20))
	assert.Equal(t, 100.0, l.MassBetween(20, 30))
	assert.Equal(t, 0.0, l.MassBetween(0, 10))
}

func TestLine_AdvanceUsesCarryingSegmentAndRemovesAtEnd(t *testing.T) {
	// GIVEN packages on segment 0 and at the tail of the last segment
	l, err := NewLine(50, 5)
	require.NoError(t, err)
	first := l.Add(5, 10)
	l.Add(49.95, 10)
	speeds := []float64{1, 2, 3, 4, 10}

	// WHEN advancing one 10 ms tick
	removed := l.Advance(func(seg int) float64 { return speeds[seg] }, 0.01)

	// THEN the tail package leaves and the other moves at segment 0's speed
	assert.Equal(t, 1, removed)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, first.ID, l.Packages()[0].ID)
	assert.InDelta(t, 5.01, l.Packages()[0].PositionM, 1e-12)
}

func TestSpawner_PeriodAndRanges(t *testing.T) {
	// GIVEN the default arrival process on a 50 m line
	l, err := NewLine(50, 5)
	require.NoError(t, err)
	s := NewSpawner(DefaultSpawnSettings(), rand.New(rand.NewSource(7)))

	// WHEN stepping 3 s at 10 ms
	for i := 0; i < 300; i++ {
		s.Spawn(float64(i)*0.01, l)
	}

	// THEN one package per second arrived, t=0 included
	require.Equal(t, 3, l.Len())
	for i, p := range l.Packages() {
		assert.Equal(t, int64(i), p.ID)
		assert.GreaterOrEqual(t, p.MassKg, 5.0)
		assert.LessOrEqual(t, p.MassKg, 25.0)
		assert.GreaterOrEqual(t, p.PositionM, 0.5)
		assert.LessOrEqual(t, p.PositionM, 20.0)
	}
}

func TestSpawner_ZeroPeriodDisables(t *testing.T) {
	l, err := NewLine(10, 1)
	require.NoError(t, err)
	settings := DefaultSpawnSettings()
	settings.Period = 0
	s := NewSpawner(settings, rand.New(rand.NewSource(1)))

	_, ok := s.Spawn(0, l)

	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
	assert.NoError(t, settings.Validate(10))
}

func TestSpawnSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSpawnSettings().Validate(50))
	assert.Error(t, DefaultSpawnSettings().Validate(20))

	s := DefaultSpawnSettings()
	s.MassMaxKg = 1
	assert.Error(t, s.Validate(50))
}
