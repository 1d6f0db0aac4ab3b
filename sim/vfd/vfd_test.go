package vfd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conveyor-sim/conveyor-sim/sim/fault"
)

const dt = 0.01

type testClock struct{ t float64 }

func (c *testClock) CurrentTime() float64 { return c.t }

func newTestDrive(settings Settings) (*Drive, *fault.Ledger, *testClock) {
	clock := &testClock{}
	ledger := fault.NewLedger(clock, fault.NewEventLog(), "")
	d := New(settings, ledger, clock)
	d.Inputs.SupplyVoltageLL = settings.RatedVoltageLL
	d.Inputs.SupplyFrequency = settings.RatedFrequency
	return d, ledger, clock
}

// tick runs both phases with the given current feedback.
func tick(d *Drive, clock *testClock, current float64) {
	clock.t += dt
	d.Step(dt)
	d.Inputs.MotorCurrentFeedback = current
	d.StepThermal(dt)
}

func TestDrive_RampReachesTargetWithinBound(t *testing.T) {
	// GIVEN a drive with accel 10 Hz/s and a 0 -> 50 Hz setpoint
	d, ledger, clock := newTestDrive(DefaultSettings())
	d.State.TargetFrequency = 50
	maxSteps := int(math.Ceil(50 / (d.Settings.Accel * dt)))

	// WHEN stepping
	prev := 0.0
	reachedAt := -1
	for i := 1; i <= maxSteps+5; i++ {
		tick(d, clock, 0)
		f := d.Outputs.OutputFrequency
		// THEN the output is monotone and bounded by accel*dt per step
		require.GreaterOrEqual(t, f, prev)
		require.LessOrEqual(t, f-prev, d.Settings.Accel*dt+1e-9)
		prev = f
		if reachedAt < 0 && f == 50 {
			reachedAt = i
		}
	}

	// AND the target is reached at 5.0 s plus or minus one step, then held
	require.True(t, ledger.Running())
	assert.InDelta(t, maxSteps, reachedAt, 1)
	assert.Equal(t, 50.0, d.Outputs.OutputFrequency)
}

func TestDrive_DecelUsesDecelRate(t *testing.T) {
	settings := DefaultSettings()
	settings.Decel = 20
	d, _, clock := newTestDrive(settings)
	d.Outputs.OutputFrequency = 50
	d.State.TargetFrequency = 0

	tick(d, clock, 0)

	assert.InDelta(t, 49.8, d.Outputs.OutputFrequency, 1e-9)
}

func TestDrive_VoltageCommandHasBoostFloor(t *testing.T) {
	d, _, _ := newTestDrive(DefaultSettings())

	assert.InDelta(t, 400*0.1/50+28, d.VoltageCommand(0), 1e-9)
	assert.InDelta(t, 200+28, d.VoltageCommand(25), 1e-9)
	assert.Equal(t, 400.0, d.VoltageCommand(50))
	assert.Equal(t, 400.0, d.VoltageCommand(60))
}

func TestDrive_GroundFaultTripsAndCoastsSameTick(t *testing.T) {
	// GIVEN a drive running at 30 Hz
	d, ledger, clock := newTestDrive(DefaultSettings())
	d.Outputs.OutputFrequency = 30
	d.State.TargetFrequency = 30

	// WHEN a ground fault appears
	d.State.GroundFault = true
	clock.t += dt
	d.Step(dt)

	// THEN the trip latches immediately and the outputs are zero
	assert.Equal(t, fault.GroundFault, ledger.ActiveTrip())
	assert.False(t, ledger.Running())
	assert.Equal(t, 0.0, d.Outputs.OutputFrequency)
	assert.Equal(t, 0.0, d.Outputs.OutputVoltage)
	assert.Equal(t, 0.0, d.Inputs.MotorCurrentFeedback)

	// AND the outputs stay at zero on the next tick
	tick(d, clock, 0)
	assert.Equal(t, 0.0, d.Outputs.OutputFrequency)
	assert.Equal(t, 0.0, d.Outputs.OutputVoltage)
}

func TestDrive_CoastingKeepsCooling(t *testing.T) {
	d, ledger, clock := newTestDrive(DefaultSettings())
	d.State.HeatsinkTemp = 65
	ledger.Trip(fault.OverCurrent)

	clock.t += dt
	d.Step(dt)

	want := 65 - (65.0-25.0)/40.0*dt
	assert.InDelta(t, want, d.State.HeatsinkTemp, 1e-12)
}

func TestDrive_ThermalRiseFromLoss(t *testing.T) {
	d, _, clock := newTestDrive(DefaultSettings())
	d.Outputs.OutputVoltage = 400
	d.Inputs.MotorCurrentFeedback = 25

	clock.t += dt
	d.StepThermal(dt)

	// 0.02 * 400 V * 25 A = 200 W -> 8 °C/s above ambient
	assert.InDelta(t, 25+8*dt, d.State.HeatsinkTemp, 1e-12)
}

func TestDrive_TripConditions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(d *Drive)
		current float64
		want    fault.Code
	}{
		{"supply sag", func(d *Drive) { d.Inputs.SupplyVoltageLL = 200 }, 0, fault.UnderVoltage},
		{"supply surge", func(d *Drive) { d.Inputs.SupplyVoltageLL = 500 }, 0, fault.OverVoltage},
		{"local sag flag", func(d *Drive) { d.State.UnderVoltage = true }, 0, fault.UnderVoltage},
		{"local surge flag", func(d *Drive) { d.State.OverVoltage = true }, 0, fault.OverVoltage},
		{"over current", func(d *Drive) {}, 48.5, fault.OverCurrent},
		{"over temperature", func(d *Drive) { d.State.HeatsinkTemp = 90 }, 0, fault.OverTemp},
		{"phase loss", func(d *Drive) { d.State.PhaseLoss = true }, 0, fault.PhaseLoss},
		{"under voltage outranks over current", func(d *Drive) { d.Inputs.SupplyVoltageLL = 200 }, 60, fault.UnderVoltage},
		{"healthy", func(d *Drive) {}, 10, fault.None},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, ledger, clock := newTestDrive(DefaultSettings())
			d.State.TargetFrequency = 30
			tc.prepare(d)

			tick(d, clock, tc.current)

			assert.Equal(t, tc.want, ledger.ActiveTrip())
			assert.Equal(t, tc.want == fault.None, ledger.Running())
		})
	}
}

func TestDrive_MissingSupplyFallsBackToRated(t *testing.T) {
	d, ledger, clock := newTestDrive(DefaultSettings())
	d.Inputs.SupplyVoltageLL = 0

	tick(d, clock, 0)

	assert.InDelta(t, math.Sqrt2*400, d.State.BusVoltage, 1e-9)
	assert.True(t, ledger.Running())
}

func TestDrive_PhaseLossRetripsAfterResetWhileHeld(t *testing.T) {
	// GIVEN a drive tripped on a phase loss that is still present
	d, ledger, clock := newTestDrive(DefaultSettings())
	d.State.PhaseLoss = true
	tick(d, clock, 0)
	require.Equal(t, fault.PhaseLoss, ledger.ActiveTrip())

	// WHEN the trip is acknowledged without clearing the cause
	ledger.Reset()
	require.True(t, ledger.Running())
	tick(d, clock, 0)

	// THEN the next evaluation trips again
	assert.Equal(t, fault.PhaseLoss, ledger.ActiveTrip())
}

func TestDrive_PhaseLossPeriodicRecheck(t *testing.T) {
	// GIVEN a drive that rechecks phase loss every 0.5 s, flag raised at t=20.0
	settings := DefaultSettings()
	settings.PhaseLossRecheckPeriod = 0.5
	d, ledger, clock := newTestDrive(settings)
	for i := 0; i < 2000; i++ {
		tick(d, clock, 0)
	}
	d.State.PhaseLoss = true

	// WHEN stepping up to just before the next boundary
	for i := 0; i < 49; i++ {
		tick(d, clock, 0)
	}
	// THEN no trip yet
	assert.True(t, ledger.Running(), "tripped early at t=%.2f", clock.t)

	// AND crossing t=20.5 trips
	tick(d, clock, 0)
	assert.Equal(t, fault.PhaseLoss, ledger.ActiveTrip())
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.Accel = 0
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.UnderVoltPUNomDC = 1.3
	assert.Error(t, s.Validate())
}
