package supply

import (
	"math"
	"testing"
)

const dt = 0.01

func TestSupply_StartsAtNominal(t *testing.T) {
	s := New(DefaultSettings())
	if s.Outputs.LineLineVoltage != 400 || s.Outputs.Frequency != 50 {
		t.Errorf("initial outputs = %v V, %v Hz; want 400 V, 50 Hz", s.Outputs.LineLineVoltage, s.Outputs.Frequency)
	}
	s.Step(dt)
	if s.Outputs.LineLineVoltage != 400 || s.Outputs.Frequency != 50 {
		t.Errorf("outputs after one step = %v V, %v Hz; want 400 V, 50 Hz", s.Outputs.LineLineVoltage, s.Outputs.Frequency)
	}
}

func TestSupply_SagSlewBoundedAndConverges(t *testing.T) {
	// GIVEN a nominal supply that starts sagging
	s := New(DefaultSettings())
	s.State.UnderVoltage = true
	target := 400.0 * 0.5
	maxStep := s.Settings.VoltageSlewRate * dt
	wantSteps := int(math.Ceil(math.Abs(400.0-target) / maxStep))

	// WHEN stepping until the target is reached
	prev := s.Outputs.LineLineVoltage
	steps := 0
	for s.Outputs.LineLineVoltage != target && steps < 10*wantSteps {
		s.Step(dt)
		steps++
		// THEN no step exceeds rate*dt and the output never undershoots the target
		v := s.Outputs.LineLineVoltage
		if math.Abs(v-prev) > maxStep+1e-9 {
			t.Fatalf("step %d moved %v V, limit %v", steps, math.Abs(v-prev), maxStep)
		}
		if v < target {
			t.Fatalf("step %d undershot: %v < %v", steps, v, target)
		}
		prev = v
	}
	if steps > wantSteps {
		t.Errorf("took %d steps, want at most %d", steps, wantSteps)
	}
	if s.Outputs.LineLineVoltage != target {
		t.Errorf("voltage = %v, want %v", s.Outputs.LineLineVoltage, target)
	}
}

func TestSupply_UnderVoltageTakesPrecedence(t *testing.T) {
	s := New(DefaultSettings())
	s.State.UnderVoltage = true
	s.State.OverVoltage = true
	if got := s.TargetVoltage(); got != 200 {
		t.Errorf("TargetVoltage() with both flags = %v, want 200", got)
	}

	s.State.UnderVoltage = false
	if got := s.TargetVoltage(); got != 500 {
		t.Errorf("TargetVoltage() with over-voltage = %v, want 500", got)
	}
}

func TestSupply_TargetsFallBackToNominal(t *testing.T) {
	s := New(DefaultSettings())
	s.State.TargetVoltageLL = 0
	s.State.TargetFrequency = 0
	if v, f := s.TargetVoltage(), s.TargetFrequency(); v != 400 || f != 50 {
		t.Errorf("unset targets = %v V, %v Hz; want 400 V, 50 Hz", v, f)
	}

	s.State.TargetVoltageLL = 380
	s.State.TargetFrequency = 49.5
	if v, f := s.TargetVoltage(), s.TargetFrequency(); v != 380 || f != 49.5 {
		t.Errorf("explicit targets = %v V, %v Hz; want 380 V, 49.5 Hz", v, f)
	}
}

func TestSupply_FrequencyDriftRoundTrip(t *testing.T) {
	// GIVEN a supply with a 0.5 Hz drift configured
	settings := DefaultSettings()
	settings.DriftHz = 0.5
	s := New(settings)

	// WHEN drift is enabled long enough to settle
	s.State.FrequencyDrift = true
	for i := 0; i < 100; i++ {
		s.Step(dt)
	}
	if math.Abs(s.Outputs.Frequency-50.5) > 1e-9 {
		t.Fatalf("drifted frequency = %v, want 50.5", s.Outputs.Frequency)
	}

	// THEN disabling it returns the output to nominal
	s.State.FrequencyDrift = false
	for i := 0; i < 100; i++ {
		s.Step(dt)
	}
	if math.Abs(s.Outputs.Frequency-50) > 1e-9 {
		t.Errorf("frequency after drift off = %v, want 50", s.Outputs.Frequency)
	}
}

func TestSettings_Validate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}

	bad := DefaultSettings()
	bad.NominalFrequency = 0
	if bad.Validate() == nil {
		t.Error("zero nominal frequency accepted")
	}

	bad = DefaultSettings()
	bad.VoltageSlewRate = -1
	if bad.Validate() == nil {
		t.Error("negative slew rate accepted")
	}
}
