package fault

import (
	"testing"
)

type fixedClock float64

func (c fixedClock) CurrentTime() float64 { return float64(c) }

func newTestLedger() (*Ledger, *EventLog) {
	log := NewEventLog()
	return NewLedger(fixedClock(1.25), log, ""), log
}

func assertInvariant(t *testing.T, l *Ledger) {
	t.Helper()
	if (l.ActiveTrip() == None) != l.Running() {
		t.Errorf("running = %v with active trip %s", l.Running(), l.ActiveTrip())
	}
}

func TestLedger_StartsRunning(t *testing.T) {
	l, log := newTestLedger()
	if !l.Running() || l.ActiveTrip() != None {
		t.Errorf("new ledger: running=%v trip=%s, want running with no trip", l.Running(), l.ActiveTrip())
	}
	if log.Len() != 0 {
		t.Errorf("log has %d entries, want 0", log.Len())
	}
	assertInvariant(t, l)
}

func TestLedger_FirstFaultWins(t *testing.T) {
	// GIVEN a ledger tripped on over-current
	l, log := newTestLedger()
	if !l.Trip(OverCurrent) {
		t.Fatal("first trip was not recorded")
	}

	// WHEN further trips arrive with different codes
	recorded := l.Trip(OverTemp)
	l.Trip(GroundFault)

	// THEN the first code stays latched and only one TRIP line is logged
	if recorded {
		t.Error("second trip reported as recorded")
	}
	if l.ActiveTrip() != OverCurrent {
		t.Errorf("active trip = %s, want OverCurrent", l.ActiveTrip())
	}
	if l.Running() {
		t.Error("tripped ledger reports running")
	}
	if log.Len() != 1 {
		t.Errorf("log has %d entries, want 1", log.Len())
	}
	assertInvariant(t, l)
}

func TestLedger_ResetIsUnconditional(t *testing.T) {
	// GIVEN an untripped ledger
	l, log := newTestLedger()

	// WHEN reset is called twice, once idle and once after a trip
	l.Reset()
	l.Trip(PhaseLoss)
	l.Reset()

	// THEN the ledger is running and every reset was logged
	if !l.Running() || l.ActiveTrip() != None {
		t.Errorf("after reset: running=%v trip=%s", l.Running(), l.ActiveTrip())
	}
	entries := log.Entries()
	want := []string{"RESET trip", "TRIP: PhaseLoss", "RESET trip"}
	if len(entries) != len(want) {
		t.Fatalf("log has %d entries, want %d", len(entries), len(want))
	}
	for i, msg := range want {
		if entries[i].Message != msg {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Message, msg)
		}
	}
	assertInvariant(t, l)
}

func TestLedger_RetripsAfterReset(t *testing.T) {
	l, _ := newTestLedger()
	l.Trip(UnderVoltage)
	l.Reset()
	if !l.Trip(OverVoltage) {
		t.Error("trip after reset was not recorded")
	}
	if l.ActiveTrip() != OverVoltage {
		t.Errorf("active trip = %s, want OverVoltage", l.ActiveTrip())
	}
	if l.TripCount() != 2 {
		t.Errorf("TripCount() = %d, want 2", l.TripCount())
	}
}

func TestLedger_TripNoneIsIgnored(t *testing.T) {
	l, log := newTestLedger()
	if l.Trip(None) {
		t.Error("Trip(None) reported as recorded")
	}
	if !l.Running() || log.Len() != 0 {
		t.Errorf("Trip(None) changed state: running=%v log=%d", l.Running(), log.Len())
	}
}

func TestEntry_String(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{Time: 1.25, Message: "TRIP: OverTemp"}, "[  1.25s] TRIP: OverTemp"},
		{Entry{Time: 12, Source: "segment 3", Message: "RESET trip"}, "[ 12.00s] segment 3: RESET trip"},
	}
	for _, tc := range tests {
		if got := tc.entry.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestEventLog_SharedBetweenLedgers(t *testing.T) {
	// GIVEN two ledgers writing into one log
	log := NewEventLog()
	a := NewLedger(fixedClock(2), log, "segment 0")
	b := NewLedger(fixedClock(2), log, "segment 1")

	// WHEN each trips independently
	a.Trip(OverCurrent)
	b.Trip(GroundFault)

	// THEN both trips latch separately and the log keeps append order
	if a.ActiveTrip() != OverCurrent || b.ActiveTrip() != GroundFault {
		t.Errorf("trips = %s, %s; want OverCurrent, GroundFault", a.ActiveTrip(), b.ActiveTrip())
	}
	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("log has %d entries, want 2", len(entries))
	}
	if entries[0].Source != "segment 0" || entries[1].Source != "segment 1" {
		t.Errorf("sources = %q, %q", entries[0].Source, entries[1].Source)
	}
}

func TestCode_Index(t *testing.T) {
	for _, tc := range []struct {
		code Code
		want int
	}{
		{None, 0},
		{GroundFault, 5},
		{Code("Bogus"), -1},
	} {
		if got := tc.code.Index(); got != tc.want {
			t.Errorf("%q.Index() = %d, want %d", string(tc.code), got, tc.want)
		}
	}
	if None.String() != "None" {
		t.Errorf("None.String() = %q", None.String())
	}
}
