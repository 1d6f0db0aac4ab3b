// Package fault tracks drive trips and the run's event log.
//
// A Ledger is a two-state latch: Running, or Tripped with the code of the
// first violation seen. Further trips while tripped are ignored. Only Reset
// returns it to Running, whether or not the cause has cleared.
package fault

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// TimeTeller reports the current simulated time in seconds.
type TimeTeller interface {
	CurrentTime() float64
}

// Entry is one line of the event log.
type Entry struct {
	Time    float64
	Source  string // "" for plant-wide entries, e.g. "segment 2" otherwise
	Message string
}

// String formats the entry as "[  t.tts] message".
func (e Entry) String() string {
	if e.Source == "" {
		return fmt.Sprintf("[%6.2fs] %s", e.Time, e.Message)
	}
	return fmt.Sprintf("[%6.2fs] %s: %s", e.Time, e.Source, e.Message)
}

// EventLog is an append-only sequence of entries.
// Thread-safety: NOT thread-safe. Written only by the simulation goroutine.
type EventLog struct {
	entries []Entry
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]Entry, 0)}
}

// Append adds an entry at the end of the log.
func (l *EventLog) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Len returns the number of entries.
func (l *EventLog) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries in append order.
func (l *EventLog) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Ledger holds at most one active trip for the drives it guards.
type Ledger struct {
	clock   TimeTeller
	log     *EventLog
	source  string
	active  Code
	running bool
	trips   int
}

// NewLedger creates a running ledger that timestamps entries with clock and
// appends them to log under the given source label.
func NewLedger(clock TimeTeller, log *EventLog, source string) *Ledger {
	return &Ledger{
		clock:   clock,
		log:     log,
		source:  source,
		active:  None,
		running: true,
	}
}

// Running reports whether no trip is active.
func (l *Ledger) Running() bool {
	return l.running
}

// ActiveTrip returns the latched code, or None.
func (l *Ledger) ActiveTrip() Code {
	return l.active
}

// Source returns the label this ledger writes under.
func (l *Ledger) Source() string {
	return l.source
}

// Trip latches code if no trip is active. It reports whether the trip was recorded.
func (l *Ledger) Trip(code Code) bool {
	if code == None || l.active != None {
		return false
	}
	l.active = code
	l.running = false
	l.trips++
	l.Log("TRIP: " + code.String())
	logrus.Warnf("[t=%7.2fs] %s tripped: %s", l.clock.CurrentTime(), l.label(), code)
	return true
}

// TripCount returns how many trips have latched since the ledger was created.
func (l *Ledger) TripCount() int {
	return l.trips
}

// Reset clears any active trip and logs the acknowledgement.
func (l *Ledger) Reset() {
	l.active = None
	l.running = true
	l.Log("RESET trip")
}

// Log appends a message stamped with the current simulated time.
func (l *Ledger) Log(msg string) {
	l.log.Append(Entry{Time: l.clock.CurrentTime(), Source: l.source, Message: msg})
}

func (l *Ledger) label() string {
	if l.source == "" {
		return "plant"
	}
	return l.source
}
