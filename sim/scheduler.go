package sim

import "sort"

// eventEpsilon absorbs step accumulation error when comparing event times to the clock.
const eventEpsilon = 1e-9

// Scheduler fires a fixed, time-ordered list of events exactly once each.
// Events with equal timestamps fire in the order they were given.
type Scheduler struct {
	events []Event
	cursor int
}

// NewScheduler copies and stably sorts events by timestamp.
func NewScheduler(events []Event) *Scheduler {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp() < sorted[j].Timestamp()
	})
	return &Scheduler{events: sorted}
}

// FireDue executes every unfired event with timestamp <= now (within
// eventEpsilon) and returns how many fired.
func (sc *Scheduler) FireDue(sim *Simulator, now float64) int {
	fired := 0
	for sc.cursor < len(sc.events) && sc.events[sc.cursor].Timestamp() <= now+eventEpsilon {
		sc.events[sc.cursor].Execute(sim)
		sc.cursor++
		fired++
	}
	return fired
}

// Pending returns the number of events that have not fired yet.
func (sc *Scheduler) Pending() int {
	return len(sc.events) - sc.cursor
}

// Events returns the sorted event list.
func (sc *Scheduler) Events() []Event {
	return sc.events
}
