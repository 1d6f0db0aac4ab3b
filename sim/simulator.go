package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/conveyor-sim/conveyor-sim/sim/conveyor"
	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/motor"
	"github.com/conveyor-sim/conveyor-sim/sim/supply"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
	"github.com/conveyor-sim/conveyor-sim/sim/vfd"
)

// Clock counts fixed steps. Time is derived as steps*dt so it never drifts
// and never decreases.
type Clock struct {
	steps int64
	dt    float64
}

// CurrentTime returns simulated seconds since the start of the run.
func (c *Clock) CurrentTime() float64 {
	return float64(c.steps) * c.dt
}

// Steps returns the number of completed ticks.
func (c *Clock) Steps() int64 {
	return c.steps
}

// Reporter receives a snapshot every sample period.
type Reporter interface {
	Publish(ctx context.Context, s trace.Sample) error
}

// Simulator steps a supply, one drive/motor pair per segment and the packages
// on the belt, firing scenario events as their time comes.
//
// Thread-safety: NOT thread-safe. Tick and Run must be called from one goroutine.
type Simulator struct {
	Config    PlantConfig
	RunID     string
	Supply    *supply.Supply
	Segments  []*Segment
	Line      *conveyor.Line
	Mechanics conveyor.Mechanics
	EventLog  *fault.EventLog
	Trace     *trace.SimulationTrace
	Reporter  Reporter // optional

	clock      *Clock
	ledgers    []*fault.Ledger
	tripsSeen  []int
	spawner    *conveyor.Spawner
	scheduler  *Scheduler
	rng        *PartitionedRNG
	gauges     []gauge
	nextSample float64
}

// NewSimulator builds the plant described by cfg with the given scenario.
func NewSimulator(cfg PlantConfig, events []Event) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plant config: %w", err)
	}
	line, err := conveyor.NewLine(cfg.Conveyor.LengthM, cfg.Conveyor.Segments)
	if err != nil {
		return nil, err
	}

	sim := &Simulator{
		Config:    cfg,
		Supply:    supply.New(cfg.Supply),
		Line:      line,
		Mechanics: cfg.Conveyor.Mechanics,
		EventLog:  fault.NewEventLog(),
		Trace:     trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(cfg.Run.TraceLevel)}),
		clock:     &Clock{dt: cfg.Run.Dt},
		scheduler: NewScheduler(events),
		rng:       NewPartitionedRNG(NewSimulationKey(cfg.Run.Seed)),
	}
	sim.spawner = conveyor.NewSpawner(cfg.Conveyor.Spawn, sim.rng.ForSubsystem(SubsystemPackages))

	var shared *fault.Ledger
	if cfg.TripScope != TripScopeSegment {
		shared = sim.newLedger("")
	}
	for i := 0; i < cfg.Conveyor.Segments; i++ {
		ledger := shared
		if ledger == nil {
			ledger = sim.newLedger(fmt.Sprintf("segment %d", i))
		}
		start, end := line.Span(i)
		seg := &Segment{
			Index:          i,
			StartM:         start,
			EndM:           end,
			Vfd:            vfd.New(cfg.Vfd, ledger, sim.clock),
			Motor:          motor.New(cfg.Motor, sim.rng.ForSubsystem(SubsystemSegment(i))),
			Ledger:         ledger,
			BaseLoadTorque: cfg.Conveyor.BaseLoadTorque,
		}
		seg.Vfd.State.TargetFrequency = cfg.Conveyor.TargetFrequency
		sim.Segments = append(sim.Segments, seg)
	}
	sim.buildGauges()
	return sim, nil
}

func (sim *Simulator) newLedger(source string) *fault.Ledger {
	l := fault.NewLedger(sim.clock, sim.EventLog, source)
	sim.ledgers = append(sim.ledgers, l)
	sim.tripsSeen = append(sim.tripsSeen, 0)
	return l
}

// Now returns the current simulated time in seconds.
func (sim *Simulator) Now() float64 {
	return sim.clock.CurrentTime()
}

// Steps returns the number of completed ticks.
func (sim *Simulator) Steps() int64 {
	return sim.clock.Steps()
}

// Ledgers returns the distinct trip ledgers: one under global scope, one per segment otherwise.
func (sim *Simulator) Ledgers() []*fault.Ledger {
	return sim.ledgers
}

// PendingEvents returns the number of scenario events not yet fired.
func (sim *Simulator) PendingEvents() int {
	return sim.scheduler.Pending()
}

// Log appends a plant-level line to the event log.
func (sim *Simulator) Log(msg string) {
	sim.EventLog.Append(fault.Entry{Time: sim.Now(), Message: msg})
}

// SetTargetFrequency changes the setpoint of one drive, or every drive for AllSegments.
func (sim *Simulator) SetTargetFrequency(segment int, hz float64) {
	for _, seg := range sim.targets(segment) {
		seg.Vfd.State.TargetFrequency = hz
	}
	sim.Log(fmt.Sprintf("target frequency %.2f Hz on %s", hz, targetLabel(segment)))
}

// ResetTrip acknowledges the trip guarding one segment, or every ledger for AllSegments.
func (sim *Simulator) ResetTrip(segment int) {
	if segment == AllSegments {
		for _, l := range sim.ledgers {
			l.Reset()
		}
		return
	}
	for _, seg := range sim.targets(segment) {
		seg.Ledger.Reset()
	}
}

func (sim *Simulator) targets(segment int) []*Segment {
	if segment == AllSegments {
		return sim.Segments
	}
	if segment < 0 || segment >= len(sim.Segments) {
		logrus.Debugf("ignoring event for unknown segment %d", segment)
		return nil
	}
	return sim.Segments[segment : segment+1]
}

// Tick advances the plant by one step: due events, spawning, clock, supply,
// every segment in index order, then package motion.
func (sim *Simulator) Tick() {
	dt := sim.clock.dt

	sim.scheduler.FireDue(sim, sim.Now())
	if p, ok := sim.spawner.Spawn(sim.Now(), sim.Line); ok {
		logrus.Debugf("[t=%7.2fs] package %d spawned at %.2f m (%.2f kg)", sim.Now(), p.ID, p.PositionM, p.MassKg)
	}

	sim.clock.steps++
	sim.Supply.Step(dt)
	for _, seg := range sim.Segments {
		seg.step(dt, sim.Supply.Outputs, sim.Mechanics, sim.Line)
	}
	sim.Line.Advance(func(i int) float64 {
		return sim.Segments[i].BeltSpeed(sim.Mechanics)
	}, dt)

	sim.recordTrips()
}

// recordTrips copies newly latched trips into the trace.
func (sim *Simulator) recordTrips() {
	for i, l := range sim.ledgers {
		if n := l.TripCount(); n != sim.tripsSeen[i] {
			sim.tripsSeen[i] = n
			sim.Trace.RecordTrip(trace.TripRecord{
				Time:   sim.Now(),
				Source: l.Source(),
				Code:   l.ActiveTrip().String(),
			})
		}
	}
}

// Run ticks until the configured duration, sampling and pacing along the way.
// Cancellation is checked between ticks; a tick is never abandoned halfway.
func (sim *Simulator) Run(ctx context.Context) error {
	run := sim.Config.Run
	if err := run.Validate(); err != nil {
		return err
	}

	logrus.Infof("Starting %s simulation for %.0fs sim-time (dt=%gs, speed factor %.2f, start delay %.1fs)",
		sim.Config.Name, run.Duration, run.Dt, run.SpeedFactor, run.StartDelay)
	if err := sleepContext(ctx, time.Duration(run.StartDelay*float64(time.Second))); err != nil {
		return err
	}

	pacer := NewPacer(run.SpeedFactor)
	start := sim.Now()
	for sim.Now() < run.Duration-eventEpsilon {
		if err := ctx.Err(); err != nil {
			return err
		}
		sim.Tick()
		if sim.Now() >= sim.nextSample-eventEpsilon {
			sim.sample(ctx)
			sim.nextSample += run.SamplePeriod
		}
		if err := pacer.Wait(ctx, sim.Now()-start); err != nil {
			return err
		}
	}

	logrus.Infof("Simulation ended at %.2fs after %d ticks, %d trips, %d events pending",
		sim.Now(), sim.Steps(), len(sim.Trace.Trips), sim.PendingEvents())
	return nil
}

func (sim *Simulator) sample(ctx context.Context) {
	s := sim.Snapshot()
	sim.Trace.RecordSample(s)
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		for _, seg := range sim.Segments {
			logrus.Debugf("[t=%7.2fs] seg %d f=%.1fHz rpm=%.0f I=%.1fA running=%t",
				s.Time, seg.Index, seg.Vfd.Outputs.OutputFrequency, seg.Motor.State.SpeedRpm,
				seg.Motor.Outputs.PhaseCurrent, seg.Running())
		}
	}
	if sim.Reporter == nil {
		return
	}
	if err := sim.Reporter.Publish(ctx, s); err != nil {
		logrus.Warnf("publishing sample at %.2fs: %v", s.Time, err)
	}
}
