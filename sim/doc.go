// Package sim provides the fixed-timestep plant simulation engine for a
// conveyor drivetrain.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - simulator.go: the Simulator, the per-tick order and the Run loop
//   - segment.go: the supply -> drive -> motor -> drive chain of one segment
//   - event.go and scheduler.go: scenario events and the cursor that fires them
//   - anomaly.go: how anomaly keys reach supply, drive and motor flags
//   - snapshot.go: the flat name/value view handed to reporters
//
// # Architecture
//
// The physical models live in sub-packages and know nothing about each other:
//   - sim/fault/: trip ledger, fault codes and the event log
//   - sim/supply/: three-phase grid source
//   - sim/vfd/: V/Hz drive with DC bus, heatsink and trip limits
//   - sim/motor/: induction motor torque-slip model
//   - sim/conveyor/: belt mechanics, packages and the arrival process
//   - sim/scenario/: YAML scenario files and built-in scenarios
//   - sim/trace/: sampled snapshots, trip records and summaries
//
// Consumers of the sample stream sit beside the engine:
//   - sim/report/: console status table, event log, summary and PNG plots
//   - sim/publish/: files, SQLite, MQTT, Kafka, NATS, InfluxDB, Prometheus and HTTP sinks
//
// The Simulator wires them together each tick and owns the only clock.
// Reporting is out of band: after a tick the Simulator may hand a Snapshot to
// a Reporter, and nothing flows back.
package sim
