// Package publish ships plant snapshots out of the simulator: to files, to a
// local database, to message brokers and time-series stores, and over HTTP.
//
// Every destination implements Sink. A Multi fans one sample out to several
// sinks and is what the simulator's Reporter hook normally points at.
package publish

import (
	"context"
	"errors"

	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

// Sink receives samples until it is closed.
// Thread-safety: Publish is called from the simulation goroutine only.
type Sink interface {
	Publish(ctx context.Context, s trace.Sample) error
	Close() error
}

// EventRecorder is implemented by sinks that also keep the event log of a
// finished run.
type EventRecorder interface {
	RecordEvents(ctx context.Context, runID string, entries []fault.Entry) error
}

// Multi publishes each sample to every sink in order. A failing sink does
// not stop the others; the errors are joined.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, s trace.Sample) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordEvents hands the event log to every sink that records events.
func (m Multi) RecordEvents(ctx context.Context, runID string, entries []fault.Entry) error {
	var errs []error
	for _, sink := range m {
		if rec, ok := sink.(EventRecorder); ok {
			if err := rec.RecordEvents(ctx, runID, entries); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// record is the wire form shared by the encoded sinks: the sample with its
// values flattened into an object.
type record struct {
	RunID  string             `json:"run_id,omitempty"`
	Time   float64            `json:"time"`
	Values map[string]float64 `json:"values"`
}

func toRecord(s trace.Sample) record {
	return record{RunID: s.RunID, Time: s.Time, Values: s.Map()}
}
