package publish

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

// InfluxMeasurement is the measurement every sample is written under.
const InfluxMeasurement = "conveyor_sample"

// pointWriter is the part of api.WriteAPIBlocking the sink uses.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink writes each sample as one point: channels become fields, the
// run ID a tag. Point timestamps are the run's wall-clock origin plus the
// simulated time so runs do not overwrite each other.
type InfluxSink struct {
	w      pointWriter
	origin time.Time
	close  func()
}

// NewInfluxSink connects a blocking writer for org/bucket at url.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		w:      client.WriteAPIBlocking(org, bucket),
		origin: time.Now(),
		close:  client.Close,
	}
}

// Publish implements Sink.
func (i *InfluxSink) Publish(ctx context.Context, s trace.Sample) error {
	if err := i.w.WritePoint(ctx, i.point(s)); err != nil {
		return fmt.Errorf("could not write data point to InfluxDB: %w", err)
	}
	return nil
}

func (i *InfluxSink) point(s trace.Sample) *write.Point {
	fields := make(map[string]interface{}, len(s.Values)+1)
	for _, v := range s.Values {
		fields[v.Name] = v.Value
	}
	fields["sim_time"] = s.Time
	tags := map[string]string{}
	if s.RunID != "" {
		tags["run_id"] = s.RunID
	}
	ts := i.origin.Add(time.Duration(s.Time * float64(time.Second)))
	return influxdb2.NewPoint(InfluxMeasurement, tags, fields, ts)
}

// Close implements Sink.
func (i *InfluxSink) Close() error {
	if i.close != nil {
		i.close()
	}
	return nil
}
