package publish

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

// PromSink mirrors the latest sample into gauges on its own registry.
type PromSink struct {
	registry *prometheus.Registry
	channels *prometheus.GaugeVec
	simTime  prometheus.Gauge
	samples  prometheus.Counter
	live     map[string]bool // channel labels set by the last sample
}

// NewPromSink registers the conveyor gauges on a fresh registry.
func NewPromSink() *PromSink {
	p := &PromSink{
		registry: prometheus.NewRegistry(),
		channels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "conveyor_channel_value",
			Help: "Latest sampled value of a plant channel.",
		}, []string{"channel"}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "conveyor_sim_time_seconds",
			Help: "Simulated time of the latest sample.",
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_samples_total",
			Help: "Samples published since start.",
		}),
	}
	p.live = make(map[string]bool)
	p.registry.MustRegister(p.channels, p.simTime, p.samples)
	return p
}

// Publish implements Sink. Channels absent from s, such as packages that
// have left the belt, are removed rather than left at their last value.
func (p *PromSink) Publish(_ context.Context, s trace.Sample) error {
	live := make(map[string]bool, len(s.Values))
	for _, v := range s.Values {
		p.channels.WithLabelValues(v.Name).Set(v.Value)
		live[v.Name] = true
	}
	for name := range p.live {
		if !live[name] {
			p.channels.DeleteLabelValues(name)
		}
	}
	p.live = live
	p.simTime.Set(s.Time)
	p.samples.Inc()
	return nil
}

// Close implements Sink.
func (p *PromSink) Close() error { return nil }

// Handler serves the registry in the Prometheus exposition format.
func (p *PromSink) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
