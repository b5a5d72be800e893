// Package metrics wires OSAP's wire-visible DBG counters (spec §6,
// §4.4's high-water mark) to Prometheus gauges/counters so they're
// visible off the wire too. Every method is nil-receiver safe so a
// *Recorder is optional everywhere it's threaded through.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder exposes OSAP's pool/device counters as Prometheus metrics.
type Recorder struct {
	highWater prometheus.Gauge
	errors    prometheus.Counter
	debugs    prometheus.Counter
	hold      *prometheus.GaugeVec
}

// New creates and registers a Recorder under the given namespace. Pass
// a private *prometheus.Registry in tests to avoid collisions with the
// default global registry.
func New(reg prometheus.Registerer, namespace string) *Recorder {
	r := &Recorder{
		highWater: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_high_water_mark",
			Help:      "Highest number of simultaneously queued packet slots observed.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Count of dropped/errored datagrams since boot.",
		}),
		debugs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debug_messages_total",
			Help:      "Count of debug messages pushed to the error/debug ring.",
		}),
		hold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vertex_hold",
			Help:      "Packet slots currently held by a vertex.",
		}, []string{"vertex"}),
	}

	if reg != nil {
		reg.MustRegister(r.highWater, r.errors, r.debugs, r.hold)
	}

	return r
}

func (r *Recorder) SetHighWater(v int) {
	if r == nil {
		return
	}
	r.highWater.Set(float64(v))
}

func (r *Recorder) IncErrors() {
	if r == nil {
		return
	}
	r.errors.Inc()
}

func (r *Recorder) IncDebugs() {
	if r == nil {
		return
	}
	r.debugs.Inc()
}

func (r *Recorder) SetHold(vertexName string, n int) {
	if r == nil {
		return
	}
	r.hold.WithLabelValues(vertexName).Set(float64(n))
}
