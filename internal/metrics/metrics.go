// Package metrics exports build counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kiln"

// Recorder is safe for concurrent use. A nil Recorder records nothing.
type Recorder struct {
	registry *prom.Registry

	builds       prom.Counter
	buildsFailed prom.Counter
	duration     prom.Histogram
	outputs      *prom.CounterVec
	pages        prom.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry:     prom.NewRegistry(),
		builds:       prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "builds_total", Help: "Builds started"}),
		buildsFailed: prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "builds_failed_total", Help: "Builds that returned an error"}),
		duration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of completed builds",
			Buckets:   prom.ExponentialBuckets(0.01, 2, 12),
		}),
		outputs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_total",
			Help:      "Output files by what the build did with them",
		}, []string{"result"}),
		pages: prom.NewGauge(prom.GaugeOpts{Namespace: namespace, Name: "last_build_pages", Help: "Pages in the most recent build"}),
	}
	r.registry.MustRegister(r.builds, r.buildsFailed, r.duration, r.outputs, r.pages)
	r.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return r
}

func (r *Recorder) BuildFinished(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.builds.Inc()
	if err != nil {
		r.buildsFailed.Inc()
		return
	}
	r.duration.Observe(d.Seconds())
}

func (r *Recorder) Outputs(written, skipped, removed int) {
	if r == nil {
		return
	}
	r.outputs.WithLabelValues("written").Add(float64(written))
	r.outputs.WithLabelValues("skipped").Add(float64(skipped))
	r.outputs.WithLabelValues("removed").Add(float64(removed))
}

func (r *Recorder) Pages(n int) {
	if r == nil {
		return
	}
	r.pages.Set(float64(n))
}

func (r *Recorder) Registry() *prom.Registry { return r.registry }

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
