package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	pagesRendered *prom.CounterVec
	itemsSkipped  *prom.CounterVec
}

// NewPrometheusRecorder constructs the eduhub metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "eduhub",
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "eduhub",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pagesRendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "eduhub",
			Name:      "pages_rendered_total",
			Help:      "Pages written to the output directory by template",
		}, []string{"template"}),
		itemsSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "eduhub",
			Name:      "items_skipped_total",
			Help:      "Content files or pages skipped during a build by reason",
		}, []string{"reason"}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.pagesRendered, pr.itemsSkipped)
	return pr
}

func (p *PrometheusRecorder) ObserveBuild(d time.Duration, outcome string) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) PageRendered(template string) {
	if p == nil {
		return
	}
	p.pagesRendered.WithLabelValues(template).Inc()
}

func (p *PrometheusRecorder) ItemSkipped(reason string) {
	if p == nil {
		return
	}
	p.itemsSkipped.WithLabelValues(reason).Inc()
}

// HTTPHandler returns an http.Handler that serves metrics for reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
