package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so tests and multiple servers never collide on
// the global one.
type Collector struct {
	registry *prometheus.Registry

	Analyses           *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	Emergencies        prometheus.Counter
	InferenceFallbacks *prometheus.CounterVec
	JournalEntries     prometheus.Counter
	ReportsSent        *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of analyses by path",
			},
			[]string{"path"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Analysis duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		Emergencies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emergencies_total",
				Help:      "Total number of analyses that tripped the triage gate",
			},
		),
		InferenceFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inference_fallbacks_total",
				Help:      "Total number of inference calls answered by the statistical scorer",
			},
			[]string{"reason"},
		),
		JournalEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "journal_entries_total",
				Help:      "Total number of journal entries saved",
			},
		),
		ReportsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Total number of shared journal reports by status",
			},
			[]string{"status"},
		),
	}

	c.registry.MustRegister(
		c.Analyses,
		c.AnalysisDuration,
		c.Emergencies,
		c.InferenceFallbacks,
		c.JournalEntries,
		c.ReportsSent,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveAnalysis(path string, d time.Duration) {
	c.Analyses.WithLabelValues(path).Inc()
	c.AnalysisDuration.WithLabelValues(path).Observe(d.Seconds())
}

func (c *Collector) RecordEmergency() {
	c.Emergencies.Inc()
}

// RecordFallback matches the inference engine's OnFallback hook.
func (c *Collector) RecordFallback(reason string) {
	c.InferenceFallbacks.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordJournalEntry() {
	c.JournalEntries.Inc()
}

func (c *Collector) RecordReport(err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	c.ReportsSent.WithLabelValues(status).Inc()
}
