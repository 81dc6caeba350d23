package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/nextcrawl/internal/model"
)

const namespace = "nextcrawl"

// Instruments holds the live Prometheus series of a crawl.
// A nil *Instruments is valid and records nothing.
type Instruments struct {
	registry *prometheus.Registry

	pagesCrawled  prometheus.Counter
	fetchFailures *prometheus.CounterVec
	parseFailures prometheus.Counter
	crossHost     prometheus.Counter
	duplicates    prometheus.Counter
	fetchDuration *prometheus.HistogramVec
	frontierSize  prometheus.Gauge
	inFlight      prometheus.Gauge
	poolBusy      prometheus.Gauge
}

// NewInstruments registers the crawl series on a fresh registry.
// Each call yields an independent registry, so tests and repeated runs in
// one process never collide on registration.
func NewInstruments() *Instruments {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Instruments{
		registry: reg,
		pagesCrawled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_crawled_total",
			Help:      "Pages fetched successfully.",
		}),
		fetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed fetches by reason.",
		}, []string{"reason"}),
		parseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Pages whose processing failed.",
		}),
		crossHost: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cross_host_links_total",
			Help:      "Next links dropped for leaving the start host.",
		}),
		duplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_links_total",
			Help:      "Next links skipped because they were already seen.",
		}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of page fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		frontierSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_size",
			Help:      "URLs waiting in the frontier.",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_flight_pages",
			Help:      "Pages being fetched or processed.",
		}),
		poolBusy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_busy_workers",
			Help:      "Parse workers currently running a task.",
		}),
	}
}

// Registry returns the registry the series live on.
func (m *Instruments) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the series in the Prometheus exposition format.
func (m *Instruments) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records the outcome and latency of one fetch.
func (m *Instruments) ObserveFetch(res model.FetchResult) {
	if m == nil {
		return
	}
	outcome := "ok"
	if reason := res.FailureReason(); reason != "" {
		outcome = reason
		m.fetchFailures.WithLabelValues(reason).Inc()
	} else {
		m.pagesCrawled.Inc()
	}
	m.fetchDuration.WithLabelValues(outcome).Observe(res.Duration.Seconds())
}

// ObserveParse records the link and failure outcome of one processed page.
func (m *Instruments) ObserveParse(res model.ParseResult) {
	if m == nil {
		return
	}
	if res.Err != nil {
		m.parseFailures.Inc()
	}
	if res.CrossHost {
		m.crossHost.Inc()
	}
}

// IncDuplicate counts a Next link that was already known.
func (m *Instruments) IncDuplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

// SetFrontierSize sets the number of queued URLs.
func (m *Instruments) SetFrontierSize(n int) {
	if m == nil {
		return
	}
	m.frontierSize.Set(float64(n))
}

// SetInFlight sets the number of pages in progress.
func (m *Instruments) SetInFlight(n int) {
	if m == nil {
		return
	}
	m.inFlight.Set(float64(n))
}

// SetPoolBusy sets the number of busy parse workers.
func (m *Instruments) SetPoolBusy(n int) {
	if m == nil {
		return
	}
	m.poolBusy.Set(float64(n))
}
