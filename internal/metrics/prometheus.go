package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exposes a Collector in the Prometheus exposition format. Every
// scrape reads a fresh Snapshot, so the Collector stays the single source
// of truth.
type Exporter struct {
	collector *Collector

	analyses     *prometheus.Desc
	analysesFail *prometheus.Desc
	fetches      *prometheus.Desc
	fetchErrors  *prometheus.Desc
	cacheHits    *prometheus.Desc
	cycleSkips   *prometheus.Desc
	bytes        *prometheus.Desc
	inFlight     *prometheus.Desc
	avgFetch     *prometheus.Desc
	pages        *prometheus.Desc
	uptime       *prometheus.Desc
}

// NewExporter creates an exporter whose metric names start with namespace.
func NewExporter(namespace string, c *Collector) *Exporter {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Exporter{
		collector:    c,
		analyses:     desc("analyses_total", "Top-level analyses handled."),
		analysesFail: desc("analyses_failed_total", "Top-level analyses that returned an error."),
		fetches:      desc("fetches_total", "Outbound page fetches."),
		fetchErrors:  desc("fetch_errors_total", "Outbound page fetches that failed."),
		cacheHits:    desc("cache_hits_total", "Reports served from the traversal cache."),
		cycleSkips:   desc("cycle_skips_total", "References skipped because the item was already visited."),
		bytes:        desc("fetched_bytes_total", "Page body bytes read."),
		inFlight:     desc("fetches_in_flight", "Page fetches currently running."),
		avgFetch:     desc("fetch_duration_average_seconds", "Average page fetch duration."),
		pages:        desc("pages_total", "Pages classified, by page type.", "type"),
		uptime:       desc("uptime_seconds", "Time since the collector was created."),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		e.analyses, e.analysesFail, e.fetches, e.fetchErrors, e.cacheHits,
		e.cycleSkips, e.bytes, e.inFlight, e.avgFetch, e.pages, e.uptime,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.collector.Snapshot()

	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(e.analyses, s.AnalysesTotal)
	counter(e.analysesFail, s.AnalysesFailed)
	counter(e.fetches, s.FetchesTotal)
	counter(e.fetchErrors, s.FetchErrors)
	counter(e.cacheHits, s.CacheHits)
	counter(e.cycleSkips, s.CycleSkips)
	counter(e.bytes, s.BytesTotal)
	for pageType, n := range s.PageTypes {
		counter(e.pages, n, pageType)
	}
	gauge(e.inFlight, float64(s.InFlight))
	gauge(e.avgFetch, s.AverageResponseTime.Seconds())
	gauge(e.uptime, s.Uptime.Seconds())
}

// Handler serves the exporter from its own registry, leaving the global
// default registry untouched.
func (e *Exporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
