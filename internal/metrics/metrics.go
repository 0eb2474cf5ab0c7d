// Package metrics provides counters for the workshop resolver.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects resolver metrics. All methods are safe for concurrent use.
type Collector struct {
	// Counters
	analysesTotal atomic.Int64
	analysesFail  atomic.Int64
	fetchesTotal  atomic.Int64
	fetchErrors   atomic.Int64
	cacheHits     atomic.Int64
	cycleSkips    atomic.Int64
	bytesTotal    atomic.Int64

	// Gauges
	inFlight atomic.Int64

	// Response time tracking
	responseTimesSum atomic.Int64
	responseTimesNum atomic.Int64

	// Pages by classification
	pageTypes map[string]*atomic.Int64
	pageMu    sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		pageTypes: make(map[string]*atomic.Int64),
		startTime: time.Now(),
	}
}

// RecordAnalysis records a completed top-level analysis.
func (c *Collector) RecordAnalysis(failed bool) {
	c.analysesTotal.Add(1)
	if failed {
		c.analysesFail.Add(1)
	}
}

// RecordFetch records an outbound page fetch.
func (c *Collector) RecordFetch(d time.Duration, bytes int, err error) {
	c.fetchesTotal.Add(1)
	c.bytesTotal.Add(int64(bytes))
	c.responseTimesSum.Add(d.Milliseconds())
	c.responseTimesNum.Add(1)
	if err != nil {
		c.fetchErrors.Add(1)
	}
}

// RecordCacheHit records a report served from the cache.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Add(1)
}

// RecordCycleSkip records a reference short-circuited by the visited set.
func (c *Collector) RecordCycleSkip() {
	c.cycleSkips.Add(1)
}

// RecordPage records a classified page.
func (c *Collector) RecordPage(pageType string) {
	c.pageMu.RLock()
	counter := c.pageTypes[pageType]
	c.pageMu.RUnlock()

	if counter == nil {
		c.pageMu.Lock()
		if counter = c.pageTypes[pageType]; counter == nil {
			counter = &atomic.Int64{}
			c.pageTypes[pageType] = counter
		}
		c.pageMu.Unlock()
	}
	counter.Add(1)
}

// FetchStarted increments the in-flight gauge; call the returned func when done.
func (c *Collector) FetchStarted() func() {
	c.inFlight.Add(1)
	return func() { c.inFlight.Add(-1) }
}

// Fetches returns the total number of fetches.
func (c *Collector) Fetches() int64 {
	return c.fetchesTotal.Load()
}

// GetAverageResponseTime returns the average fetch time.
func (c *Collector) GetAverageResponseTime() time.Duration {
	sum := c.responseTimesSum.Load()
	num := c.responseTimesNum.Load()
	if num == 0 {
		return 0
	}
	return time.Duration(sum/num) * time.Millisecond
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(c.startTime),
		AnalysesTotal:       c.analysesTotal.Load(),
		AnalysesFailed:      c.analysesFail.Load(),
		FetchesTotal:        c.fetchesTotal.Load(),
		FetchErrors:         c.fetchErrors.Load(),
		CacheHits:           c.cacheHits.Load(),
		CycleSkips:          c.cycleSkips.Load(),
		BytesTotal:          c.bytesTotal.Load(),
		InFlight:            c.inFlight.Load(),
		AverageResponseTime: c.GetAverageResponseTime(),
		PageTypes:           make(map[string]int64),
	}

	c.pageMu.RLock()
	for k, v := range c.pageTypes {
		s.PageTypes[k] = v.Load()
	}
	c.pageMu.RUnlock()

	return s
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp           time.Time        `json:"timestamp"`
	Uptime              time.Duration    `json:"uptime"`
	AnalysesTotal       int64            `json:"analyses_total"`
	AnalysesFailed      int64            `json:"analyses_failed"`
	FetchesTotal        int64            `json:"fetches_total"`
	FetchErrors         int64            `json:"fetch_errors"`
	CacheHits           int64            `json:"cache_hits"`
	CycleSkips          int64            `json:"cycle_skips"`
	BytesTotal          int64            `json:"bytes_total"`
	InFlight            int64            `json:"in_flight"`
	AverageResponseTime time.Duration    `json:"average_response_time"`
	PageTypes           map[string]int64 `json:"page_types"`
}
