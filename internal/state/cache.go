package state

import "sync"

// ReportCache maps an exact request URL to its final report text.
type ReportCache struct {
	mu      sync.RWMutex
	reports map[string]string
}

// NewReportCache creates an empty cache.
func NewReportCache() *ReportCache {
	return &ReportCache{reports: make(map[string]string)}
}

// Get returns the cached report for url.
func (c *ReportCache) Get(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	report, ok := c.reports[url]
	return report, ok
}

// Put stores report under url, replacing any previous entry.
func (c *ReportCache) Put(url, report string) {
	c.mu.Lock()
	c.reports[url] = report
	c.mu.Unlock()
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reports)
}
