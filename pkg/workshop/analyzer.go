// Package workshop classifies Steam Workshop pages and resolves the graph of
// items they reference into a flat, human-readable report.
package workshop

import (
	"context"
	"fmt"

	"github.com/PentesterFlow/workshopgraph/internal/dom"
	whttp "github.com/PentesterFlow/workshopgraph/internal/http"
	"github.com/PentesterFlow/workshopgraph/internal/logger"
	"github.com/PentesterFlow/workshopgraph/internal/metrics"
	"github.com/PentesterFlow/workshopgraph/internal/state"
)

// Analyzer is the entry point for resolving workshop URLs.
type Analyzer struct {
	config    *Config
	transport Transport
	parser    dom.Parser
	logger    *logger.Logger
	metrics   *metrics.Collector
	client    *whttp.Client
	resolver  *Resolver
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if a.logger == nil {
		a.logger = a.config.NewLogger()
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	if a.parser == nil {
		a.parser = dom.NewHTMLParser()
	}
	if a.transport == nil {
		a.client = whttp.NewClient(a.config.HTTP)
		a.transport = &httpTransport{client: a.client}
	}

	a.resolver = newResolver(
		a.transport,
		a.parser,
		a.config.Selectors,
		a.config.Scope,
		a.config.MaxInFlight,
		a.metrics,
		a.logger,
	)

	return a, nil
}

// Analyze resolves rawURL with fresh traversal state and returns the report.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (string, error) {
	return a.Resolve(ctx, state.NewTraversal(), rawURL)
}

// Resolve resolves rawURL against caller-owned traversal state. Reusing st
// across calls shares its visited set and report cache.
func (a *Analyzer) Resolve(ctx context.Context, st *state.Traversal, rawURL string) (string, error) {
	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	report, err := a.resolver.Resolve(ctx, st, rawURL)
	a.metrics.RecordAnalysis(err != nil)
	if err != nil {
		a.logger.WithURL(rawURL).WithError(err).Warn("Analysis failed")
		return "", err
	}
	return report, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() *Config {
	return a.config
}

// Metrics returns the metrics collector.
func (a *Analyzer) Metrics() *metrics.Collector {
	return a.metrics
}

// MetricsSnapshot returns a point-in-time metrics snapshot.
func (a *Analyzer) MetricsSnapshot() *metrics.Snapshot {
	return a.metrics.Snapshot()
}

// Logger returns the analyzer logger.
func (a *Analyzer) Logger() *logger.Logger {
	return a.logger
}

// Close releases idle connections held by the default transport.
func (a *Analyzer) Close() {
	if a.client != nil {
		a.client.Close()
	}
}

// httpTransport adapts the internal HTTP client to Transport.
type httpTransport struct {
	client *whttp.Client
}

func (t *httpTransport) Fetch(ctx context.Context, url string) (*Page, error) {
	page, err := t.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Page{
		Body:       page.Body,
		StatusCode: page.StatusCode,
		Status:     page.Status,
	}, nil
}
