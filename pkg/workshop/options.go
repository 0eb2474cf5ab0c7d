package workshop

import (
	"time"

	"github.com/PentesterFlow/workshopgraph/internal/dom"
	"github.com/PentesterFlow/workshopgraph/internal/logger"
	"github.com/PentesterFlow/workshopgraph/internal/metrics"
)

// Option is a functional option for configuring the Analyzer.
type Option func(*Analyzer) error

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(a *Analyzer) error {
		if config != nil {
			a.config = config
		}
		return nil
	}
}

// WithTransport sets the page transport, bypassing the built-in HTTP client.
func WithTransport(t Transport) Option {
	return func(a *Analyzer) error {
		a.transport = t
		return nil
	}
}

// WithDocumentParser sets the DOM parser.
func WithDocumentParser(p dom.Parser) Option {
	return func(a *Analyzer) error {
		a.parser = p
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) error {
		a.logger = l
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(a *Analyzer) error {
		a.metrics = m
		return nil
	}
}

// WithMaxInFlight caps concurrent page fetches.
func WithMaxInFlight(n int) Option {
	return func(a *Analyzer) error {
		if n < 1 {
			n = 1
		}
		a.config.MaxInFlight = n
		return nil
	}
}

// WithRequestTimeout sets the per-request deadline. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *Analyzer) error {
		a.config.RequestTimeout = d
		return nil
	}
}

// WithSelectors overrides the page selectors. Empty fields keep defaults.
func WithSelectors(s Selectors) Option {
	return func(a *Analyzer) error {
		a.config.Selectors = s
		return nil
	}
}

// WithBlockedPrefixes replaces the rejected top-level URL prefixes.
func WithBlockedPrefixes(prefixes ...string) Option {
	return func(a *Analyzer) error {
		a.config.Scope.BlockedPrefixes = prefixes
		return nil
	}
}

// WithUserAgent sets the outbound User-Agent.
func WithUserAgent(ua string) Option {
	return func(a *Analyzer) error {
		a.config.HTTP.UserAgent = ua
		return nil
	}
}
