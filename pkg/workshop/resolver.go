package workshop

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/PentesterFlow/workshopgraph/internal/classify"
	"github.com/PentesterFlow/workshopgraph/internal/dom"
	"github.com/PentesterFlow/workshopgraph/internal/errors"
	"github.com/PentesterFlow/workshopgraph/internal/extract"
	"github.com/PentesterFlow/workshopgraph/internal/logger"
	"github.com/PentesterFlow/workshopgraph/internal/metrics"
	"github.com/PentesterFlow/workshopgraph/internal/output"
	"github.com/PentesterFlow/workshopgraph/internal/scope"
	"github.com/PentesterFlow/workshopgraph/internal/state"
)

// Resolver fetches a workshop page, classifies it and recursively resolves
// everything it references.
//
// Sibling references are resolved concurrently. A weighted semaphore caps
// in-flight fetches; it is held only for the duration of a fetch and never
// across a fork-join wait, so nested fan-out cannot starve itself.
type Resolver struct {
	transport  Transport
	parser     dom.Parser
	classifier *classify.Classifier
	scope      *scope.Checker
	selectors  Selectors
	linkSel    string
	fetchSem   *semaphore.Weighted
	metrics    *metrics.Collector
	log        *logger.Logger
}

// childLink is a discovered item link, captured before dispatch so report
// order follows the document.
type childLink struct {
	url string
	id  string
}

func newResolver(transport Transport, parser dom.Parser, selectors Selectors, rules scope.Rules, maxInFlight int, m *metrics.Collector, log *logger.Logger) *Resolver {
	selectors = selectors.withDefaults()
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Resolver{
		transport:  transport,
		parser:     parser,
		classifier: classify.New(selectors.CollectionContainer),
		scope:      scope.NewChecker(rules),
		selectors:  selectors,
		linkSel:    fmt.Sprintf("a[href*=%q]", selectors.LinkSubstring),
		fetchSem:   semaphore.NewWeighted(int64(maxInFlight)),
		metrics:    m,
		log:        log.WithComponent("resolver"),
	}
}

// Resolve produces the report for rawURL using st as the request's
// traversal state. Only this entry point validates the URL and reads or
// writes the report cache.
func (r *Resolver) Resolve(ctx context.Context, st *state.Traversal, rawURL string) (string, error) {
	if err := r.scope.Validate(rawURL); err != nil {
		return "", err
	}

	if report, ok := st.Cache.Get(rawURL); ok {
		r.metrics.RecordCacheHit()
		r.log.WithURL(rawURL).Debug("Report served from cache")
		return report, nil
	}

	lines, err := r.resolvePage(ctx, st, rawURL)
	if err != nil {
		return "", err
	}

	report := output.Render(lines)
	st.Cache.Put(rawURL, report)
	return report, nil
}

// resolvePage runs fetch, classify and recursion for one page. Only a
// failure to load the page itself is returned as an error.
func (r *Resolver) resolvePage(ctx context.Context, st *state.Traversal, rawURL string) ([]string, error) {
	doc, err := r.load(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	cls := r.classifier.Classify(doc, rawURL)
	r.metrics.RecordPage(string(cls.Type))

	switch cls.Type {
	case classify.Unknown:
		r.log.PageEvent(rawURL, "", string(cls.Type), 0)
		return output.PageLines(string(cls.Type), nil, rawURL), nil
	case classify.Modpack:
		return r.resolveModpack(ctx, st, doc, rawURL), nil
	default:
		return r.resolveItem(ctx, st, doc, rawURL, cls), nil
	}
}

// resolveModpack resolves every collection child. Children are resolved as
// full nested resolutions; the visited set is consulted by each child itself.
// A collection already entered in this request renders nothing, which stops
// collections that contain themselves.
func (r *Resolver) resolveModpack(ctx context.Context, st *state.Traversal, doc dom.Document, rawURL string) []string {
	if id, ok := extract.ItemID(rawURL); ok && !st.Visited.TryVisit(collectionKey(id)) {
		r.metrics.RecordCycleSkip()
		r.log.WithURL(rawURL).WithItem(id).Debug("Collection already visited")
		return nil
	}

	var children []childLink
	for _, item := range doc.FindWithin(r.selectors.CollectionContainer, r.selectors.CollectionItem) {
		links := item.Find(r.linkSel)
		if len(links) == 0 {
			continue
		}
		child, ok := r.link(rawURL, links[0])
		if !ok {
			continue
		}
		children = append(children, child)
	}

	ids := make([]string, len(children))
	urls := make([]string, len(children))
	for i, c := range children {
		ids[i] = c.id
		urls[i] = c.url
	}
	sortIDs(ids)

	r.log.PageEvent(rawURL, "", string(classify.Modpack), len(children))

	own := output.ModpackLines(ids, rawURL)
	return output.Flatten(own, r.fanOut(ctx, st, urls))
}

// resolveItem emits a mod or map page and resolves its required items.
func (r *Resolver) resolveItem(ctx context.Context, st *state.Traversal, doc dom.Document, rawURL string, cls classify.Classification) []string {
	id, hasID := extract.ItemID(rawURL)
	if hasID && !st.Visited.TryVisit(id) {
		r.metrics.RecordCycleSkip()
		r.log.WithURL(rawURL).WithItem(id).Debug("Item already visited")
		return nil
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, a := range doc.FindWithin(r.selectors.ReferencesContainer, r.linkSel) {
		ref, ok := r.link(rawURL, a)
		if !ok {
			continue
		}
		if _, dup := seen[ref.id]; dup || (hasID && ref.id == id) {
			continue
		}
		seen[ref.id] = struct{}{}
		if st.Visited.HasVisited(ref.id) {
			r.metrics.RecordCycleSkip()
			continue
		}
		urls = append(urls, ref.url)
	}

	r.log.PageEvent(rawURL, id, string(cls.Type), len(urls))

	own := output.PageLines(string(cls.Type), cls.Fields.Lines(), rawURL)
	return output.Flatten(own, r.fanOut(ctx, st, urls))
}

// resolveNested resolves a referenced page. A failure becomes a single
// report line at the page's position.
func (r *Resolver) resolveNested(ctx context.Context, st *state.Traversal, rawURL string) []string {
	lines, err := r.resolvePage(ctx, st, rawURL)
	if err != nil {
		r.log.WithURL(rawURL).WithError(err).Warn("Nested page failed")
		return []string{output.FailureLine(rawURL, errors.Describe(err))}
	}
	return lines
}

// fanOut resolves urls concurrently and returns their results in input order.
// Nested failures are report lines, so no goroutine returns an error.
func (r *Resolver) fanOut(ctx context.Context, st *state.Traversal, urls []string) [][]string {
	results := make([][]string, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = r.resolveNested(ctx, st, u)
			return nil
		})
	}
	g.Wait()

	return results
}

// link turns an anchor into an absolute URL plus item id. Links without an
// id are malformed references and are dropped.
func (r *Resolver) link(base string, a dom.Node) (childLink, bool) {
	href, ok := a.Attr("href")
	if !ok {
		return childLink{}, false
	}
	abs := extract.AbsoluteURL(base, href)
	id, ok := extract.ItemID(abs)
	if !ok {
		err := errors.NewMalformedReferenceError(abs)
		r.log.WithURL(base).WithError(err).Debug("Skipping reference")
		return childLink{}, false
	}
	return childLink{url: abs, id: id}, true
}

// load fetches and parses a page under the in-flight limit.
func (r *Resolver) load(ctx context.Context, rawURL string) (dom.Document, error) {
	body, err := r.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := r.parser.Parse(body)
	if err != nil {
		return nil, errors.NewParseError(rawURL, "parse_html", err)
	}
	return doc, nil
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := r.fetchSem.Acquire(ctx, 1); err != nil {
		return nil, errors.NewCancelledError(rawURL, "fetch", err)
	}
	defer r.fetchSem.Release(1)

	done := r.metrics.FetchStarted()
	defer done()

	start := time.Now()
	page, err := r.transport.Fetch(ctx, rawURL)
	if err == nil && page == nil {
		err = errors.NewFetchError(rawURL, fmt.Errorf("transport returned no page"))
	}
	if err == nil && page.StatusCode != 0 {
		if statusErr := errors.CategorizeHTTPStatus(page.StatusCode, page.Status, rawURL); statusErr != nil {
			err = statusErr
		}
	}

	var size int
	if page != nil {
		size = len(page.Body)
	}
	if err != nil {
		err = errors.Categorize(err, rawURL)
	}
	r.metrics.RecordFetch(time.Since(start), size, err)

	if err != nil {
		return nil, err
	}
	r.log.FetchEvent(rawURL, page.StatusCode, time.Since(start))
	return page.Body, nil
}

// collectionKey keeps collection ids apart from item ids in the visited set.
func collectionKey(id string) string {
	return "collection:" + id
}

// sortIDs orders digit strings numerically.
func sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}
