// Package state holds the mutable state scoped to one analysis request.
package state

// Traversal is the state shared by every resolution task of one request:
// the visited item ids and the report cache. Create one per request and
// drop it when the request completes.
type Traversal struct {
	Visited *VisitedSet
	Cache   *ReportCache
}

// NewTraversal creates empty traversal state.
func NewTraversal() *Traversal {
	return &Traversal{
		Visited: NewVisitedSet(0),
		Cache:   NewReportCache(),
	}
}
