package search

import "github.com/poiesic/deckdex/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, limit int)
	// Degraded is called when the query could not be embedded and only the
	// lexical pass will run.
	Degraded(err error)
	AfterLexicalSearch(hits []*core.SearchResult)
	AfterSemanticSearch(hits []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                      {}
func (n *noopMonitor) Degraded(_ error)                           {}
func (n *noopMonitor) AfterLexicalSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
