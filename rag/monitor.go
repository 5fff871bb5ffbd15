package rag

import "github.com/poiesic/ragcore/core"

// RetrievalMonitor provides hooks to observe the retrieval pipeline.
// Implement this interface to track intermediate steps and results during
// context retrieval.
type RetrievalMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterVectorSearch(results []*core.SearchResult)
	AfterRerank(results []*core.SearchResult)
	AfterRelevanceFilter(results []*core.SearchResult)
	Finish(fragments []core.Fragment)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)             {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.SearchResult)    {}
func (n *noopMonitor) AfterRerank(_ []*core.SearchResult)          {}
func (n *noopMonitor) AfterRelevanceFilter(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []core.Fragment)                    {}
