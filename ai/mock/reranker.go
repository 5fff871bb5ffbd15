package mock

import (
	"context"

	"github.com/poiesic/ragcore/core"
)

// MockReranker is a test double for ai.Reranker.
type MockReranker struct {
	// ReRankFunc is called by ReRankDocuments if set.
	// If nil, results are returned unchanged.
	ReRankFunc func(ctx context.Context, query string, results []*core.SearchResult) ([]*core.SearchResult, error)

	callCount int
}

// NewMockReranker creates a mock reranker that passes results through unchanged.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// ReRankDocuments applies the injected behavior, or returns results unchanged.
func (m *MockReranker) ReRankDocuments(ctx context.Context, query string, results []*core.SearchResult) ([]*core.SearchResult, error) {
	m.callCount++

	if m.ReRankFunc != nil {
		return m.ReRankFunc(ctx, query, results)
	}
	return results, nil
}

// CallCount returns the number of times ReRankDocuments was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}
