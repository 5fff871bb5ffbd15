package rag

import (
	"context"
	"slices"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
)

// answerTemplate primes the chat model before the retrieved context and the
// user's question are appended.
const answerTemplate = `You are a helpful assistant. Answer the question using only the provided context. If the context does not contain the answer, say that you do not know.`

// GetContext retrieves the fragments most relevant to the query.
// Returns up to topK fragments, ordered by relevance score descending.
func (e *Engine) GetContext(ctx context.Context, query string) ([]core.Fragment, error) {
	return e.GetContextWithMonitor(ctx, query, nil)
}

// GetContextWithMonitor retrieves the fragments most relevant to the query
// with monitoring. The monitor receives callbacks at each stage of the
// retrieval pipeline. Returns up to topK fragments, ordered by relevance
// score descending.
func (e *Engine) GetContextWithMonitor(ctx context.Context, query string, monitor RetrievalMonitor) ([]core.Fragment, error) {
	if err := e.requireInit(); err != nil {
		return nil, err
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Embed a cleaned form of the query
	cleaned := ai.CleanQuery(query)
	embedding, err := e.embedder.EmbedText(ctx, cleaned)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", cleaned, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(embedding)

	// 2. Over-fetch candidates so reranking and filtering have room
	results, err := e.store.SimilaritySearch(ctx, embedding, e.topK+overFetchMargin)
	if err != nil {
		e.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(results)

	// 3. Rerank when configured; reranker scores replace store scores
	if e.reranker != nil {
		results, err = e.reranker.ReRankDocuments(ctx, cleaned, results)
		if err != nil {
			e.logger.Error("error reranking results", "err", err)
			return nil, err
		}
	}
	monitor.AfterRerank(results)

	// 4. Drop candidates at or below the relevance cutoff
	filtered := results[:0]
	for _, result := range results {
		if result != nil && result.Score > e.relevanceCutoff {
			filtered = append(filtered, result)
		}
	}
	monitor.AfterRelevanceFilter(filtered)

	// 5. Order by score and truncate to topK
	slices.SortStableFunc(filtered, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(filtered) > e.topK {
		filtered = filtered[:e.topK]
	}

	// 6. Drop duplicated content, keeping the better-ranked occurrence
	seen := make(map[core.ID]bool, len(filtered))
	fragments := make([]core.Fragment, 0, len(filtered))
	for _, result := range filtered {
		contentID := core.IDFromContent(result.Fragment.PageContent)
		if seen[contentID] {
			continue
		}
		seen[contentID] = true
		fragments = append(fragments, result.Fragment)
	}

	monitor.Finish(fragments)
	return fragments, nil
}

// Query answers a question grounded in retrieved context. The returned
// Answer carries the model's reply along with the distinct sources of the
// fragments it saw, in retrieval order.
func (e *Engine) Query(ctx context.Context, query string) (*core.Answer, error) {
	return e.QueryConversation(ctx, query, "")
}

// QueryConversation is Query scoped to a conversation. The conversation id
// is passed through to the chat model; an empty id means a one-shot query.
func (e *Engine) QueryConversation(ctx context.Context, query, conversationID string) (*core.Answer, error) {
	fragments, err := e.GetContext(ctx, query)
	if err != nil {
		return nil, err
	}

	result, err := e.model.Answer(ctx, ai.AnswerRequest{
		Template:       answerTemplate,
		Query:          query,
		Context:        fragments,
		ConversationID: conversationID,
	})
	if err != nil {
		e.logger.Error("error generating answer", "err", err)
		return nil, err
	}

	return &core.Answer{
		Result:  result,
		Sources: collectSources(fragments),
	}, nil
}

// collectSources returns the distinct non-empty sources of the fragments,
// preserving first-seen order.
func collectSources(fragments []core.Fragment) []string {
	seen := make(map[string]bool, len(fragments))
	sources := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		source := fragment.Source()
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	return sources
}
