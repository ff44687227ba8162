package embedding

import (
	"context"
	"strings"
)

// SearchTexts ranks texts by relevance to query and returns up to k hits,
// most relevant first. With a nil engine it degrades to case-insensitive
// substring matching instead of semantic similarity.
func SearchTexts(ctx context.Context, engine Engine, texts []string, query string, k int) ([]SimilarityResult, error) {
	if len(texts) == 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	if engine == nil {
		return substringSearch(texts, query, k), nil
	}

	queryVec, err := engine.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	corpus, err := engine.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return FindTopK(queryVec, corpus, k), nil
}

func substringSearch(texts []string, query string, k int) []SimilarityResult {
	needle := strings.ToLower(query)
	var results []SimilarityResult
	for i, text := range texts {
		if strings.Contains(strings.ToLower(text), needle) {
			results = append(results, SimilarityResult{Index: i, Similarity: 1})
			if len(results) == k {
				break
			}
		}
	}
	return results
}
