package storage

import (
	"math"
	"sort"
)

// CosineSimilarity returns the cosine similarity of two vectors. Mismatched
// lengths and zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// RankTopics sorts matches by descending similarity and truncates to limit.
// A limit <= 0 keeps every match.
func RankTopics(matches []*TopicMatch, limit int) []*TopicMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// RankSlides sorts matches by descending similarity and truncates to limit.
// A limit <= 0 keeps every match.
func RankSlides(matches []*SlideMatch, limit int) []*SlideMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
