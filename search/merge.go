package search

import (
	"cmp"
	"slices"

	"github.com/poiesic/deckdex/core"
)

// entityKind separates deck hits from topic hits, which share a result type.
type entityKind uint8

const (
	kindDeck entityKind = iota
	kindTopic
	kindSlide
)

type resultKey struct {
	typ  core.ResultType
	kind entityKind
	id   core.ID
}

func keyOf(r *core.SearchResult) resultKey {
	switch {
	case r.SlideID != 0:
		return resultKey{typ: r.Type, kind: kindSlide, id: r.SlideID}
	case r.TopicID != 0:
		return resultKey{typ: r.Type, kind: kindTopic, id: r.TopicID}
	default:
		return resultKey{typ: r.Type, kind: kindDeck, id: r.DeckID}
	}
}

// merge deduplicates hits keeping the highest score per entity, sorts them by
// score descending and truncates to limit. Ties are broken by entity kind and
// id so the order is stable across runs.
func merge(limit int, sets ...[]*core.SearchResult) []*core.SearchResult {
	best := make(map[resultKey]*core.SearchResult)
	for _, set := range sets {
		for _, r := range set {
			k := keyOf(r)
			if existing, ok := best[k]; !ok || r.Score > existing.Score {
				best[k] = r
			}
		}
	}

	type keyed struct {
		key    resultKey
		result *core.SearchResult
	}
	ordered := make([]keyed, 0, len(best))
	for k, r := range best {
		ordered = append(ordered, keyed{key: k, result: r})
	}
	slices.SortFunc(ordered, func(a, b keyed) int {
		return cmp.Or(
			cmp.Compare(b.result.Score, a.result.Score),
			cmp.Compare(a.key.kind, b.key.kind),
			cmp.Compare(a.key.id, b.key.id),
		)
	})

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	results := make([]*core.SearchResult, len(ordered))
	for i, k := range ordered {
		results[i] = k.result
	}
	return results
}
