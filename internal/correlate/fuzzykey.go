package correlate

import (
	"fmt"
	"reflect"
)

// FuzzyKey is implemented by keys that pair by similarity instead of
// equality. Compare returns a score in [0,1] and ok=false when comparing
// against other doesn't apply (e.g. comparing a StreetKey against a
// LocalityKey's concrete type). Implementations are expected to be
// pointers, or otherwise compare by identity: the engine treats two
// FuzzyKey values as "the same key" only when they are ==, never by
// comparing their Compare output.
type FuzzyKey interface {
	Compare(other FuzzyKey) (score float64, ok bool)
}

func fuzzyKeyType(k FuzzyKey) reflect.Type {
	return reflect.TypeOf(k)
}

// fuzzyScoreCache memoizes Compare results for the lifetime of an Engine.
// It is not safe for concurrent Correlate calls sharing the same Engine;
// callers that need concurrency should use one Engine per goroutine.
type fuzzyScoreCache struct {
	scores map[FuzzyKey]map[FuzzyKey]float64
}

func newFuzzyScoreCache() *fuzzyScoreCache {
	return &fuzzyScoreCache{scores: make(map[FuzzyKey]map[FuzzyKey]float64)}
}

func (c *fuzzyScoreCache) similarity(a, b FuzzyKey) (float64, error) {
	if inner, ok := c.scores[a]; ok {
		if s, ok := inner[b]; ok {
			return s, nil
		}
	}

	score := 1.0
	if !fuzzyKeysIdentical(a, b) {
		s, ok := a.Compare(b)
		if !ok {
			s, ok = b.Compare(a)
			if !ok {
				s = 0
			}
		}
		score = s
	}

	if score < 0 || score > 1 {
		return 0, fmt.Errorf("%w: fuzzy key Compare returned %v, want a value in [0,1]", ErrInvalidArgument, score)
	}

	if c.scores[a] == nil {
		c.scores[a] = make(map[FuzzyKey]float64)
	}
	c.scores[a][b] = score
	return score, nil
}

func fuzzyKeysIdentical(a, b FuzzyKey) bool {
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}
