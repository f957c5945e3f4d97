package correlate

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// roundTuple is the (key, weight, round, penalty) tuple for one fuzzy key
// on one value, built once per Correlate call and then shared by pointer
// identity across every candidate pair that touches it — pass 2's
// cumulative fuzzy scores are keyed by this pointer, not by value, since
// the same fuzzy key's contribution must be shared across every pairing
// it takes part in.
type roundTuple struct {
	key     FuzzyKey
	weight  float64
	round   int
	penalty float64
}

type fuzzyRoundsForType struct {
	round0    []*roundTuple
	roundsGE1 []*roundTuple
}

func (f *fuzzyRoundsForType) allTuples() []*roundTuple {
	out := make([]*roundTuple, 0, len(f.round0)+len(f.roundsGE1))
	out = append(out, f.round0...)
	out = append(out, f.roundsGE1...)
	return out
}

type exactRound struct {
	keys   map[any]struct{}
	weight map[any]exactWeight
}

type exactWeight struct {
	weight float64
	count  int // how many opposite-side values used this key on this round
}

type streamlinedValue struct {
	exactRounds []exactRound
	fuzzy       map[reflect.Type]*fuzzyRoundsForType
	totalKeys   int
}

type streamlinedData struct {
	allExactKeys map[any]struct{}
	allFuzzyKeys map[reflect.Type]map[FuzzyKey]struct{}
	values       []streamlinedValue
}

// precomputeStreamlined builds, for every value in d, a per-round view of
// its keys cross-referenced against other's occurrence counts for the
// same key on the same round. It's built fresh for every Correlate call
// and discarded once the four passes finish; nothing here is retained
// between calls.
func precomputeStreamlined(d, other *Dataset, keyReusePenaltyFactor float64) *streamlinedData {
	s := &streamlinedData{
		allExactKeys: make(map[any]struct{}),
		allFuzzyKeys: make(map[reflect.Type]map[FuzzyKey]struct{}),
		values:       make([]streamlinedValue, len(d.values)),
	}

	for idx, pv := range d.perValue {
		sv := &s.values[idx]
		sv.fuzzy = make(map[reflect.Type]*fuzzyRoundsForType)
		totalKeys := 0

		for key, weights := range pv.exact {
			s.allExactKeys[key] = struct{}{}
			totalKeys += len(weights)

			for len(sv.exactRounds) < len(weights) {
				sv.exactRounds = append(sv.exactRounds, exactRound{
					keys:   make(map[any]struct{}),
					weight: make(map[any]exactWeight),
				})
			}

			otherRounds := other.keyRounds[key]
			for r, w := range weights {
				count := 0
				if r < len(otherRounds) {
					count = len(otherRounds[r])
				}
				sv.exactRounds[r].keys[key] = struct{}{}
				sv.exactRounds[r].weight[key] = exactWeight{weight: w, count: count}
			}
		}

		for ft, order := range pv.fuzzyOrder {
			if len(order) == 0 {
				continue
			}
			if s.allFuzzyKeys[ft] == nil {
				s.allFuzzyKeys[ft] = make(map[FuzzyKey]struct{})
			}

			fr := &fuzzyRoundsForType{}
			for _, key := range order {
				s.allFuzzyKeys[ft][key] = struct{}{}
				weights := pv.fuzzy[ft][key]
				totalKeys += len(weights)

				fr.round0 = append(fr.round0, &roundTuple{key: key, weight: weights[0], round: 0, penalty: 1})
				for r := 1; r < len(weights); r++ {
					fr.roundsGE1 = append(fr.roundsGE1, &roundTuple{
						key:     key,
						weight:  weights[r],
						round:   r,
						penalty: math.Pow(keyReusePenaltyFactor, float64(r)),
					})
				}
			}
			sv.fuzzy[ft] = fr
		}

		sv.totalKeys = totalKeys
	}

	return s
}

// commonFuzzyTypes returns the fuzzy key types present in both maps,
// ordered by type name. Iterating in a name-sorted order (rather than Go
// map order, which varies run to run) is this port's resolution for the
// source implementation's documented iteration-order nondeterminism.
func commonFuzzyTypes(a, b map[reflect.Type]map[FuzzyKey]struct{}) []reflect.Type {
	var out []reflect.Type
	for t := range a {
		if _, ok := b[t]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func commonValueFuzzyTypes(a, b map[reflect.Type]*fuzzyRoundsForType) []reflect.Type {
	var out []reflect.Type
	for t := range a {
		if _, ok := b[t]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// sortAnyKeys orders an exact-key intersection for deterministic summing.
// Keys of a common comparable kind sort naturally; anything else falls
// back to a string-formatted comparison so the order is still stable
// across runs, even though it won't match any meaningful key ordering.
func sortAnyKeys(keys []any) {
	if len(keys) < 2 {
		return
	}
	sort.SliceStable(keys, func(i, j int) bool { return lessAnyKey(keys[i], keys[j]) })
}

func lessAnyKey(a, b any) bool {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func sumSorted(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	var sum float64
	for _, x := range sorted {
		sum += x
	}
	return sum
}
