package correlate

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Dataset holds one side of a correlation: a set of opaque values, each
// annotated with zero or more keys (exact, compared by equality, or
// fuzzy, compared by a FuzzyKey's Compare oracle) and a per-use weight.
// Values don't need to be hashable; when a value's dynamic type isn't
// comparable, Dataset falls back to a linear scan keyed by
// reflect.DeepEqual, same trade-off the source correlate library makes
// for arbitrary Python objects.
type Dataset struct {
	label         string
	defaultWeight float64

	values    []any
	hashIndex map[any]int

	perValue []*valueKeys

	// keyRounds maps a key (exact value or FuzzyKey) to its rounds, each
	// round a set of value indices that used that key on that round.
	// Round N+1's index set must always be a subset of round N's.
	keyRounds map[any][]map[int]struct{}

	rankings       []*float64
	lowestRanking  float64
	highestRanking float64
	rankingCount   int
}

type valueKeys struct {
	exact map[any][]float64

	fuzzyOrder map[reflect.Type][]FuzzyKey
	fuzzy      map[reflect.Type]map[FuzzyKey][]float64
}

func newValueKeys() *valueKeys {
	return &valueKeys{
		exact:      make(map[any][]float64),
		fuzzyOrder: make(map[reflect.Type][]FuzzyKey),
		fuzzy:      make(map[reflect.Type]map[FuzzyKey][]float64),
	}
}

// NewDataset creates an empty dataset. defaultWeight is used by Set and
// SetKeys calls that don't supply an explicit weight.
func NewDataset(label string, defaultWeight float64) *Dataset {
	return &Dataset{
		label:          label,
		defaultWeight:  defaultWeight,
		hashIndex:      make(map[any]int),
		keyRounds:      make(map[any][]map[int]struct{}),
		lowestRanking:  math.Inf(1),
		highestRanking: math.Inf(-1),
	}
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

func (d *Dataset) valueIndex(value any) int {
	if isComparable(value) {
		if idx, ok := d.hashIndex[value]; ok {
			return idx
		}
	} else {
		for i, v := range d.values {
			if reflect.DeepEqual(v, value) {
				return i
			}
		}
	}

	idx := len(d.values)
	d.values = append(d.values, value)
	d.perValue = append(d.perValue, newValueKeys())
	if isComparable(value) {
		d.hashIndex[value] = idx
	}
	return idx
}

// Set records that value can be found under key, with an optional weight
// (defaultWeight when omitted). Calling Set a second time with the same
// (key, value) pair records a second, independent round: the pair's
// weights are kept in non-ascending order, so round 0 carries the highest
// weight, and Correlate discounts round N by KeyReusePenaltyFactor (a
// factor of 1, the default, applies no discount).
func (d *Dataset) Set(key, value any, weight ...float64) error {
	w := d.defaultWeight
	if len(weight) > 0 {
		w = weight[0]
	}

	idx := d.valueIndex(value)
	pv := d.perValue[idx]

	var mapKey any
	var weights []float64

	if fk, ok := key.(FuzzyKey); ok {
		ft := fuzzyKeyType(fk)
		m, ok := pv.fuzzy[ft]
		if !ok {
			m = make(map[FuzzyKey][]float64)
			pv.fuzzy[ft] = m
		}
		if _, seen := m[fk]; !seen {
			pv.fuzzyOrder[ft] = append(pv.fuzzyOrder[ft], fk)
		}
		weights = append(m[fk], w)
		sort.Sort(sort.Reverse(sort.Float64Slice(weights)))
		m[fk] = weights
		mapKey = fk
	} else {
		if !isComparable(key) {
			return fmt.Errorf("%w: exact key %v (%T) is not comparable and does not implement FuzzyKey", ErrInvalidArgument, key, key)
		}
		weights = append(pv.exact[key], w)
		sort.Sort(sort.Reverse(sort.Float64Slice(weights)))
		pv.exact[key] = weights
		mapKey = key
	}

	round := len(weights) - 1
	rounds := d.keyRounds[mapKey]
	if round > len(rounds) {
		return fmt.Errorf("%w: round %d recorded before round %d for key %v", ErrInvariantViolation, round, round-1, key)
	}
	if round == len(rounds) {
		rounds = append(rounds, make(map[int]struct{}))
	}
	rounds[round][idx] = struct{}{}
	d.keyRounds[mapKey] = rounds

	return nil
}

// SetKeys is a convenience for mapping several keys onto the same value
// in one call.
func (d *Dataset) SetKeys(keys []any, value any, weight ...float64) error {
	for _, k := range keys {
		if err := d.Set(k, value, weight...); err != nil {
			return err
		}
	}
	return nil
}

// Value registers value (if not already present) and attaches an
// optional numeric ranking to it, used by Engine.Correlate's ranking
// bonus/factor. ranking must be nil, or an int/int64/float32/float64;
// any other type fails with ErrInvalidArgument.
func (d *Dataset) Value(value any, ranking any) error {
	idx := d.valueIndex(value)

	var r *float64
	switch v := ranking.(type) {
	case nil:
		r = nil
	case int:
		f := float64(v)
		r = &f
	case int64:
		f := float64(v)
		r = &f
	case float32:
		f := float64(v)
		r = &f
	case float64:
		f := v
		r = &f
	default:
		return fmt.Errorf("%w: ranking value %v (%T) is not numeric", ErrInvalidArgument, ranking, ranking)
	}

	for len(d.rankings) <= idx {
		d.rankings = append(d.rankings, nil)
	}
	d.rankings[idx] = r

	if r != nil {
		d.rankingCount++
		if *r < d.lowestRanking {
			d.lowestRanking = *r
		}
		if *r > d.highestRanking {
			d.highestRanking = *r
		}
	}

	return nil
}

func (d *Dataset) ranking(idx int) *float64 {
	if idx >= len(d.rankings) {
		return nil
	}
	return d.rankings[idx]
}

func (d *Dataset) rankingRange() float64 {
	if d.rankingCount == 0 {
		return 0
	}
	return d.highestRanking - d.lowestRanking
}

// validate checks the invariants Set is supposed to maintain: every
// recorded round references valid value indices, and round N+1's index
// set is a subset of round N's. It also requires every value to have at
// least one key, since an unkeyed value can never participate in a
// candidate pair and almost always indicates a caller bug.
func (d *Dataset) validate() error {
	used := make([]bool, len(d.values))

	for key, rounds := range d.keyRounds {
		var prev map[int]struct{}
		for _, round := range rounds {
			for idx := range round {
				if idx < 0 || idx >= len(d.values) {
					return fmt.Errorf("%w: key %v references out-of-range value index %d", ErrInvariantViolation, key, idx)
				}
				used[idx] = true
			}
			if prev != nil {
				for idx := range round {
					if _, ok := prev[idx]; !ok {
						return fmt.Errorf("%w: a later round for key %v is not a subset of its previous round", ErrInvariantViolation, key)
					}
				}
			}
			prev = round
		}
	}

	for idx, ok := range used {
		if !ok {
			return fmt.Errorf("%w: value %v at index %d in dataset %q has no key", ErrInvariantViolation, d.values[idx], idx, d.label)
		}
	}

	return nil
}
