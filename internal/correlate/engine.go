// Package correlate pairs values between two datasets by the keys they
// share, exact or fuzzy, picking the one-to-one pairing with the highest
// cumulative score. It generalizes the pairing core of the EHDC address
// matcher: the same four-pass scoring pipeline and match-boiler tie
// resolution that used to be specialized to UPRNs and postcodes, reworked
// to run over any two sets of opaque values and any mix of exact and
// fuzzy keys.
package correlate

import (
	"fmt"
	"math"
	"sort"

	"github.com/ehdc-llpg/correlate/internal/debug"
)

// RankingApproach selects which ranking channel(s) Correlate evaluates
// when both datasets carry numeric rankings.
type RankingApproach int

const (
	// BestRanking evaluates both the absolute and relative channels and
	// keeps whichever produced the higher cumulative score.
	BestRanking RankingApproach = iota
	AbsoluteRanking
	RelativeRanking
)

// CorrelateOptions configures one Engine.Correlate call. Start from
// DefaultCorrelateOptions and override only the fields that matter;
// a bare zero-value CorrelateOptions disables the ratio bonus and sets
// KeyReusePenaltyFactor to 0, which gives every round after the first a
// score of zero.
type CorrelateOptions struct {
	// MinimumScore discards matches at or below this score. Must be >= 0.
	MinimumScore float64

	// ScoreRatioBonus weights how much of a pair's possible exact-key
	// overlap was actually realized. 0 disables it; the source default is 1.
	ScoreRatioBonus float64

	// Ranking selects which ranking channel(s) to compute when both
	// datasets have ranked values.
	Ranking RankingApproach

	// RankingBonus and RankingFactor apply ranking proximity as either
	// an additive bonus or a multiplicative factor. At most one may be
	// nonzero.
	RankingBonus  float64
	RankingFactor float64

	// KeyReusePenaltyFactor discounts weight on the Nth use of a (key,
	// value) pair by this factor raised to N. Kept as a legacy knob per
	// the source implementation's own design note questioning whether it
	// pulls its weight; 1 disables the penalty entirely.
	KeyReusePenaltyFactor float64

	// ReuseA and ReuseB, when true, allow a value on that side to appear
	// in more than one match instead of being claimed by its best pairing.
	ReuseA bool
	ReuseB bool

	// Debug enables internal/debug tracing of pass boundaries and
	// candidate counts.
	Debug bool
}

// DefaultCorrelateOptions returns the option set the source correlate
// library uses when a caller doesn't override anything.
func DefaultCorrelateOptions() CorrelateOptions {
	return CorrelateOptions{
		ScoreRatioBonus:       1,
		Ranking:               BestRanking,
		KeyReusePenaltyFactor: 1,
	}
}

// Engine owns the two datasets being correlated and the fuzzy-similarity
// cache, which is kept for the Engine's lifetime and reused across
// Correlate calls.
type Engine struct {
	A *Dataset
	B *Dataset

	cache *fuzzyScoreCache
}

// NewEngine creates an engine with two empty datasets, both defaulting to
// weight defaultWeight when Set/SetKeys are called without an explicit one.
func NewEngine(defaultWeight float64) *Engine {
	return &Engine{
		A:     NewDataset("a", defaultWeight),
		B:     NewDataset("b", defaultWeight),
		cache: newFuzzyScoreCache(),
	}
}

type thirdPassEntry struct {
	indexA, indexB   int
	score            float64
	cumulativeActual float64
}

type secondPassEntry struct {
	indexA, indexB  int
	exactScores     []float64
	cumulativePoss  float64
	fuzzySemifinals []fuzzySemifinal
}

type fuzzySemifinal struct {
	fuzzyScore float64
	semiFinal  float64
	tupleA     *roundTuple
	tupleB     *roundTuple
}

// Correlate runs the four-pass scoring pipeline over Engine's two
// datasets and returns the highest-cumulative-score one-to-one pairing.
func (e *Engine) Correlate(opts CorrelateOptions) (*Result, error) {
	debug.DebugHeader(opts.Debug)
	defer debug.DebugFooter(opts.Debug)

	if opts.RankingFactor != 0 && opts.RankingBonus != 0 {
		return nil, fmt.Errorf("%w: ranking_factor and ranking_bonus are mutually exclusive", ErrInvalidArgument)
	}
	if opts.MinimumScore < 0 {
		return nil, fmt.Errorf("%w: minimum_score must be >= 0", ErrInvalidArgument)
	}

	if err := e.A.validate(); err != nil {
		return nil, err
	}
	if err := e.B.validate(); err != nil {
		return nil, err
	}

	sa := precomputeStreamlined(e.A, e.B, opts.KeyReusePenaltyFactor)
	sb := precomputeStreamlined(e.B, e.A, opts.KeyReusePenaltyFactor)

	pairs, err := candidatePairs(e.A, e.B, sa, sb, e.cache)
	if err != nil {
		return nil, err
	}
	debug.DebugOutput(opts.Debug, "candidate pairs: %d", len(pairs))

	fuzzyCumA := map[*roundTuple]float64{}
	fuzzyCumB := map[*roundTuple]float64{}

	third, second, err := e.firstPass(pairs, sa, sb, opts.KeyReusePenaltyFactor, fuzzyCumA, fuzzyCumB)
	if err != nil {
		return nil, err
	}
	debug.DebugOutput(opts.Debug, "pass 1: %d resolved without fuzzy keys, %d pending fuzzy finalization", len(third), len(second))

	finalized, err := e.secondPass(second, fuzzyCumA, fuzzyCumB)
	if err != nil {
		return nil, err
	}
	third = append(third, finalized...)
	debug.DebugOutput(opts.Debug, "pass 2 complete: %d total scored pairs", len(third))

	channels := e.thirdPass(third, sa, sb, opts)
	debug.DebugOutput(opts.Debug, "pass 3: %d channel(s)", len(channels))

	result, err := e.fourthPass(channels, opts)
	if err != nil {
		return nil, err
	}
	debug.DebugOutput(opts.Debug, "pass 4: %d matches, %d unmatched A, %d unmatched B", len(result.Matches), len(result.UnmatchedA), len(result.UnmatchedB))

	return result, nil
}

func candidatePairs(a, b *Dataset, sa, sb *streamlinedData, cache *fuzzyScoreCache) ([][2]int, error) {
	type pair struct{ ia, ib int }
	seen := map[pair]struct{}{}
	var pairs []pair

	add := func(ia, ib int) {
		p := pair{ia, ib}
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			pairs = append(pairs, p)
		}
	}

	for key := range sa.allExactKeys {
		if _, ok := sb.allExactKeys[key]; !ok {
			continue
		}
		roundsA := a.keyRounds[key]
		roundsB := b.keyRounds[key]
		if len(roundsA) == 0 || len(roundsB) == 0 {
			continue
		}
		for ia := range roundsA[0] {
			for ib := range roundsB[0] {
				add(ia, ib)
			}
		}
	}

	for _, ft := range commonFuzzyTypes(sa.allFuzzyKeys, sb.allFuzzyKeys) {
		for keyA := range sa.allFuzzyKeys[ft] {
			for keyB := range sb.allFuzzyKeys[ft] {
				score, err := cache.similarity(keyA, keyB)
				if err != nil {
					return nil, err
				}
				if score <= 0 {
					continue
				}
				roundsA := a.keyRounds[keyA]
				roundsB := b.keyRounds[keyB]
				if len(roundsA) == 0 || len(roundsB) == 0 {
					continue
				}
				for ia := range roundsA[0] {
					for ib := range roundsB[0] {
						add(ia, ib)
					}
				}
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].ia != pairs[j].ia {
			return pairs[i].ia < pairs[j].ia
		}
		return pairs[i].ib < pairs[j].ib
	})

	out := make([][2]int, len(pairs))
	for i, p := range pairs {
		out[i] = [2]int{p.ia, p.ib}
	}
	return out, nil
}

func (e *Engine) firstPass(pairs [][2]int, sa, sb *streamlinedData, keyReusePenaltyFactor float64, fuzzyCumA, fuzzyCumB map[*roundTuple]float64) ([]thirdPassEntry, []secondPassEntry, error) {
	var third []thirdPassEntry
	var second []secondPassEntry

	for _, p := range pairs {
		ia, ib := p[0], p[1]
		svA := sa.values[ia]
		svB := sb.values[ib]

		cumulativePossible := 0.0
		var exactScores []float64

		n := len(svA.exactRounds)
		if len(svB.exactRounds) < n {
			n = len(svB.exactRounds)
		}
		for r := 0; r < n; r++ {
			ra := svA.exactRounds[r]
			rb := svB.exactRounds[r]

			var common []any
			for k := range ra.keys {
				if _, ok := rb.keys[k]; ok {
					common = append(common, k)
				}
			}
			if len(common) == 0 {
				break
			}
			sortAnyKeys(common)

			roundFactor := math.Pow(keyReusePenaltyFactor, float64(r*2))
			cumulativePossible += float64(len(common)) * 2

			scoredAny := false
			for _, k := range common {
				wa := ra.weight[k]
				wb := rb.weight[k]
				score := (wa.weight * wb.weight * roundFactor) / float64(wa.count*wb.count)
				if score != 0 {
					scoredAny = true
					exactScores = append(exactScores, score)
				}
			}
			if !scoredAny {
				break
			}
		}

		var fuzzySemis []fuzzySemifinal
		for _, ft := range commonValueFuzzyTypes(svA.fuzzy, svB.fuzzy) {
			frA := svA.fuzzy[ft]
			frB := svB.fuzzy[ft]

			tuplesA := frA.allTuples()
			tuplesB := frB.allTuples()

			type candidate struct {
				ta, tb   *roundTuple
				score    float64
				minRound int
				maxRound int
			}
			var candidates []candidate
			for _, ta := range tuplesA {
				for _, tb := range tuplesB {
					s, err := e.cache.similarity(ta.key, tb.key)
					if err != nil {
						return nil, nil, err
					}
					if s <= 0 {
						continue
					}
					minR, maxR := ta.round, tb.round
					if minR > maxR {
						minR, maxR = maxR, minR
					}
					candidates = append(candidates, candidate{ta, tb, s, minR, maxR})
				}
			}

			sort.SliceStable(candidates, func(i, j int) bool {
				ci, cj := candidates[i], candidates[j]
				if ci.score != cj.score {
					return ci.score < cj.score
				}
				if ci.minRound != cj.minRound {
					return ci.minRound > cj.minRound
				}
				return ci.maxRound > cj.maxRound
			})

			items := make([]matchItem[*roundTuple, *roundTuple], len(candidates))
			for i, c := range candidates {
				items[i] = matchItem[*roundTuple, *roundTuple]{ValueA: c.ta, ValueB: c.tb, Score: c.score}
			}

			selected, _, _ := boil(items, false, false)
			for _, sel := range selected {
				s := sel.Score
				sCubed := s * s * s
				semiFinal := (sel.ValueA.weight * sel.ValueB.weight) * sCubed * (sel.ValueA.penalty * sel.ValueB.penalty)

				fuzzyCumA[sel.ValueA] += s
				fuzzyCumB[sel.ValueB] += s

				fuzzySemis = append(fuzzySemis, fuzzySemifinal{
					fuzzyScore: s,
					semiFinal:  semiFinal,
					tupleA:     sel.ValueA,
					tupleB:     sel.ValueB,
				})
			}
		}

		if len(fuzzySemis) == 0 {
			third = append(third, thirdPassEntry{
				indexA:           ia,
				indexB:           ib,
				score:            sumSorted(exactScores),
				cumulativeActual: cumulativePossible,
			})
			continue
		}

		second = append(second, secondPassEntry{
			indexA:          ia,
			indexB:          ib,
			exactScores:     exactScores,
			cumulativePoss:  cumulativePossible,
			fuzzySemifinals: fuzzySemis,
		})
	}

	return third, second, nil
}

func (e *Engine) secondPass(entries []secondPassEntry, fuzzyCumA, fuzzyCumB map[*roundTuple]float64) ([]thirdPassEntry, error) {
	out := make([]thirdPassEntry, 0, len(entries))

	for _, entry := range entries {
		scores := append([]float64(nil), entry.exactScores...)
		cumulative := entry.cumulativePoss

		for _, f := range entry.fuzzySemifinals {
			denomA := fuzzyCumA[f.tupleA]
			denomB := fuzzyCumB[f.tupleB]
			if denomA == 0 || denomB == 0 {
				return nil, fmt.Errorf("%w: fuzzy cumulative score missing for a selected key pair", ErrInvariantViolation)
			}
			finalScore := f.semiFinal / (denomA * denomB)
			scores = append(scores, finalScore)
			cumulative += 2 * f.fuzzyScore
		}

		out = append(out, thirdPassEntry{
			indexA:           entry.indexA,
			indexB:           entry.indexB,
			score:            sumSorted(scores),
			cumulativeActual: cumulative,
		})
	}

	return out, nil
}

type correlationChannel struct {
	name    string
	matches []matchItem[int, int]
}

func (c *correlationChannel) add(ia, ib int, score float64) {
	c.matches = append(c.matches, matchItem[int, int]{ValueA: ia, ValueB: ib, Score: score})
}

func (e *Engine) thirdPass(entries []thirdPassEntry, sa, sb *streamlinedData, opts CorrelateOptions) []*correlationChannel {
	usingRankings := (opts.RankingFactor != 0 || opts.RankingBonus != 0) && e.A.rankingCount > 1 && e.B.rankingCount > 1

	var absoluteCh, relativeCh, unifiedCh *correlationChannel
	var channels []*correlationChannel

	if usingRankings {
		if opts.Ranking == BestRanking || opts.Ranking == AbsoluteRanking {
			absoluteCh = &correlationChannel{name: "absolute"}
			channels = append(channels, absoluteCh)
		}
		if opts.Ranking == BestRanking || opts.Ranking == RelativeRanking {
			relativeCh = &correlationChannel{name: "relative"}
			channels = append(channels, relativeCh)
		}
	} else {
		unifiedCh = &correlationChannel{name: "unified"}
		channels = append(channels, unifiedCh)
	}

	rangeA := e.A.rankingRange()
	rangeB := e.B.rankingRange()
	widestRange := math.Max(rangeA, rangeB)
	oneMinusFactor := 1 - opts.RankingFactor

	for _, t := range entries {
		score := t.score
		if opts.ScoreRatioBonus != 0 {
			totalKeys := sa.values[t.indexA].totalKeys + sb.values[t.indexB].totalKeys
			if totalKeys > 0 {
				score += (opts.ScoreRatioBonus * t.cumulativeActual) / float64(totalKeys)
			}
		}

		if !usingRankings {
			unifiedCh.add(t.indexA, t.indexB, score)
			continue
		}

		absoluteScore, relativeScore := score, score
		rankA := e.A.ranking(t.indexA)
		rankB := e.B.ranking(t.indexB)

		switch {
		case rankA != nil && rankB != nil:
			relA := *rankA / rangeA
			relB := *rankB / rangeB
			relativeDistance := 1 - math.Abs(relA-relB)
			var absoluteDistance float64
			if widestRange != 0 {
				absoluteDistance = 1 - (math.Abs(*rankA-*rankB) / widestRange)
			}

			if opts.RankingFactor != 0 {
				absoluteScore *= oneMinusFactor + opts.RankingFactor*absoluteDistance
				relativeScore *= oneMinusFactor + opts.RankingFactor*relativeDistance
			} else if opts.RankingBonus != 0 {
				absoluteScore += opts.RankingBonus * absoluteDistance
				relativeScore += opts.RankingBonus * relativeDistance
			}
		case opts.RankingFactor != 0:
			absoluteScore *= oneMinusFactor
			relativeScore *= oneMinusFactor
		}

		if absoluteCh != nil {
			absoluteCh.add(t.indexA, t.indexB, absoluteScore)
		}
		if relativeCh != nil {
			relativeCh.add(t.indexA, t.indexB, relativeScore)
		}
	}

	return channels
}

type channelResult struct {
	cumulative float64
	matches    []matchItem[int, int]
	seenA      map[int]struct{}
	seenB      map[int]struct{}
	name       string
}

func (e *Engine) fourthPass(channels []*correlationChannel, opts CorrelateOptions) (*Result, error) {
	var results []channelResult

	for _, ch := range channels {
		sort.SliceStable(ch.matches, func(i, j int) bool { return ch.matches[i].Score < ch.matches[j].Score })

		boiled, seenA, seenB := boil(ch.matches, opts.ReuseA, opts.ReuseB)

		cumulative := 0.0
		cut := len(boiled)
		for i, m := range boiled {
			cumulative += m.Score
			if m.Score <= opts.MinimumScore {
				cut = i
				break
			}
		}
		if cut < len(boiled) {
			// Values whose only pairing was cut go back to the unmatched lists.
			boiled = boiled[:cut]
			seenA, seenB = map[int]struct{}{}, map[int]struct{}{}
			for _, m := range boiled {
				seenA[m.ValueA] = struct{}{}
				seenB[m.ValueB] = struct{}{}
			}
		}

		if len(boiled) > 0 {
			results = append(results, channelResult{cumulative, boiled, seenA, seenB, ch.name})
		}
	}

	if len(results) == 0 {
		return &Result{
			MinimumScore: opts.MinimumScore,
			UnmatchedA:   append([]any(nil), e.A.values...),
			UnmatchedB:   append([]any(nil), e.B.values...),
		}, nil
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].cumulative < results[j].cumulative })
	best := results[len(results)-1]

	matches := make([]Match, len(best.matches))
	for i, m := range best.matches {
		matches[i] = Match{ValueA: e.A.values[m.ValueA], ValueB: e.B.values[m.ValueB], Score: m.Score}
	}

	return &Result{
		Matches:      matches,
		UnmatchedA:   valuesNotIn(e.A.values, best.seenA),
		UnmatchedB:   valuesNotIn(e.B.values, best.seenB),
		MinimumScore: opts.MinimumScore,
	}, nil
}

func valuesNotIn(values []any, seen map[int]struct{}) []any {
	out := make([]any, 0, len(values))
	for i, v := range values {
		if _, ok := seen[i]; !ok {
			out = append(out, v)
		}
	}
	return out
}
