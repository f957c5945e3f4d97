package correlate

import "sort"

// matchItem is the minimal shape the boiler needs: a score plus the two
// opaque identities on either side of the pairing. It's used both for
// top-level (dataset index, dataset index) matches and for the nested
// fuzzy-key-tuple boiler, where the identities are *roundTuple pointers.
type matchItem[A comparable, B comparable] struct {
	ValueA A
	ValueB B
	Score  float64
}

// boil reduces matches — which must already be sorted ascending by
// score — to a one-to-one pairing. With both reuse flags set it just
// reverses the input (highest score first), since every pairing is kept.
// Otherwise it greedily consumes from the highest score down, and for
// groups of exactly-tied items it separates "isolated" items (whose value
// appears in exactly one tied item on each side — no ambiguity, keep
// immediately) from "connected" items (shared values — ambiguous), and
// recursively tries each connected item as the winner, keeping whichever
// experiment yields the highest cumulative score. Ties among equally good
// experiments favor the one explored first. Results come back highest
// score first.
func boil[A comparable, B comparable](matches []matchItem[A, B], reuseA, reuseB bool) ([]matchItem[A, B], map[A]struct{}, map[B]struct{}) {
	return boilSeeded(matches, reuseA, reuseB, nil, nil)
}

func boilSeeded[A comparable, B comparable](matches []matchItem[A, B], reuseA, reuseB bool, seedA map[A]struct{}, seedB map[B]struct{}) ([]matchItem[A, B], map[A]struct{}, map[B]struct{}) {
	seenA := cloneSet(seedA)
	seenB := cloneSet(seedB)

	if reuseA && reuseB {
		results := make([]matchItem[A, B], len(matches))
		for i, m := range matches {
			results[len(matches)-1-i] = m
			seenA[m.ValueA] = struct{}{}
			seenB[m.ValueB] = struct{}{}
		}
		return results, seenA, seenB
	}

	remaining := append([]matchItem[A, B](nil), matches...)
	var results []matchItem[A, B]

	for len(remaining) > 0 {
		top := remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]

		if (!reuseA && inSet(seenA, top.ValueA)) || (!reuseB && inSet(seenB, top.ValueB)) {
			continue
		}

		topScore := top.Score
		tied := []matchItem[A, B]{top}
		for len(remaining) > 0 && remaining[len(remaining)-1].Score == topScore {
			next := remaining[len(remaining)-1]
			remaining = remaining[:len(remaining)-1]
			if (!reuseA && inSet(seenA, next.ValueA)) || (!reuseB && inSet(seenB, next.ValueB)) {
				continue
			}
			tied = append(tied, next)
		}

		if len(tied) == 1 {
			results = append(results, top)
			seenA[top.ValueA] = struct{}{}
			seenB[top.ValueB] = struct{}{}
			continue
		}

		// tied was assembled highest-popped-first (reverse of introduction
		// order); restore introduction order before partitioning so that
		// the later recursive enumeration order matches the source.
		for i, j := 0, len(tied)-1; i < j; i, j = i+1, j-1 {
			tied[i], tied[j] = tied[j], tied[i]
		}

		countA := make(map[A]int)
		countB := make(map[B]int)
		for _, m := range tied {
			countA[m.ValueA]++
			countB[m.ValueB]++
		}

		var connected []matchItem[A, B]
		for _, m := range tied {
			if countA[m.ValueA] == 1 && countB[m.ValueB] == 1 {
				results = append(results, m)
				seenA[m.ValueA] = struct{}{}
				seenB[m.ValueB] = struct{}{}
			} else {
				connected = append(connected, m)
			}
		}

		if len(connected) == 0 {
			continue
		}

		type experiment struct {
			score   float64
			item    matchItem[A, B]
			results []matchItem[A, B]
			seenA   map[A]struct{}
			seenB   map[B]struct{}
		}

		experiments := make([]experiment, 0, len(connected))
		for i := len(connected) - 1; i >= 0; i-- {
			item := connected[i]

			expMatches := make([]matchItem[A, B], 0, len(remaining)+len(connected)-1)
			expMatches = append(expMatches, remaining...)
			for j, c := range connected {
				if j == i {
					continue
				}
				if !reuseA && c.ValueA == item.ValueA {
					continue
				}
				if !reuseB && c.ValueB == item.ValueB {
					continue
				}
				expMatches = append(expMatches, c)
			}

			branchSeedA := cloneSet(seenA)
			branchSeedA[item.ValueA] = struct{}{}
			branchSeedB := cloneSet(seenB)
			branchSeedB[item.ValueB] = struct{}{}

			subResults, subSeenA, subSeenB := boilSeeded(expMatches, reuseA, reuseB, branchSeedA, branchSeedB)

			score := item.Score
			for _, r := range subResults {
				score += r.Score
			}
			experiments = append(experiments, experiment{score, item, subResults, subSeenA, subSeenB})
		}

		sort.SliceStable(experiments, func(i, j int) bool { return experiments[i].score > experiments[j].score })

		best := experiments[0]
		results = append(results, best.item)
		results = append(results, best.results...)
		return results, best.seenA, best.seenB
	}

	return results, seenA, seenB
}

func inSet[T comparable](set map[T]struct{}, v T) bool {
	_, ok := set[v]
	return ok
}

func cloneSet[T comparable](set map[T]struct{}) map[T]struct{} {
	out := make(map[T]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
