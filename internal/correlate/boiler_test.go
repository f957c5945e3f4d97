package correlate

import "testing"

func sumScore(matches []matchItem[int, int]) float64 {
	var sum float64
	for _, m := range matches {
		sum += m.Score
	}
	return sum
}

func TestBoilNoConflictsKeepsEverything(t *testing.T) {
	items := []matchItem[int, int]{
		{ValueA: 0, ValueB: 0, Score: 1},
		{ValueA: 1, ValueB: 1, Score: 2},
		{ValueA: 2, ValueB: 2, Score: 3},
	}

	results, _, _ := boil(items, false, false)
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	if results[0].Score != 3 || results[2].Score != 1 {
		t.Fatalf("want highest-score-first, got %+v", results)
	}
}

func TestBoilGreedyPrefersHighestScoreOnConflict(t *testing.T) {
	// value_a=0 is contested between two matches of different scores;
	// the higher-scoring one should win and the loser's partner (1,1)
	// should still be picked up afterwards.
	items := []matchItem[int, int]{
		{ValueA: 0, ValueB: 1, Score: 1},
		{ValueA: 1, ValueB: 1, Score: 2},
		{ValueA: 0, ValueB: 0, Score: 3},
	}

	results, seenA, seenB := boil(items, false, false)

	foundWinner := false
	for _, m := range results {
		if m.ValueA == 0 && m.ValueB == 0 && m.Score == 3 {
			foundWinner = true
		}
		if m.ValueA == 0 && m.ValueB == 1 {
			t.Fatalf("lower-score conflicting match should have been dropped: %+v", m)
		}
	}
	if !foundWinner {
		t.Fatalf("expected the score-3 match to win, got %+v", results)
	}
	if !inSet(seenA, 0) || !inSet(seenB, 0) {
		t.Fatal("seenA/seenB should include the winning pairing")
	}
}

func TestBoilReuseBothSidesReturnsEverythingReversed(t *testing.T) {
	items := []matchItem[int, int]{
		{ValueA: 0, ValueB: 0, Score: 1},
		{ValueA: 0, ValueB: 1, Score: 2},
	}

	results, _, _ := boil(items, true, true)
	if len(results) != 2 || results[0].Score != 2 || results[1].Score != 1 {
		t.Fatalf("want highest-first with reuse, got %+v", results)
	}
}

func TestBoilTiedConnectedGroupMaximizesCumulativeScore(t *testing.T) {
	// Two ties over the same value_a: picking (0,0) leaves (1,1) free,
	// worth 1 extra. Picking (0,1) blocks (1,1) entirely. The maximizing
	// choice should be (0,0)+(1,1), total 2+1=3, beating (0,1) alone at 2.
	items := []matchItem[int, int]{
		{ValueA: 1, ValueB: 1, Score: 1},
		{ValueA: 0, ValueB: 0, Score: 2},
		{ValueA: 0, ValueB: 1, Score: 2},
	}

	results, _, _ := boil(items, false, false)
	if got := sumScore(results); got != 3 {
		t.Fatalf("want maximizing cumulative score 3, got %v from %+v", got, results)
	}
}

func TestBoilIsDeterministic(t *testing.T) {
	items := []matchItem[int, int]{
		{ValueA: 0, ValueB: 0, Score: 1},
		{ValueA: 0, ValueB: 1, Score: 1},
		{ValueA: 1, ValueB: 0, Score: 1},
		{ValueA: 1, ValueB: 1, Score: 1},
	}

	first, _, _ := boil(items, false, false)
	for i := 0; i < 20; i++ {
		again, _, _ := boil(items, false, false)
		if len(again) != len(first) {
			t.Fatalf("nondeterministic result length across runs")
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("nondeterministic result at index %d: %+v vs %+v", j, again[j], first[j])
			}
		}
	}
}
