package correlate

// Match pairs a value from dataset A with a value from dataset B under
// the score Engine.Correlate computed for that pairing.
type Match struct {
	ValueA any
	ValueB any
	Score  float64
}

// Result is the outcome of a Correlate call: Matches ordered highest
// score first, plus the values on either side that weren't paired.
type Result struct {
	Matches      []Match
	UnmatchedA   []any
	UnmatchedB   []any
	MinimumScore float64
}

// Normalize rescales every match's score into [0,1] in place. high
// defaults to the top match's score; low defaults to MinimumScore.
// Passing nil for either keeps that default.
func (r *Result) Normalize(high, low *float64) {
	if len(r.Matches) == 0 {
		return
	}

	h := r.Matches[0].Score
	if high != nil {
		h = *high
	}
	l := r.MinimumScore
	if low != nil {
		l = *low
	}

	delta := h - l
	for i := range r.Matches {
		r.Matches[i].Score = (r.Matches[i].Score - l) / delta
	}
}
