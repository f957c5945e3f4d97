// Package keys provides the concrete key types fed into
// internal/correlate: plain exact keys for identifiers that must match
// verbatim, and fuzzy keys whose similarity comes from the address
// scoring heuristics the EHDC matcher used to hand-roll directly inside
// its candidate generator.
package keys

import (
	"strings"

	"github.com/ehdc-llpg/correlate/internal/correlate"
	"github.com/ehdc-llpg/correlate/internal/phonetics"
	"github.com/ehdc-llpg/correlate/internal/symspell"
)

// Postcode, UPRN and USRN are exact keys: ordinary strings, matched by
// equality. They're named types so a correlate.Dataset.Set call reads as
// d.Set(keys.Postcode("GU35 9ET"), value) instead of a bare string.
type Postcode string
type UPRN string
type USRN string

// StreetKey is a fuzzy key over a street name, scored by a 0.6/0.4 blend
// of trigram-approximate similarity and street token overlap.
type StreetKey struct {
	Canonical string
	Tokens    []string
}

// NewStreetKey builds a StreetKey from a street name that's already been
// run through normalize.TokenizeStreet/CanonicalAddress.
func NewStreetKey(canonical string, tokens []string) *StreetKey {
	return &StreetKey{Canonical: canonical, Tokens: tokens}
}

var _ correlate.FuzzyKey = (*StreetKey)(nil)

// Compare blends trigram-approximate similarity with token overlap, the
// same two signals FeatureComputer.ComputeFeatures combined into
// trigram_similarity and street_overlap_ratio for address scoring.
func (k *StreetKey) Compare(other correlate.FuzzyKey) (float64, bool) {
	o, ok := other.(*StreetKey)
	if !ok {
		return 0, false
	}

	trigram := trigramSimilarity(k.Canonical, o.Canonical)
	overlap := tokenOverlap(k.Tokens, o.Tokens)

	return 0.6*trigram + 0.4*overlap, true
}

// LocalityKey is a fuzzy key over a locality/town token, scored by
// phonetic equivalence (internal/phonetics, the matcher's simplified
// Double Metaphone) and symspell correction distance — two tokens that
// phoneticize the same and sit within the configured edit distance of
// each other are treated as likely the same locality even when spelled
// differently.
type LocalityKey struct {
	Token     string
	corrector *symspell.Corrector
}

// NewLocalityKey builds a LocalityKey. corrector may be nil, in which
// case similarity falls back to phonetic matching alone.
func NewLocalityKey(token string, corrector *symspell.Corrector) *LocalityKey {
	return &LocalityKey{Token: strings.ToUpper(strings.TrimSpace(token)), corrector: corrector}
}

var _ correlate.FuzzyKey = (*LocalityKey)(nil)

func (k *LocalityKey) Compare(other correlate.FuzzyKey) (float64, bool) {
	o, ok := other.(*LocalityKey)
	if !ok {
		return 0, false
	}

	if k.Token == o.Token {
		return 1, true
	}

	ph := phonetics.NewSimplePhonetics()
	phoneticMatch := ph.Match(k.Token, o.Token)

	distance := -1
	if k.corrector != nil {
		if r := k.corrector.CorrectToken(o.Token); r.WasCorrected && strings.EqualFold(r.Corrected, k.Token) {
			distance = r.Distance
		}
	}

	switch {
	case phoneticMatch && distance >= 0:
		return 0.9, true
	case phoneticMatch:
		return 0.7, true
	case distance == 1:
		return 0.6, true
	case distance == 2:
		return 0.4, true
	default:
		return 0, true
	}
}

func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}

	overlap := 0
	for _, t := range b {
		if set[t] {
			overlap++
		}
	}

	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	return float64(overlap) / float64(minLen)
}

// trigramSimilarity approximates PostgreSQL pg_trgm-style trigram
// similarity: the fraction of shared 3-grams between two strings. This is
// the same approximation FeatureComputer.trigramSimilarity documents
// wanting to eventually back with the real pg_trgm extension.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 3 || len(b) < 3 {
		if a == "" || b == "" {
			return 0
		}
		if a == b {
			return 1
		}
		return 0
	}

	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for g := range ta {
		if tb[g] {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]bool {
	out := make(map[string]bool)
	padded := "  " + s + "  "
	for i := 0; i+3 <= len(padded); i++ {
		out[padded[i:i+3]] = true
	}
	return out
}
