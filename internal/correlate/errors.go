package correlate

import "errors"

// ErrInvalidArgument marks a misuse of the public API: mutually exclusive
// options, a negative minimum score, a non-numeric ranking, or a fuzzy key
// Compare result outside [0,1].
var ErrInvalidArgument = errors.New("correlate: invalid argument")

// ErrInvariantViolation marks a failed Dataset consistency check: a round
// that is not a subset of the previous one, an out-of-range value index,
// or a value that was registered (for example through Dataset.Value) but
// never given a key.
var ErrInvariantViolation = errors.New("correlate: invariant violation")
