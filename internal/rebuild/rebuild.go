// Package rebuild implements the rejection-sampling engine shared by the
// perfect subtable and the top-level table: draw a fresh hash function
// from a Family until a caller-supplied predicate holds.
//
// Both layers need this same retry-with-a-new-seed loop for their own
// predicate, so it lives here once instead of being duplicated per layer.
package rebuild

// Sample draws candidates with draw and returns the first one for which ok
// reports true. onAttempt, if non-null, is called once per rejected
// candidate (retry count starts at 1) so callers can surface retry
// telemetry without rebuild ever imposing a hard retry cap: termination is
// probabilistic (each draw succeeds with probability >= 1/2 under
// universal-hashing assumptions), not bounded, so Sample never gives up.
//
// An error from draw is treated as a hard precondition failure (e.g. the
// hash family's OutOfRange), not a rejected candidate, and is returned
// immediately without being retried.
func Sample[T any](draw func() (T, error), ok func(T) bool, onAttempt func(attempt int)) (T, error) {
	for attempt := 1; ; attempt++ {
		candidate, err := draw()
		if err != nil {
			var zero T
			return zero, err
		}
		if ok(candidate) {
			return candidate, nil
		}
		if onAttempt != nil {
			onAttempt(attempt)
		}
	}
}
