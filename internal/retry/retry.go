// Package retry supplements the bounded-attempt retry behavior the
// original SEAL-based implementation left to a hard assert (see
// SPEC_FULL.md §11.1). Hashing failures (spec §4.2, §7) are expected to be
// retried by the caller with fresh seeds; this is a small, optional helper
// for doing that without hand-rolling the loop.
package retry

import "fmt"

// Run calls fn up to attempts times, returning as soon as it succeeds. If
// every attempt fails, it returns the last error, wrapped with the number
// of attempts made.
func Run(attempts int, fn func(attempt int) error) error {
	if attempts <= 0 {
		return fmt.Errorf("retry: attempts must be positive, got %d", attempts)
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := fn(attempt); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("retry: giving up after %d attempts: %w", attempts, lastErr)
}
