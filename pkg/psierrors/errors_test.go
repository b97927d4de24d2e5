package psierrors

import (
	"errors"
	"testing"
)

func TestParameterErrorUnwraps(t *testing.T) {
	err := &ParameterError{Detail: "seed count mismatch"}
	if !errors.Is(err, ErrParameterViolation) {
		t.Fatal("ParameterError does not unwrap to ErrParameterViolation")
	}
	if err.Error() == "" {
		t.Fatal("Error() returned an empty string")
	}
}

func TestHashingErrorUnwraps(t *testing.T) {
	underlying := errors.New("eviction chain exceeded")
	err := &HashingError{Algorithm: "cuckoo", Inserted: 3, Err: underlying}
	if !errors.Is(err, ErrHashingFailure) {
		t.Fatal("HashingError does not unwrap to ErrHashingFailure")
	}
}

func TestCryptoErrorUnwraps(t *testing.T) {
	underlying := errors.New("noise budget exhausted")
	err := &CryptoError{Stage: "decrypt", Err: underlying}
	if !errors.Is(err, ErrCryptoFailure) {
		t.Fatal("CryptoError does not unwrap to ErrCryptoFailure")
	}
}

func TestDistinctSentinelsAreNotEachOther(t *testing.T) {
	sentinels := []error{ErrParameterViolation, ErrHashingFailure, ErrCryptoFailure, ErrRandomSource}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %d unexpectedly matches sentinel %d", i, j)
			}
		}
	}
}
