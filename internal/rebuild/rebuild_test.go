package rebuild

import (
	"errors"
	"testing"
)

func TestSampleReturnsFirstOK(t *testing.T) {
	calls := 0
	draw := func() (int, error) {
		calls++
		return calls, nil
	}
	ok := func(candidate int) bool { return candidate == 3 }

	retries := 0
	got, err := Sample(draw, ok, func(attempt int) { retries++ })
	if err != nil {
		t.Fatalf("Sample error: %v", err)
	}
	if got != 3 {
		t.Errorf("Sample() = %d, want 3", got)
	}
	if calls != 3 {
		t.Errorf("draw called %d times, want 3", calls)
	}
	if retries != 2 {
		t.Errorf("onAttempt called %d times, want 2", retries)
	}
}

var errBoom = errors.New("boom")

func TestSamplePropagatesDrawError(t *testing.T) {
	calls := 0
	draw := func() (int, error) {
		calls++
		if calls == 2 {
			return 0, errBoom
		}
		return calls, nil
	}
	ok := func(int) bool { return false }

	_, err := Sample(draw, ok, nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Sample() error = %v, want errBoom", err)
	}
	if calls != 2 {
		t.Errorf("draw called %d times, want 2 (stop at first error)", calls)
	}
}

func TestSampleNilOnAttemptIsOptional(t *testing.T) {
	calls := 0
	draw := func() (int, error) {
		calls++
		return calls, nil
	}
	ok := func(candidate int) bool { return candidate == 5 }

	if _, err := Sample(draw, ok, nil); err != nil {
		t.Fatalf("Sample error: %v", err)
	}
	if calls != 5 {
		t.Errorf("draw called %d times, want 5", calls)
	}
}
