package dphash

import "testing"

func TestBatchFingerprintOrderIndependent(t *testing.T) {
	a := []uint64{1, 2, 3, 4, 5}
	b := []uint64{5, 4, 3, 2, 1}
	if batchFingerprint(a) != batchFingerprint(b) {
		t.Error("batchFingerprint differs between reorderings of the same keys")
	}
}

func TestBatchFingerprintDistinguishesSets(t *testing.T) {
	a := []uint64{1, 2, 3}
	b := []uint64{1, 2, 4}
	if batchFingerprint(a) == batchFingerprint(b) {
		t.Error("batchFingerprint collided between distinct key sets")
	}
}

func TestTelemetryHookReceivesFullRebuildDone(t *testing.T) {
	var events []Event
	m, err := New[int, int](0, WithTelemetry(func(ev Event) {
		events = append(events, ev)
	}))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 4000; i++ {
		m.Insert(i, -i)
	}
	m.Rebuild()

	found := false
	for _, ev := range events {
		if ev.Kind == EventFullRebuildDone {
			found = true
			break
		}
	}
	if !found {
		t.Error("no EventFullRebuildDone reported after explicit Rebuild()")
	}
}
