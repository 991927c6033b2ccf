package dphash

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestUpgradableLockSharedReadersConcurrent(t *testing.T) {
	var l upgradableLock
	var inFlight atomic.Int32
	var maxSeen atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RLock()
			defer l.RUnlock()
			n := inFlight.Add(1)
			for {
				old := maxSeen.Load()
				if n <= old || maxSeen.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if maxSeen.Load() < 2 {
		t.Errorf("max concurrent RLock holders = %d, want >= 2 (readers should overlap)", maxSeen.Load())
	}
}

func TestUpgradableLockExclusiveExcludesReaders(t *testing.T) {
	var l upgradableLock
	var holder atomic.Bool

	l.Lock()
	done := make(chan struct{})
	go func() {
		l.RLock()
		holder.Store(true)
		l.RUnlock()
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	if holder.Load() {
		t.Fatal("RLock acquired while exclusive lock held")
	}
	l.Unlock()
	<-done
	if !holder.Load() {
		t.Fatal("RLock never acquired after exclusive lock released")
	}
}

func TestUpgradableLockURLockSerializesUpgraders(t *testing.T) {
	var l upgradableLock
	var active atomic.Int32
	var sawOverlap atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.URLock()
			if active.Add(1) > 1 {
				sawOverlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			l.URUnlock()
		}()
	}
	wg.Wait()

	if sawOverlap.Load() {
		t.Error("two goroutines held upgradeable-shared access simultaneously")
	}
}

func TestUpgradeThenDowngradeRoundTrips(t *testing.T) {
	var l upgradableLock
	l.URLock()
	l.Upgrade()
	l.Downgrade()
	l.URUnlock()
}
