package goid

import (
	"sync"
	"testing"
)

func TestIDStableWithinGoroutine(t *testing.T) {
	a, b := ID(), ID()
	if a == 0 {
		t.Fatal("ID() = 0")
	}
	if a != b {
		t.Errorf("ID() changed within one goroutine: %d then %d", a, b)
	}
}

func TestIDDistinctAcrossGoroutines(t *testing.T) {
	const n = 8
	ids := make([]uint64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = ID()
		}(i)
	}
	wg.Wait()

	seen := map[uint64]bool{ID(): true}
	for _, id := range ids {
		if id == 0 || seen[id] {
			t.Fatalf("ids not distinct and non-zero: %v", ids)
		}
		seen[id] = true
	}
}
