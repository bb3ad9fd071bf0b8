package resilience

import (
	"sync"
	"testing"
)

func TestBudget_SpendUntilExhausted(t *testing.T) {
	b := NewBudget(2)

	if b.Exhausted() {
		t.Error("fresh budget should not be exhausted")
	}

	b.Spend()
	if b.Exhausted() {
		t.Error("budget with remaining headroom should not be exhausted")
	}

	b.Spend()
	if !b.Exhausted() {
		t.Error("budget at its ceiling should be exhausted")
	}
	if b.Used() != 2 {
		t.Errorf("expected 2 used, got %d", b.Used())
	}
}

func TestBudget_ZeroLimitRefusesEverything(t *testing.T) {
	b := NewBudget(0)
	if !b.Exhausted() {
		t.Error("zero-limit budget should refuse immediately")
	}
}

func TestBudget_ConcurrentSpend(t *testing.T) {
	b := NewBudget(1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Spend()
		}()
	}
	wg.Wait()

	if b.Used() != 50 {
		t.Errorf("expected 50 used after concurrent spends, got %d", b.Used())
	}
}
