package systems

import "testing"

func TestWorkerPoolCoversRange(t *testing.T) {
	p := NewWorkerPool(4, 1)
	defer p.Stop()

	for _, n := range []int{1, 3, 64, 1000, 1001} {
		hits := make([]int32, n)
		p.Run(n, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestWorkerPoolBelowThresholdRunsInline(t *testing.T) {
	p := NewWorkerPool(4, 100)
	defer p.Stop()

	calls := 0
	p.Run(50, func(start, end int) {
		calls++
		if start != 0 || end != 50 {
			t.Errorf("expected a single [0, 50) chunk, got [%d, %d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected one inline call, got %d", calls)
	}
	if p.running {
		t.Error("expected workers not to start below threshold")
	}
}

func TestWorkerPoolRestartAfterStop(t *testing.T) {
	p := NewWorkerPool(2, 1)

	sum := make([]int, 10)
	p.Run(10, func(start, end int) {
		for i := start; i < end; i++ {
			sum[i] = i
		}
	})
	p.Stop()
	p.Stop() // idempotent

	p.Run(10, func(start, end int) {
		for i := start; i < end; i++ {
			sum[i] += i
		}
	})
	p.Stop()

	for i, v := range sum {
		if v != 2*i {
			t.Errorf("index %d: expected %d, got %d", i, 2*i, v)
		}
	}
}
