package worker

import (
	"sync/atomic"
	"testing"

	"github.com/deploymenttheory/garlic/internal/arena"
)

func TestClampWorkers(t *testing.T) {
	cases := map[int]int{0: 4, 1: 1, 2: 2, 8: 8, 16: 16, 17: 16, 100: 16}
	for in, want := range cases {
		if got := ClampWorkers(in); got != want {
			t.Errorf("ClampWorkers(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestPoolSubmitJoinAccounting(t *testing.T) {
	p := New(4)
	p.Context().Quiet = true

	const n = 50
	var ran int64
	for i := 0; i < n; i++ {
		p.Submit(Task{Fn: func(a *arena.TaskPool) error {
			if a == nil {
				t.Error("task received a nil arena")
			}
			atomic.AddInt64(&ran, 1)
			return nil
		}})
	}
	p.Join()

	if ran != n {
		t.Fatalf("ran = %d, want %d", ran, n)
	}
	if p.Context().Added != n || p.Context().Done != n {
		t.Fatalf("added=%d done=%d, want both %d", p.Context().Added, p.Context().Done, n)
	}
}
