// Package worker implements the task dispatcher of spec.md §4.7: a
// fixed-size pool that accepts class-level decompile/smali jobs,
// tracks "added" and "done" counts, and joins before release.
//
// Grounded on original_source/src/apk/apk.c's apk_status/
// apk_decompile_task_start pthread pool, restructured onto
// sourcegraph/conc/pool.Pool per spec.md §9's note to avoid an ambient
// mutable "current pool" pointer: each task gets its own arena.TaskPool
// handed to it as a plain argument, not thread-local storage.
package worker

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/deploymenttheory/garlic/internal/arena"
)

// ClampWorkers applies spec.md §4.7's worker-count clamp: 0 becomes 4,
// anything below 2 becomes 1, anything above 16 becomes 16.
func ClampWorkers(w int) int {
	switch {
	case w == 0:
		return 4
	case w < 2:
		return 1
	case w > 16:
		return 16
	default:
		return w
	}
}

// Task is one enqueued unit of work: a class-level decompile or smali
// job. Fn receives a fresh per-task arena, released automatically when
// Fn returns (mirroring apk_decompile_thread_task's
// mem_create_pool/mem_pool_free bracket).
type Task struct {
	Fn func(p *arena.TaskPool) error
}

// Context is the shared counters and progress line every task
// touches, equivalent to spec.md §4's ApkContext: atomic added/done
// counters and a progress-print mutex.
type Context struct {
	Added int64 // atomic
	Done  int64 // atomic

	progressMu sync.Mutex
	Quiet      bool // suppress the repainted progress line (used by tests)
}

// Pool is a fixed-size worker pool over conc's goroutine pool, plus
// the ApkContext bookkeeping tasks report into as they complete.
type Pool struct {
	conc *pool.Pool
	ctx  *Context
}

// New creates a pool clamped to ClampWorkers(workers) goroutines.
func New(workers int) *Pool {
	n := ClampWorkers(workers)
	return &Pool{
		conc: pool.New().WithMaxGoroutines(n),
		ctx:  &Context{},
	}
}

// Context returns the pool's shared added/done counters.
func (p *Pool) Context() *Context { return p.ctx }

// Submit enqueues t. It blocks while every worker is busy: conc's Go
// waits for a free goroutine slot before it returns. Every task, on exit, increments Done
// and repaints the progress line exactly once — success or failure.
func (p *Pool) Submit(t Task) {
	atomic.AddInt64(&p.ctx.Added, 1)
	p.conc.Go(func() {
		a := arena.Acquire()
		defer arena.Release(a)
		_ = t.Fn(a) // errors are the caller's responsibility to log inside Fn
		p.ctx.recordDone()
	})
}

// Join blocks until every submitted task has completed, per spec.md
// §4.7's enqueue/join pair.
func (p *Pool) Join() {
	p.conc.Wait()
}

// recordDone increments Done and repaints the single progress line
// using backspace characters, matching apk_status's
// pthread_mutex_lock/printf("Progress : %d (%d)")/unlock bracket
// exactly.
func (c *Context) recordDone() {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	done := atomic.AddInt64(&c.Done, 1)
	added := atomic.LoadInt64(&c.Added)
	if c.Quiet {
		return
	}
	fmt.Print(backspaces(30))
	fmt.Printf("Progress : %d (%d)", done, added)
}

func backspaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '\b'
	}
	return string(b)
}
