package arena

import "sync"

// TaskPool is the scratch arena a worker owns for exactly one task
// (spec.md §5: "Arenas: strictly per-thread; freed before the worker
// returns to the pool"). The lifter and instruction decoder carve their
// transient buffers from TaskPool.Bytes; TaskPool is never shared
// across goroutines.
type TaskPool struct {
	Bytes *Arena
}

// taskPoolFreelist recycles TaskPool backing buffers across tasks so a
// long-running worker pool doesn't re-grow an Arena from scratch on
// every class. Acquire/Release are the only entry points — the pool
// itself stays unexported and ambient-free.
var taskPoolFreelist = sync.Pool{
	New: func() any { return &TaskPool{Bytes: New()} },
}

// Acquire hands the caller a clean per-task arena. Call Release when
// the task completes.
func Acquire() *TaskPool {
	return taskPoolFreelist.Get().(*TaskPool)
}

// Release resets the pool's arena and returns it to the freelist. The
// caller must not use p after calling Release.
func Release(p *TaskPool) {
	p.Bytes.Reset()
	taskPoolFreelist.Put(p)
}

// Shared is the process-wide arena for structures that outlive any
// single task: the DEX interned string-pool cache. The lifter must
// never allocate into Shared (spec.md §5).
type Shared struct {
	mu    sync.Mutex
	arena *Arena
}

var process = &Shared{arena: New()}

// ProcessWide returns the single process-wide Shared arena.
func ProcessWide() *Shared { return process }

// Bytes carves n bytes out of the shared arena under its mutex.
func (s *Shared) Bytes(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arena.Bytes(n)
}

// String copies b into the shared arena under its mutex and returns
// it as a string. Used for structures whose lifetime outlives any one
// task — the DEX interned string-pool cache in internal/dex is the
// canonical caller, per spec.md §3's "Interned pool" and §5's
// memory-discipline invariant.
func (s *Shared) String(b []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arena.String(b)
}
