package usecase

import "sync"

// runGuard is a per-case single-flight lock. The pipeline mutates exactly
// one case record per run; two interleaved runs against the same id would
// corrupt the log and status sequence, so the second caller is rejected
// instead of queued.
type runGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{active: make(map[string]struct{})}
}

func (g *runGuard) tryAcquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, running := g.active[id]; running {
		return false
	}
	g.active[id] = struct{}{}
	return true
}

func (g *runGuard) release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, id)
}
