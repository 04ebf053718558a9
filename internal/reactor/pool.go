package reactor

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool owns a fixed set of Reactors and assigns sessions to them
// round-robin.
type Pool struct {
	reactors []*Reactor
	next     int
}

// NewPool builds a pool of n reactors (n<=0 is treated as 1). If
// pinCPUs is true, reactor i is pinned to CPU (i mod runtime.NumCPU());
// otherwise reactors run unpinned.
func NewPool(n int, pinCPUs bool, logger *slog.Logger) *Pool {
	if n <= 0 {
		n = 1
	}

	p := &Pool{reactors: make([]*Reactor, n)}
	numCPU := runtime.NumCPU()
	for i := range p.reactors {
		cpu := -1
		if pinCPUs {
			cpu = i % numCPU
		}
		p.reactors[i] = New(i, cpu, logger)
	}
	return p
}

// Size returns the number of reactors in the pool.
func (p *Pool) Size() int {
	return len(p.reactors)
}

// Next returns the next reactor in round-robin order, for assigning a
// newly built session.
func (p *Pool) Next() *Reactor {
	r := p.reactors[p.next%len(p.reactors)]
	p.next++
	return r
}

// Run starts every reactor's event loop and blocks until all of them
// have returned, either because ctx was cancelled or because a session
// on one of them aborted and called that reactor's Stop. A reactor stop
// is scoped to its own sessions, not the whole pool.
func (p *Pool) Run(ctx context.Context) {
	var g errgroup.Group
	for _, r := range p.reactors {
		r := r
		g.Go(func() error {
			r.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// StopAll requests every reactor in the pool to stop.
func (p *Pool) StopAll() {
	for _, r := range p.reactors {
		r.Stop()
	}
}
