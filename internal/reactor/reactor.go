// Package reactor implements the single-goroutine task queue a session
// runs on: one goroutine drains a task queue, and every Session posted
// to it has its state mutated only from that goroutine, so the session
// core never needs a lock.
package reactor

import (
	"context"
	"log/slog"
	"runtime"
)

// Reactor is a single-goroutine task queue.
type Reactor struct {
	id     int
	cpu    int // -1 means unpinned
	logger *slog.Logger

	tasks chan func()
	stop  chan struct{}
	done  chan struct{}
}

// New builds a Reactor. cpu selects a CPU core to pin the reactor's
// goroutine to via SchedSetaffinity; pass -1 to leave it unpinned.
func New(id, cpu int, logger *slog.Logger) *Reactor {
	return &Reactor{
		id:     id,
		cpu:    cpu,
		logger: logger.With(slog.Int("reactor", id)),
		tasks:  make(chan func(), 1024),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Post serializes f onto the reactor's goroutine. Safe to call from any
// goroutine. f is silently dropped if the reactor has already stopped.
func (r *Reactor) Post(f func()) {
	select {
	case r.tasks <- f:
	case <-r.stop:
	}
}

// Stop requests Run to return. It does not block the caller on that
// return: an aborting session needs its reactor-mates cancelled
// promptly, not after they finish their own slices. Run itself does run
// whatever is already queued before it returns, see drainTasks.
func (r *Reactor) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// Done reports when Run has returned.
func (r *Reactor) Done() <-chan struct{} {
	return r.done
}

// Run drains the task queue until ctx is cancelled or Stop is called.
// It blocks the calling goroutine; callers typically run it via an
// errgroup (see Pool.Run).
func (r *Reactor) Run(ctx context.Context) {
	defer close(r.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if r.cpu >= 0 {
		if err := pinCPU(r.cpu); err != nil {
			r.logger.Warn("cpu affinity unavailable",
				slog.Int("cpu", r.cpu), slog.String("error", err.Error()))
		}
	}

	r.logger.Debug("reactor started")
	defer r.logger.Debug("reactor stopped")

	for {
		select {
		case f := <-r.tasks:
			f()
		case <-r.stop:
			r.drainTasks()
			return
		case <-ctx.Done():
			return
		}
	}
}

// drainTasks runs every task already sitting in the queue at the moment
// Stop took effect. Two sessions sharing a reactor can both have an
// abort posted to them around the same time (e.g. a shared signal): the
// first to run closes r.stop, and without this the second's
// already-queued closure would race against that close in Run's select
// and could be dropped instead of executing.
func (r *Reactor) drainTasks() {
	for {
		select {
		case f := <-r.tasks:
			f()
		default:
			return
		}
	}
}
