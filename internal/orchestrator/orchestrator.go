// Package orchestrator builds a reactor pool and a set of sessions from
// configuration, runs them to completion, and reports the first
// failure observed across all of them.
package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dantte-lp/net-tester/internal/reactor"
	"github.com/dantte-lp/net-tester/internal/session"
	"github.com/dantte-lp/net-tester/internal/transport"
)

// Orchestrator owns a reactor pool and every session built from a
// configuration list, assigning sessions to reactors round-robin.
type Orchestrator struct {
	pool      *reactor.Pool
	sessions  []*session.Session
	byReactor map[*reactor.Reactor][]*session.Session
	logger    *slog.Logger
}

// New builds an Orchestrator with a pool of reactorCount reactors
// (reactorCount<=0 defaults to 1 inside reactor.NewPool). pinCPUs
// requests CPU-affinity pinning per reactor.
func New(reactorCount int, pinCPUs bool, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		pool:      reactor.NewPool(reactorCount, pinCPUs, logger),
		byReactor: make(map[*reactor.Reactor][]*session.Session),
		logger:    logger,
	}
}

// AddSession builds a Session for cfg, wires the transport matching
// cfg.Protocol, and assigns it to the next reactor in round-robin
// order.
func (o *Orchestrator) AddSession(cfg session.Config) *session.Session {
	var t session.Transport
	if cfg.Protocol == session.UDP {
		t = transport.NewUDP(cfg)
	} else {
		t = transport.NewTCP(cfg)
	}

	r := o.pool.Next()
	s := session.New(cfg, t, r, o.logger)
	o.sessions = append(o.sessions, s)
	o.byReactor[r] = append(o.byReactor[r], s)
	return s
}

// Sessions returns every session the orchestrator built, in the order
// AddSession was called, for reporting.
func (o *Orchestrator) Sessions() []*session.Session {
	return o.sessions
}

// Run starts the reactor pool and every session, installs a
// process-wide signal handler that aborts every still-running session
// (SIGINT -> USER_INTERRUPT, SIGTERM -> PROGRAM_TERMINATION, any other
// registered signal -> UNKNOWN_SIGNAL), and blocks until every session
// has reached a terminal state. It returns the first non-empty failure
// observed, in session order, or nil if every session succeeded.
func (o *Orchestrator) Run(ctx context.Context) *session.Error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	poolDone := make(chan struct{})
	go func() {
		o.pool.Run(runCtx)
		close(poolDone)
	}()

	sigDone := make(chan struct{})
	go func() {
		defer close(sigDone)
		for {
			select {
			case <-runCtx.Done():
				return
			case sig := <-sigCh:
				o.logger.Info("received signal, aborting sessions", slog.String("signal", sig.String()))
				o.abortAll(signalKind(sig))
			}
		}
	}()

	for r, sessions := range o.byReactor {
		go o.watchReactor(runCtx, r, sessions)
	}

	for _, s := range o.sessions {
		s.Start(runCtx)
	}

	for _, s := range o.sessions {
		<-s.Done()
	}

	cancelRun()
	<-poolDone
	<-sigDone

	return o.firstFailure()
}

// watchReactor waits for r to stop. A reactor only stops before runCtx
// itself is cancelled when one of its sessions aborted and called
// Reactor.Stop, scoping that abort to every session sharing the
// reactor; in that case every co-located session still running has no
// goroutine left to drain its Post queue, so it force-aborts them
// directly rather than leaving them to hang forever on Done().
func (o *Orchestrator) watchReactor(runCtx context.Context, r *reactor.Reactor, sessions []*session.Session) {
	<-r.Done()
	if runCtx.Err() != nil {
		return
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		default:
			s.ForceAbort(session.NewError(session.TransportError, session.ErrReactorStopped))
		}
	}
}

func (o *Orchestrator) abortAll(kind session.ErrKind) {
	for _, s := range o.sessions {
		s.Abort(kind)
	}
}

func (o *Orchestrator) firstFailure() *session.Error {
	for _, s := range o.sessions {
		if f := s.FirstFailure(); f != nil {
			return f
		}
	}
	return nil
}

func signalKind(sig os.Signal) session.ErrKind {
	switch sig {
	case syscall.SIGINT:
		return session.UserInterrupt
	case syscall.SIGTERM:
		return session.ProgramTermination
	default:
		return session.UnknownSignal
	}
}
