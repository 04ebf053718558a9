// Package session implements the per-session state machine: two
// independent half-duplex TX/RX loops gated by a bandwidth throttle,
// payload verification, a test-duration deadline, and first-failure-wins
// termination.
//
// A Session never locks: every method that mutates its state is only
// ever invoked from the single goroutine of the Reactor it is posted to
// (see the Poster interface below) — all of a session's state is
// touched only by its owning reactor.
package session

import (
	"context"
	crand "crypto/rand"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dantte-lp/net-tester/internal/pattern"
	"github.com/dantte-lp/net-tester/internal/throttle"
)

// Transport is the capability set the Session core depends on. TCP and
// UDP each implement it; the core never sees transport specifics beyond
// this interface.
type Transport interface {
	// Open performs connect/listen-accept or bind, blocking until ready.
	Open(ctx context.Context) error
	// Send submits up to len(buf) bytes, returning the number written.
	Send(ctx context.Context, buf []byte) (int, error)
	// Receive reads up to len(buf) bytes, returning the number read.
	Receive(ctx context.Context, buf []byte) (int, error)
	// FinishSend applies the transport's send-completion tail (e.g. TCP's
	// shutdown policy). It is invoked exactly once per session, even for
	// a skipped TX half.
	FinishSend(ctx context.Context) error
	// FinishReceive applies the transport's receive-completion tail
	// (e.g. TCP's EOF probe). A nil return means the RX half is
	// definitively complete; a non-nil *Error aborts the session. It is
	// invoked exactly once per session, even for a skipped RX half.
	FinishReceive(ctx context.Context) error
	// Close tears down the underlying socket. Safe to call once.
	Close() error
}

// Poster is the capability a Reactor offers to a Session: serialize a
// closure onto the reactor's single goroutine, and stop the reactor
// (cancelling every session it owns) on an unrecoverable failure.
type Poster interface {
	Post(f func())
	Stop()
}

// Session is the per-session state machine.
type Session struct {
	cfg       Config
	transport Transport
	poster    Poster
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	sendBuf []byte
	recvBuf []byte

	sendThrottle *throttle.Throttle
	recvThrottle *throttle.Throttle

	verifier *pattern.Verifier
	rng      *rand.Rand

	stats Stats

	firstFailure *Error

	sendFinishStarted bool
	recvFinishStarted bool

	done chan struct{}
}

// New builds a Session bound to transport and ready to Start on a
// Reactor via poster.
func New(cfg Config, transport Transport, poster Poster, logger *slog.Logger) *Session {
	return &Session{
		cfg:       cfg,
		transport: transport,
		poster:    poster,
		logger:    logger,
		sendBuf:   make([]byte, BufferSize),
		recvBuf:   make([]byte, BufferSize),
		done:      make(chan struct{}),
	}
}

// Done returns a channel closed once the session has reached a terminal
// state (success or failure).
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stats returns a snapshot of the session's runtime counters. Safe to
// call after Done() has fired.
func (s *Session) Stats() Stats {
	return s.stats
}

// FirstFailure returns the latched first failure, or nil on success.
func (s *Session) FirstFailure() *Error {
	return s.firstFailure
}

// Start opens the transport and, once ready, begins the TX and RX
// loops and the test-duration deadline timer. ctx is the parent
// (orchestrator-wide) context; the session derives its own cancellable
// child from it.
func (s *Session) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		err := s.transport.Open(s.ctx)
		s.post(func() {
			if err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.abort(NewError(TransportError, err))
				return
			}
			s.onOpen()
		})
	}()
}

func (s *Session) post(f func()) {
	s.poster.Post(f)
}

func (s *Session) onOpen() {
	s.stats.StartTime = time.Now()
	pattern.Fill(s.sendBuf)
	s.verifier = pattern.NewVerifier(s.cfg.Verify)

	if s.cfg.Protocol == UDP {
		s.rng = rand.New(rand.NewPCG(randSeed(), randSeed()))
	}

	if s.cfg.Direction != RXOnly {
		th, err := throttle.New(s.cfg.SendBandwidth, s.cfg.SamplingFreqHz)
		if err != nil {
			s.abort(NewError(TransportError, err))
			return
		}
		s.sendThrottle = th
	}
	if s.cfg.Direction != TXOnly {
		th, err := throttle.New(s.cfg.ReceiveBandwidth, s.cfg.SamplingFreqHz)
		if err != nil {
			s.abort(NewError(TransportError, err))
			return
		}
		s.recvThrottle = th
	}

	_, budget := s.cfg.EstimatedDuration()
	s.startDeadline(budget)

	if s.cfg.Direction == RXOnly {
		s.finishSend()
	} else {
		s.sendThrottle.Reset()
		s.requestSendSlice()
	}

	if s.cfg.Direction == TXOnly {
		s.finishReceive()
	} else {
		s.recvThrottle.Reset()
		s.requestReceiveSlice()
	}
}

func (s *Session) startDeadline(budget time.Duration) {
	ctx := s.ctx
	go func() {
		timer := time.NewTimer(budget)
		defer timer.Stop()

		select {
		case <-timer.C:
			s.post(func() {
				if ctx.Err() != nil {
					return
				}
				s.abort(NewError(TestTimeout, nil))
			})
		case <-ctx.Done():
		}
	}()
}

// -------------------------------------------------------------------
// TX loop
// -------------------------------------------------------------------

func (s *Session) requestSendSlice() {
	ctx := s.ctx
	go func() {
		quota, ok := s.sendThrottle.Wait(ctx.Done())
		s.post(func() {
			if !ok || ctx.Err() != nil {
				return
			}
			s.onSendSlice(quota)
		})
	}()
}

func (s *Session) onSendSlice(sliceRemaining uint64) {
	remaining := s.cfg.Size - s.stats.BytesSent
	if sliceRemaining > remaining {
		sliceRemaining = remaining
	}

	offset := s.stats.BytesSent % BufferSize
	n := sliceRemaining
	if maxChunk := uint64(BufferSize) - offset; n > maxChunk {
		n = maxChunk
	}

	if s.cfg.Protocol == UDP {
		if datagram := s.sampleDatagramSize(); datagram < n {
			n = datagram
		}
	}

	if n == 0 {
		// The slice quota was fully absorbed by the datagram-size cap
		// (or there is nothing left to send); ask for the next slice.
		s.requestSendSlice()
		return
	}

	buf := s.sendBuf[offset : offset+n]
	s.submitSend(buf, sliceRemaining)
}

func (s *Session) submitSend(buf []byte, sliceRemaining uint64) {
	ctx := s.ctx
	go func() {
		n, err := s.transport.Send(ctx, buf)
		s.post(func() {
			if ctx.Err() != nil {
				return
			}
			s.onSendComplete(n, err, sliceRemaining)
		})
	}()
}

func (s *Session) onSendComplete(n int, err error, sliceRemaining uint64) {
	if err != nil {
		s.abort(NewError(TransportError, err))
		return
	}

	s.stats.BytesSent += uint64(n)
	remaining := sliceRemaining - uint64(n)

	if s.stats.BytesSent < s.cfg.Size {
		if remaining == 0 {
			s.requestSendSlice()
		} else {
			s.onSendSlice(remaining)
		}
		return
	}

	s.finishSend()
}

func (s *Session) finishSend() {
	if s.sendFinishStarted {
		return
	}
	s.sendFinishStarted = true

	s.stats.SendDuration = time.Since(s.stats.StartTime)

	ctx := s.ctx
	go func() {
		err := s.transport.FinishSend(ctx)
		s.post(func() {
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				s.abort(NewError(TransportError, err))
				return
			}
			s.stats.IsSendComplete = true
			if s.stats.IsReceiveComplete {
				s.onFinish()
			}
		})
	}()
}

// -------------------------------------------------------------------
// RX loop
// -------------------------------------------------------------------

func (s *Session) requestReceiveSlice() {
	ctx := s.ctx
	go func() {
		quota, ok := s.recvThrottle.Wait(ctx.Done())
		s.post(func() {
			if !ok || ctx.Err() != nil {
				return
			}
			s.onReceiveSlice(quota)
		})
	}()
}

func (s *Session) onReceiveSlice(sliceRemaining uint64) {
	if sliceRemaining == 0 {
		s.requestReceiveSlice()
		return
	}

	n := sliceRemaining
	if n > uint64(len(s.recvBuf)) {
		n = uint64(len(s.recvBuf))
	}

	s.submitReceive(s.recvBuf[:n], sliceRemaining)
}

func (s *Session) submitReceive(buf []byte, sliceRemaining uint64) {
	ctx := s.ctx
	go func() {
		n, err := s.transport.Receive(ctx, buf)
		data := append([]byte(nil), buf[:n]...)
		s.post(func() {
			if ctx.Err() != nil {
				return
			}
			s.onReceiveComplete(data, err, sliceRemaining)
		})
	}()
}

func (s *Session) onReceiveComplete(data []byte, err error, sliceRemaining uint64) {
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.abort(NewError(UnexpectedEOF, nil))
		} else {
			s.abort(NewError(TransportError, err))
		}
		return
	}

	if verr := s.verifier.Check(data, len(data)); verr != nil {
		s.logger.Error("checksum mismatch",
			slog.String("error", verr.Error()))
		s.abort(NewError(ChecksumFailed, verr))
		return
	}

	s.stats.BytesReceived += uint64(len(data))
	remaining := sliceRemaining - uint64(len(data))

	if s.stats.BytesReceived < s.cfg.Size {
		if remaining == 0 {
			s.requestReceiveSlice()
		} else {
			s.onReceiveSlice(remaining)
		}
		return
	}

	s.finishReceive()
}

func (s *Session) finishReceive() {
	if s.recvFinishStarted {
		return
	}
	s.recvFinishStarted = true

	s.stats.ReceiveDuration = time.Since(s.stats.StartTime)

	ctx := s.ctx
	go func() {
		err := s.transport.FinishReceive(ctx)
		s.post(func() {
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				var se *Error
				if errors.As(err, &se) {
					s.abort(se)
				} else {
					s.abort(NewError(TransportError, err))
				}
				return
			}
			s.stats.IsReceiveComplete = true
			if s.stats.IsSendComplete {
				s.onFinish()
			}
		})
	}()
}

// -------------------------------------------------------------------
// Completion / abort
// -------------------------------------------------------------------

func (s *Session) onFinish() {
	s.stats.TotalDuration = time.Since(s.stats.StartTime)
	s.cancel()
	if err := s.transport.Close(); err != nil {
		s.logger.Debug("close after finish", slog.String("error", err.Error()))
	}
	s.signalDone()
}

// abort latches the first failure (subsequent calls are no-ops per the
// first-failure rule), cancels this session's pending operations,
// closes its transport, and stops the whole reactor so that
// cancellation propagates to every session sharing it.
func (s *Session) abort(err *Error) {
	if s.firstFailure != nil {
		return
	}
	s.firstFailure = err
	s.stats.TotalDuration = time.Since(s.stats.StartTime)

	s.cancel()
	if cerr := s.transport.Close(); cerr != nil {
		s.logger.Debug("close on abort", slog.String("error", cerr.Error()))
	}
	s.poster.Stop()
	s.signalDone()
}

// Abort posts an abort of the given kind onto the session's owning
// reactor. It is the orchestrator's entry point for propagating a
// process-wide signal into a running session; it is a no-op if the
// session hasn't started or has already reached a terminal state.
func (s *Session) Abort(kind ErrKind) {
	s.poster.Post(func() {
		if s.ctx == nil || s.ctx.Err() != nil {
			return
		}
		s.abort(NewError(kind, nil))
	})
}

// ForceAbort latches err directly, bypassing the reactor's task queue.
// It exists for the one case where routing through Post would silently
// drop the abort: a reactor stopping because one of its sessions failed
// gives that stop reactor-wide scope, leaving every other session
// assigned to it with no goroutine left to drain Post's queue. The
// caller must only use this once it knows the owning reactor's Run has
// already returned, so no other goroutine can be touching the session
// concurrently.
func (s *Session) ForceAbort(err *Error) {
	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}
	s.abort(err)
}

func (s *Session) signalDone() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Finalize returns the session's statistics and latched failure once the
// owning reactor has stopped. It is idempotent (P5): calling it more than
// once returns the same snapshot without mutating statistics further.
func (s *Session) Finalize() (Stats, *Error) {
	return s.stats, s.firstFailure
}

func (s *Session) sampleDatagramSize() uint64 {
	lo, hi := s.cfg.PacketSize.Low.Bytes, s.cfg.PacketSize.High.Bytes
	if lo >= hi {
		return lo
	}
	return lo + uint64(s.rng.Int64N(int64(hi-lo+1)))
}

func randSeed() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:])
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	return v
}
