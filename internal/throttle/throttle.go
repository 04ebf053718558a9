// Package throttle implements the bandwidth-shaping slice timer shared by
// every session's TX and RX loops.
//
// Fixed-period slices bound instantaneous burst to a quota while
// amortizing timer overhead: a typical sampling frequency of 1kHz yields
// 1ms slices. next_slice_start accumulates monotonically and does not
// drift with callback latency — a late slice fires immediately, and the
// following one is still scheduled relative to the original cadence, so
// long-run average rate is preserved.
package throttle

import (
	"errors"
	"fmt"
	"time"
)

// ErrWouldStarve is returned by New when bandwidth < samplingFrequency,
// which would produce a zero per-slice quota and live-lock the caller.
var ErrWouldStarve = errors.New("bandwidth lower than sampling frequency: slice quota would be zero")

// Throttle paces a single direction (send or receive) of a session to a
// configured bandwidth, gated by a steady-clock timer.
type Throttle struct {
	sliceQuota    uint64
	sliceDuration time.Duration
	nextSlice     time.Time

	timer *time.Timer
}

// New builds a Throttle for bandwidth bytes/sec sampled samplingFreq
// times per second. Both must be > 0; bandwidth must be >= samplingFreq
// or the computed quota would be zero.
func New(bandwidth, samplingFreq uint64) (*Throttle, error) {
	if samplingFreq == 0 {
		return nil, fmt.Errorf("throttle: sampling frequency must be > 0")
	}
	if bandwidth < samplingFreq {
		return nil, fmt.Errorf("throttle: bandwidth %d Hz %d: %w", bandwidth, samplingFreq, ErrWouldStarve)
	}

	return &Throttle{
		sliceQuota:    bandwidth / samplingFreq,
		sliceDuration: time.Second / time.Duration(samplingFreq),
		nextSlice:     time.Now(),
	}, nil
}

// Reset sets the next slice boundary to now, used immediately before a
// session's first transfer so that any warm-up delay between
// construction and transfer start is not counted against the slice
// cadence.
func (t *Throttle) Reset() {
	t.nextSlice = time.Now()
}

// SliceQuota returns the number of bytes the caller may submit per slice.
func (t *Throttle) SliceQuota() uint64 {
	return t.sliceQuota
}

// SliceDuration returns the configured slice period.
func (t *Throttle) SliceDuration() time.Duration {
	return t.sliceDuration
}

// Wait blocks until the next slice boundary fires, then advances
// next_slice_start by one slice duration and returns the slice quota. It
// returns false without waiting the full remainder if cancel is closed
// first (the Go analogue of a cancelled asio timer: no side effects are
// observed by the caller in that case beyond the early return).
func (t *Throttle) Wait(cancel <-chan struct{}) (quota uint64, ok bool) {
	select {
	case <-cancel:
		return 0, false
	default:
	}

	d := time.Until(t.nextSlice)
	if d < 0 {
		d = 0
	}

	if t.timer == nil {
		t.timer = time.NewTimer(d)
	} else {
		if !t.timer.Stop() {
			select {
			case <-t.timer.C:
			default:
			}
		}
		t.timer.Reset(d)
	}

	select {
	case <-t.timer.C:
		t.nextSlice = t.nextSlice.Add(t.sliceDuration)
		return t.sliceQuota, true
	case <-cancel:
		return 0, false
	}
}

// Stop releases the underlying timer. Safe to call multiple times.
func (t *Throttle) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
