package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dantte-lp/net-tester/internal/endpoint"
	"github.com/dantte-lp/net-tester/internal/pattern"
	"github.com/dantte-lp/net-tester/internal/sizeunit"
)

// Protocol selects the transport a session runs over.
type Protocol int

const (
	// TCP selects the stream transport.
	TCP Protocol = iota
	// UDP selects the datagram transport.
	UDP
)

func (p Protocol) String() string {
	if p == UDP {
		return "udp"
	}
	return "tcp"
}

// Mode selects which side of the connection this session takes.
type Mode int

const (
	// Client actively connects to the remote endpoint.
	Client Mode = iota
	// Server listens and accepts a single connection. TCP only.
	Server
)

func (m Mode) String() string {
	if m == Server {
		return "server"
	}
	return "client"
}

// Direction selects which of the TX/RX halves are active.
type Direction int

const (
	// Both runs the TX and RX halves concurrently.
	Both Direction = iota
	// TXOnly runs only the send half; the receive half completes
	// immediately without I/O.
	TXOnly
	// RXOnly runs only the receive half; the send half completes
	// immediately without I/O.
	RXOnly
)

func (d Direction) String() string {
	switch d {
	case TXOnly:
		return "tx"
	case RXOnly:
		return "rx"
	default:
		return "both"
	}
}

// ShutdownPolicy selects when a TCP session half-closes its write side
// relative to the RX byte budget and the peer's EOF. TCP only.
type ShutdownPolicy int

const (
	// SendComplete half-closes as soon as the TX half finishes.
	SendComplete ShutdownPolicy = iota
	// ReceiveComplete half-closes as soon as the RX byte budget is met.
	ReceiveComplete
	// WaitForPeer half-closes only after observing the peer's EOF.
	WaitForPeer
)

func (p ShutdownPolicy) String() string {
	switch p {
	case SendComplete:
		return "send_complete"
	case ReceiveComplete:
		return "receive_complete"
	default:
		return "wait_for_peer"
	}
}

// BufferSize is the fixed size of a session's send and receive buffers.
const BufferSize = 128 << 10

// Config is a session's immutable configuration.
type Config struct {
	Protocol  Protocol
	Mode      Mode
	Direction Direction

	Endpoint endpoint.Endpoint

	Size uint64

	SendBandwidth    uint64
	ReceiveBandwidth uint64
	SamplingFreqHz   uint64

	Verify pattern.Verify

	// Windows is the socket send/receive buffer size in bytes. Zero
	// means "OS default": the transport leaves SO_SNDBUF/SO_RCVBUF
	// untouched rather than applying any fallback of its own.
	Windows uint64

	PacketSize sizeunit.Range

	// DurationMargin is the extra allowance added to the estimated
	// transfer time before TestTimeout fires. Zero means "unset": the
	// session computes 10% of the estimate at start time.
	DurationMargin time.Duration

	ShutdownPolicy ShutdownPolicy
}

// Validation errors for Config.
var (
	ErrZeroBandwidth         = errors.New("send/receive bandwidth must be > 0")
	ErrZeroSamplingFreq      = errors.New("bandwidth sampling frequency must be > 0")
	ErrBandwidthBelowFreq    = errors.New("bandwidth below sampling frequency would starve the throttle")
	ErrZeroSize              = errors.New("size must be > 0")
	ErrUDPServerMode         = errors.New("UDP sessions support CLIENT mode only")
	ErrTXWithReceiveComplete = errors.New("TX direction is incompatible with shutdown policy receive_complete")
	ErrRXWithSendComplete    = errors.New("RX direction is incompatible with shutdown policy send_complete")
)

// Validate checks the invariants a session's configuration must satisfy
// before it can run, including the per-protocol restrictions on UDP
// server mode and TCP shutdown policy combinations.
func (c Config) Validate() error {
	if c.Size == 0 {
		return ErrZeroSize
	}
	if c.SamplingFreqHz == 0 {
		return ErrZeroSamplingFreq
	}

	if c.Direction != RXOnly {
		if err := validateBandwidth(c.SendBandwidth, c.SamplingFreqHz); err != nil {
			return err
		}
	}
	if c.Direction != TXOnly {
		if err := validateBandwidth(c.ReceiveBandwidth, c.SamplingFreqHz); err != nil {
			return err
		}
	}

	if c.Protocol == UDP && c.Mode == Server {
		return ErrUDPServerMode
	}

	if c.Protocol == TCP {
		if c.Direction == TXOnly && c.ShutdownPolicy == ReceiveComplete {
			return ErrTXWithReceiveComplete
		}
		if c.Direction == RXOnly && c.ShutdownPolicy == SendComplete {
			return ErrRXWithSendComplete
		}
	}

	return nil
}

func validateBandwidth(bandwidth, freq uint64) error {
	if bandwidth == 0 {
		return ErrZeroBandwidth
	}
	if bandwidth < freq {
		return fmt.Errorf("bandwidth %d freq %d: %w", bandwidth, freq, ErrBandwidthBelowFreq)
	}
	return nil
}

// EstimatedDuration computes the test-duration budget:
// estimate = ceil(size / min(tx_bw, rx_bw)) + 1 seconds; budget = estimate
// + margin (margin defaults to estimate/10 when DurationMargin is zero).
func (c Config) EstimatedDuration() (estimate, budget time.Duration) {
	bw := c.SendBandwidth
	if c.ReceiveBandwidth < bw {
		bw = c.ReceiveBandwidth
	}
	if bw == 0 {
		bw = 1
	}

	seconds := (c.Size+bw-1)/bw + 1
	estimate = time.Duration(seconds) * time.Second

	margin := c.DurationMargin
	if margin == 0 {
		margin = estimate / 10
	}

	return estimate, estimate + margin
}
