package session

import "errors"

// ErrKind enumerates the exhaustive session termination reasons. SUCCESS
// is the zero value: a session with no recorded failure.
type ErrKind int

const (
	// Success is the terminal-success sentinel: no failure was recorded.
	Success ErrKind = iota
	// UnexpectedEOF: the peer closed the connection before the RX byte
	// budget was met.
	UnexpectedEOF
	// ChecksumFailed: a received payload byte did not match the pattern.
	ChecksumFailed
	// TestTimeout: the computed test-duration deadline expired.
	TestTimeout
	// UnexpectedData: bytes arrived on the TCP EOF probe after the RX
	// byte budget was already met.
	UnexpectedData
	// UserInterrupt: SIGINT was received.
	UserInterrupt
	// ProgramTermination: SIGTERM was received.
	ProgramTermination
	// UnknownSignal: any other registered signal was received.
	UnknownSignal
	// TransportError: an I/O error was surfaced by the transport.
	TransportError
)

// String names an ErrKind for logging and the statistics report.
func (k ErrKind) String() string {
	switch k {
	case Success:
		return "SUCCESS"
	case UnexpectedEOF:
		return "UNEXPECTED_EOF"
	case ChecksumFailed:
		return "CHECKSUM_FAILED"
	case TestTimeout:
		return "TEST_TIMEOUT"
	case UnexpectedData:
		return "UNEXPECTED_DATA"
	case UserInterrupt:
		return "USER_INTERRUPT"
	case ProgramTermination:
		return "PROGRAM_TERMINATION"
	case UnknownSignal:
		return "UNKNOWN_SIGNAL"
	case TransportError:
		return "TRANSPORT_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Error wraps an ErrKind with an optional inner cause (populated for
// TransportError and ChecksumFailed).
type Error struct {
	Kind  ErrKind
	Inner error
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return e.Kind.String() + ": " + e.Inner.Error()
	}
	return e.Kind.String()
}

// Unwrap exposes the inner cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Inner
}

// NewError builds an *Error for kind, optionally wrapping inner.
func NewError(kind ErrKind, inner error) *Error {
	return &Error{Kind: kind, Inner: inner}
}

// ErrReactorStopped wraps TransportError for a session whose reactor
// stopped because a co-located session on it aborted first: abort has
// reactor-wide scope, so every session sharing that reactor terminates
// together.
var ErrReactorStopped = errors.New("reactor stopped by a co-located session's abort")

// KindOf extracts the ErrKind from err, returning Success if err is nil
// and TransportError (unwrapped) if err is some other error type.
func KindOf(err error) ErrKind {
	if err == nil {
		return Success
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return TransportError
}
