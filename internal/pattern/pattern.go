// Package pattern implements the deterministic payload pattern shared by
// every session's send buffer and receive verifier: p[i] = i mod 256.
package pattern

import "strconv"

// Fill initializes buf so that buf[i] == byte(i) for every i, the pattern
// used to seed a session's fixed 128 KiB send buffer exactly once.
func Fill(buf []byte) {
	for i := range buf {
		buf[i] = byte(i)
	}
}

// ByteAt returns the pattern byte at absolute session-relative offset k.
func ByteAt(k uint64) byte {
	return byte(k)
}

// Verify is the verification mode for the RX half of a session.
type Verify int

const (
	// VerifyNone performs no verification.
	VerifyNone Verify = iota
	// VerifyFirst checks only the first byte of each completion.
	VerifyFirst
	// VerifyAll checks every byte of each completion.
	VerifyAll
)

// String returns the config-file token for a Verify mode.
func (v Verify) String() string {
	switch v {
	case VerifyNone:
		return "none"
	case VerifyFirst:
		return "first"
	case VerifyAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseVerify parses a Verify mode from its config-file token.
func ParseVerify(s string) (Verify, bool) {
	switch s {
	case "none":
		return VerifyNone, true
	case "first":
		return VerifyFirst, true
	case "all":
		return VerifyAll, true
	default:
		return 0, false
	}
}

// MismatchError describes a single verification failure: the absolute
// byte offset, the expected pattern byte, and the actual byte received.
type MismatchError struct {
	Offset   uint64
	Expected byte
	Actual   byte
}

func (e *MismatchError) Error() string {
	return "checksum mismatch at byte " + strconv.FormatUint(e.Offset, 10) +
		": expected " + strconv.FormatUint(uint64(e.Expected), 10) +
		" got " + strconv.FormatUint(uint64(e.Actual), 10)
}

// Verifier checks received bytes against the pattern, tracking the
// session-relative offset of the next byte to verify.
type Verifier struct {
	mode       Verify
	nextOffset uint64
}

// NewVerifier creates a Verifier in the given mode, starting at
// session-relative offset 0.
func NewVerifier(mode Verify) *Verifier {
	return &Verifier{mode: mode}
}

// Check verifies buf[:n], which was received at the verifier's current
// offset, and advances the offset by n regardless of outcome. It returns
// the first mismatch found, or nil if buf[:n] matches the pattern (or
// verification is disabled).
func (v *Verifier) Check(buf []byte, n int) error {
	offset := v.nextOffset
	defer func() { v.nextOffset += uint64(n) }()

	switch v.mode {
	case VerifyNone:
		return nil
	case VerifyFirst:
		if n == 0 {
			return nil
		}
		if want := ByteAt(offset); buf[0] != want {
			return &MismatchError{Offset: offset, Expected: want, Actual: buf[0]}
		}
		return nil
	case VerifyAll:
		for i := 0; i < n; i++ {
			want := ByteAt(offset + uint64(i))
			if buf[i] != want {
				return &MismatchError{Offset: offset + uint64(i), Expected: want, Actual: buf[i]}
			}
		}
		return nil
	default:
		return nil
	}
}
