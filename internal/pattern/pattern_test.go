package pattern_test

import (
	"testing"

	"github.com/dantte-lp/net-tester/internal/pattern"
)

func TestFill(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 512)
	pattern.Fill(buf)

	for i, b := range buf {
		if b != byte(i) {
			t.Fatalf("buf[%d] = %d, want %d", i, b, byte(i))
		}
	}
}

func TestVerifierAllMatches(t *testing.T) {
	t.Parallel()

	v := pattern.NewVerifier(pattern.VerifyAll)
	buf := make([]byte, 300)
	pattern.Fill(buf)

	if err := v.Check(buf[:256], 256); err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	if err := v.Check(buf[256:300], 44); err != nil {
		t.Fatalf("second chunk: %v", err)
	}
}

func TestVerifierAllDetectsMismatch(t *testing.T) {
	t.Parallel()

	v := pattern.NewVerifier(pattern.VerifyAll)
	buf := make([]byte, 10)
	pattern.Fill(buf)
	buf[5] = 0xFF

	err := v.Check(buf, 10)
	if err == nil {
		t.Fatal("expected mismatch error")
	}

	var mismatch *pattern.MismatchError
	if !asMismatch(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if mismatch.Offset != 5 {
		t.Errorf("Offset = %d, want 5", mismatch.Offset)
	}
}

func TestVerifierFirstOnlyChecksFirstByte(t *testing.T) {
	t.Parallel()

	v := pattern.NewVerifier(pattern.VerifyFirst)
	buf := []byte{0, 9, 9, 9}

	if err := v.Check(buf, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifierNoneNeverFails(t *testing.T) {
	t.Parallel()

	v := pattern.NewVerifier(pattern.VerifyNone)
	buf := []byte{9, 9, 9}

	if err := v.Check(buf, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func asMismatch(err error, target **pattern.MismatchError) bool {
	m, ok := err.(*pattern.MismatchError)
	if ok {
		*target = m
	}
	return ok
}
