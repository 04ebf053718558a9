package orchestrator

import (
	"fmt"
	"strings"

	"github.com/dantte-lp/net-tester/internal/pattern"
	"github.com/dantte-lp/net-tester/internal/session"
	"github.com/dantte-lp/net-tester/internal/sizeunit"
)

// The following adapt sizeunit/pattern/session types to pflag.Value so
// a session configuration line can be parsed with familiar flag names
// and shorthands.

type sizeValue struct{ v *sizeunit.Size }

func (f *sizeValue) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f *sizeValue) Set(raw string) error {
	parsed, err := sizeunit.Parse(raw)
	if err != nil {
		return err
	}
	*f.v = parsed
	return nil
}

func (f *sizeValue) Type() string { return "size" }

type rangeValue struct{ v *sizeunit.Range }

func (f *rangeValue) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f *rangeValue) Set(raw string) error {
	parsed, err := sizeunit.ParseRange(raw)
	if err != nil {
		return err
	}
	*f.v = parsed
	return nil
}

func (f *rangeValue) Type() string { return "range" }

type protocolValue struct{ v *session.Protocol }

func (f *protocolValue) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f *protocolValue) Set(raw string) error {
	switch strings.ToLower(raw) {
	case "tcp":
		*f.v = session.TCP
	case "udp":
		*f.v = session.UDP
	default:
		return fmt.Errorf("protocol %q: %w", raw, errInvalidEnumValue)
	}
	return nil
}

func (f *protocolValue) Type() string { return "protocol" }

type directionValue struct{ v *session.Direction }

func (f *directionValue) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f *directionValue) Set(raw string) error {
	switch strings.ToLower(raw) {
	case "both":
		*f.v = session.Both
	case "tx":
		*f.v = session.TXOnly
	case "rx":
		*f.v = session.RXOnly
	default:
		return fmt.Errorf("mode %q: %w", raw, errInvalidEnumValue)
	}
	return nil
}

func (f *directionValue) Type() string { return "direction" }

type verifyValue struct{ v *pattern.Verify }

func (f *verifyValue) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f *verifyValue) Set(raw string) error {
	v, ok := pattern.ParseVerify(raw)
	if !ok {
		return fmt.Errorf("verify %q: %w", raw, errInvalidEnumValue)
	}
	*f.v = v
	return nil
}

func (f *verifyValue) Type() string { return "verify" }

type shutdownPolicyValue struct{ v *session.ShutdownPolicy }

func (f *shutdownPolicyValue) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f *shutdownPolicyValue) Set(raw string) error {
	switch strings.ToLower(raw) {
	case "send_complete":
		*f.v = session.SendComplete
	case "receive_complete":
		*f.v = session.ReceiveComplete
	case "wait_for_peer":
		*f.v = session.WaitForPeer
	default:
		return fmt.Errorf("shutdown-policy %q: %w", raw, errInvalidEnumValue)
	}
	return nil
}

func (f *shutdownPolicyValue) Type() string { return "shutdown-policy" }
