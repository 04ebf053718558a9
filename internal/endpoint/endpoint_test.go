package endpoint_test

import (
	"testing"

	"github.com/dantte-lp/net-tester/internal/endpoint"
)

func TestParseRemoteOnly(t *testing.T) {
	t.Parallel()

	e, err := endpoint.Parse("example.com:9000")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if e.RemoteHost != "example.com" || e.RemotePort != "9000" {
		t.Errorf("got %+v", e)
	}
	if e.LocalHost != "" || e.LocalPort != "" {
		t.Errorf("expected empty local fields, got %+v", e)
	}
}

func TestParseLocalPortAndRemote(t *testing.T) {
	t.Parallel()

	e, err := endpoint.Parse("5000:example.com:9000")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if e.LocalPort != "5000" {
		t.Errorf("LocalPort = %q, want 5000", e.LocalPort)
	}
	if e.RemoteAddr() != "example.com:9000" {
		t.Errorf("RemoteAddr() = %q", e.RemoteAddr())
	}
}

func TestParseFull(t *testing.T) {
	t.Parallel()

	e, err := endpoint.Parse("127.0.0.1:5000:example.com:9000")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if e.LocalHost != "127.0.0.1" || e.LocalPort != "5000" {
		t.Errorf("got local %+v", e)
	}
	if e.LocalAddr() != "127.0.0.1:5000" {
		t.Errorf("LocalAddr() = %q", e.LocalAddr())
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "onlyhost", "a:b:c:d:e", "a::b"} {
		if _, err := endpoint.Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestLocalAddrDefaultsToEphemeralPort(t *testing.T) {
	t.Parallel()

	e, err := endpoint.Parse("example.com:9000")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if e.LocalAddr() != ":0" {
		t.Errorf("LocalAddr() = %q, want \":0\"", e.LocalAddr())
	}
}
