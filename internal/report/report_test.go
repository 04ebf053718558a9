package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dantte-lp/net-tester/internal/endpoint"
	"github.com/dantte-lp/net-tester/internal/pattern"
	"github.com/dantte-lp/net-tester/internal/report"
	"github.com/dantte-lp/net-tester/internal/session"
)

func TestConfigWritesExpectedFields(t *testing.T) {
	t.Parallel()

	cfg := session.Config{
		Protocol:  session.TCP,
		Mode:      session.Client,
		Direction: session.Both,
		Endpoint:  endpoint.Endpoint{RemoteHost: "127.0.0.1", RemotePort: "9000"},
		Size:      1024,
		Verify:    pattern.VerifyAll,
	}

	var buf bytes.Buffer
	if err := report.Config(&buf, 0, cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Protocol", "tcp", "127.0.0.1:9000", "1024 bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSummarySuccessAndFailure(t *testing.T) {
	t.Parallel()

	cfg := session.Config{Endpoint: endpoint.Endpoint{RemoteHost: "h", RemotePort: "1"}}
	stats := session.Stats{BytesSent: 10, BytesReceived: 10, TotalDuration: time.Second}

	var buf bytes.Buffer
	if err := report.Summary(&buf, 0, cfg, stats, nil); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !strings.Contains(buf.String(), "SUCCESS") {
		t.Errorf("expected SUCCESS in output:\n%s", buf.String())
	}

	buf.Reset()
	failure := session.NewError(session.ChecksumFailed, nil)
	if err := report.Summary(&buf, 0, cfg, stats, failure); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !strings.Contains(buf.String(), "CHECKSUM_FAILED") {
		t.Errorf("expected CHECKSUM_FAILED in output:\n%s", buf.String())
	}
}
