package orchestrator_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dantte-lp/net-tester/internal/orchestrator"
	"github.com/dantte-lp/net-tester/internal/pattern"
	"github.com/dantte-lp/net-tester/internal/session"
)

func TestLoadSessionsParsesClientLine(t *testing.T) {
	t.Parallel()

	input := `-c 127.0.0.1:9000 -s 1MiB -p tcp -v all`
	configs, err := orchestrator.LoadSessions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("len(configs) = %d, want 1", len(configs))
	}

	cfg := configs[0]
	if cfg.Mode != session.Client {
		t.Errorf("Mode = %v, want Client", cfg.Mode)
	}
	if cfg.Protocol != session.TCP {
		t.Errorf("Protocol = %v, want TCP", cfg.Protocol)
	}
	if cfg.Size != 1<<20 {
		t.Errorf("Size = %d, want %d", cfg.Size, 1<<20)
	}
	if cfg.Verify != pattern.VerifyAll {
		t.Errorf("Verify = %v, want VerifyAll", cfg.Verify)
	}
	if cfg.Endpoint.RemoteHost != "127.0.0.1" || cfg.Endpoint.RemotePort != "9000" {
		t.Errorf("Endpoint = %+v", cfg.Endpoint)
	}
}

func TestLoadSessionsSkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	input := "\n# a comment\n-c 127.0.0.1:9000 -s 1KiB\n\n-l 9001:127.0.0.1:0 -s 2KiB\n"
	configs, err := orchestrator.LoadSessions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("len(configs) = %d, want 2", len(configs))
	}
	if configs[1].Mode != session.Server {
		t.Errorf("second line Mode = %v, want Server", configs[1].Mode)
	}
}

func TestLoadSessionsRejectsMutuallyExclusiveEndpoint(t *testing.T) {
	t.Parallel()

	input := `-c 127.0.0.1:1 -l 127.0.0.1:2 -s 1KiB`
	if _, err := orchestrator.LoadSessions(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for --connect and --listen together")
	}
}

func TestLoadSessionsRequiresSize(t *testing.T) {
	t.Parallel()

	input := `-c 127.0.0.1:9000`
	if _, err := orchestrator.LoadSessions(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for missing --size")
	}
}

func TestLoadSessionsParsesDurationMarginAndRange(t *testing.T) {
	t.Parallel()

	input := `-c 127.0.0.1:9000 -s 1MiB -D 512-1024 -d 500ms -S wait_for_peer`
	configs, err := orchestrator.LoadSessions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	cfg := configs[0]
	if cfg.PacketSize.Low.Bytes != 512 || cfg.PacketSize.High.Bytes != 1024 {
		t.Errorf("PacketSize = %+v", cfg.PacketSize)
	}
	if cfg.DurationMargin != 500*time.Millisecond {
		t.Errorf("DurationMargin = %v, want 500ms", cfg.DurationMargin)
	}
	if cfg.ShutdownPolicy != session.WaitForPeer {
		t.Errorf("ShutdownPolicy = %v, want WaitForPeer", cfg.ShutdownPolicy)
	}
}
