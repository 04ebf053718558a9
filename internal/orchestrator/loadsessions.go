package orchestrator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"

	"github.com/dantte-lp/net-tester/internal/endpoint"
	"github.com/dantte-lp/net-tester/internal/pattern"
	"github.com/dantte-lp/net-tester/internal/session"
	"github.com/dantte-lp/net-tester/internal/sizeunit"
)

// defaultBandwidth is the per-direction bandwidth cap applied when a
// session line doesn't set --tx-bandwidth/--rx-bandwidth: 128 SI
// megabytes per second.
const defaultBandwidth = 128 * 1000 * 1000

// defaultMaxDatagramSize is applied when a line doesn't set
// --max-datagram-size: 64 bytes below 64KiB, leaving headroom under the
// UDP/IP payload limit.
const defaultMaxDatagramSize = (1 << 16) - 64

var (
	errInvalidEnumValue          = errors.New("invalid value")
	errEndpointMutuallyExclusive = errors.New("--connect and --listen are mutually exclusive")
	errEndpointRequired          = errors.New("--connect or --listen is required")
	errSizeRequired              = errors.New("--size is required")
)

// LoadSessions reads one session specification per line from r. Each
// line is shell-tokenized (so quoted values may contain whitespace) and
// parsed as its own flag set, one session per line. Blank lines and
// lines starting with '#' are skipped.
func LoadSessions(r io.Reader) ([]session.Config, error) {
	var configs []session.Config

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cfg, err := parseSessionLine(line)
		if err != nil {
			return nil, fmt.Errorf("session line %d: %w", lineNo, err)
		}
		configs = append(configs, cfg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session config: %w", err)
	}

	return configs, nil
}

func parseSessionLine(line string) (session.Config, error) {
	args, err := shellquote.Split(line)
	if err != nil {
		return session.Config{}, fmt.Errorf("tokenize %q: %w", line, err)
	}

	var (
		connect        string
		listen         string
		size           = sizeunit.New(0)
		protocol       = session.TCP
		txBandwidth    = sizeunit.New(defaultBandwidth)
		rxBandwidth    = sizeunit.New(defaultBandwidth)
		samplingFreq   uint64
		verify         = pattern.VerifyNone
		direction      = session.Both
		windows        = sizeunit.New(0)
		durationMargin time.Duration
		packetSize     = sizeunit.Fixed(sizeunit.New(defaultMaxDatagramSize))
		shutdownPolicy = session.SendComplete
	)

	fs := pflag.NewFlagSet("session", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	fs.StringVarP(&connect, "connect", "c", "", "connect to host:port")
	fs.StringVarP(&listen, "listen", "l", "", "listen on host:port")
	fs.VarP(&sizeValue{&size}, "size", "s", "amount of data to transfer")
	fs.VarP(&protocolValue{&protocol}, "protocol", "p", "tcp or udp")
	fs.VarP(&sizeValue{&txBandwidth}, "tx-bandwidth", "t", "send bandwidth cap")
	fs.VarP(&sizeValue{&rxBandwidth}, "rx-bandwidth", "r", "receive bandwidth cap")
	fs.Uint64VarP(&samplingFreq, "bandwidth-sampling-frequency", "f", 1000, "bandwidth slices per second")
	fs.VarP(&verifyValue{&verify}, "verify", "v", "none, first, or all")
	fs.VarP(&directionValue{&direction}, "mode", "m", "both, tx, or rx")
	fs.VarP(&sizeValue{&windows}, "windows", "w", "socket send/receive buffer size")
	fs.DurationVarP(&durationMargin, "duration-margin", "d", 0, "extra time before a timeout is declared")
	fs.VarP(&rangeValue{&packetSize}, "max-datagram-size", "D", "UDP datagram size, fixed or a range")
	fs.VarP(&shutdownPolicyValue{&shutdownPolicy}, "shutdown-policy", "S", "send_complete, receive_complete, or wait_for_peer")

	if err := fs.Parse(args); err != nil {
		return session.Config{}, err
	}

	if connect != "" && listen != "" {
		return session.Config{}, errEndpointMutuallyExclusive
	}

	var mode session.Mode
	var rawEndpoint string
	switch {
	case connect != "":
		mode = session.Client
		rawEndpoint = connect
	case listen != "":
		mode = session.Server
		rawEndpoint = listen
	default:
		return session.Config{}, errEndpointRequired
	}

	ep, err := endpoint.Parse(rawEndpoint)
	if err != nil {
		return session.Config{}, fmt.Errorf("endpoint: %w", err)
	}

	if size.Bytes == 0 {
		return session.Config{}, errSizeRequired
	}

	if samplingFreq == 0 {
		samplingFreq = 1000
	}

	cfg := session.Config{
		Protocol:         protocol,
		Mode:             mode,
		Direction:        direction,
		Endpoint:         ep,
		Size:             size.Bytes,
		SendBandwidth:    txBandwidth.Bytes,
		ReceiveBandwidth: rxBandwidth.Bytes,
		SamplingFreqHz:   samplingFreq,
		Verify:           verify,
		Windows:          windows.Bytes,
		PacketSize:       packetSize,
		DurationMargin:   durationMargin,
		ShutdownPolicy:   shutdownPolicy,
	}

	if err := cfg.Validate(); err != nil {
		return session.Config{}, fmt.Errorf("invalid session config: %w", err)
	}
	return cfg, nil
}
