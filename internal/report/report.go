// Package report renders session configuration and results for
// operators as aligned tabwriter tables.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dantte-lp/net-tester/internal/session"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Config writes a human-readable summary of a session's configuration
// before it starts.
func Config(w io.Writer, index int, cfg session.Config) error {
	tw := newTabWriter(w)

	fmt.Fprintf(tw, "Session:\t%d\n", index)
	fmt.Fprintf(tw, "Protocol:\t%s\n", cfg.Protocol)
	fmt.Fprintf(tw, "Mode:\t%s\n", cfg.Mode)
	fmt.Fprintf(tw, "Direction:\t%s\n", cfg.Direction)
	fmt.Fprintf(tw, "Endpoint:\t%s\n", cfg.Endpoint)
	fmt.Fprintf(tw, "Size:\t%d bytes\n", cfg.Size)
	fmt.Fprintf(tw, "TX bandwidth:\t%d B/s\n", cfg.SendBandwidth)
	fmt.Fprintf(tw, "RX bandwidth:\t%d B/s\n", cfg.ReceiveBandwidth)
	fmt.Fprintf(tw, "Verify:\t%s\n", cfg.Verify)
	fmt.Fprintf(tw, "Shutdown policy:\t%s\n", cfg.ShutdownPolicy)

	return tw.Flush()
}

// Summary writes a session's final statistics and outcome.
func Summary(w io.Writer, index int, cfg session.Config, stats session.Stats, failure *session.Error) error {
	tw := newTabWriter(w)

	fmt.Fprintf(tw, "Session:\t%d\n", index)
	fmt.Fprintf(tw, "Endpoint:\t%s\n", cfg.Endpoint)
	fmt.Fprintf(tw, "Bytes sent:\t%d\n", stats.BytesSent)
	fmt.Fprintf(tw, "Bytes received:\t%d\n", stats.BytesReceived)
	fmt.Fprintf(tw, "Send duration:\t%s\n", stats.SendDuration)
	fmt.Fprintf(tw, "Receive duration:\t%s\n", stats.ReceiveDuration)
	fmt.Fprintf(tw, "Total duration:\t%s\n", stats.TotalDuration)

	if failure != nil {
		fmt.Fprintf(tw, "Result:\t%s (%s)\n", failure.Kind, failure.Error())
	} else {
		fmt.Fprintf(tw, "Result:\t%s\n", session.Success)
	}

	return tw.Flush()
}

// Checksum writes a single-line mismatch report, used when Verify
// detects corrupted payload bytes.
func Checksum(w io.Writer, index int, mismatch error) error {
	_, err := fmt.Fprintf(w, "session %d: checksum mismatch: %v\n", index, mismatch)
	return err
}
