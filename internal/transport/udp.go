//go:build linux

package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/dantte-lp/net-tester/internal/session"
)

// UDP implements session.Transport over a datagram socket. UDP sessions
// are client-only: each session dials a fixed peer so that plain
// Write/Read (rather than WriteTo/ReadFrom) can be used, and there is no
// shutdown-policy tail: with no peer-closed signal, the RX half
// completes as soon as its byte budget is met.
type UDP struct {
	cfg  session.Config
	conn *net.UDPConn
}

// NewUDP builds a UDP transport for cfg.
func NewUDP(cfg session.Config) *UDP {
	return &UDP{cfg: cfg}
}

func (u *UDP) Open(ctx context.Context) error {
	d := net.Dialer{}
	if u.cfg.Endpoint.LocalHost != "" || u.cfg.Endpoint.LocalPort != "" {
		laddr, err := net.ResolveUDPAddr("udp", u.cfg.Endpoint.LocalAddr())
		if err != nil {
			return fmt.Errorf("resolve local addr %s: %w", u.cfg.Endpoint.LocalAddr(), err)
		}
		d.LocalAddr = laddr
	}

	conn, err := d.DialContext(ctx, "udp", u.cfg.Endpoint.RemoteAddr())
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.cfg.Endpoint.RemoteAddr(), err)
	}

	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		_ = conn.Close()
		return ErrUnexpectedConnType
	}

	if u.cfg.Windows > 0 {
		_ = udpConn.SetWriteBuffer(int(u.cfg.Windows))
		_ = udpConn.SetReadBuffer(int(u.cfg.Windows))
	}
	u.conn = udpConn
	return nil
}

// Send writes buf as a single datagram. The caller (the Session TX
// loop) has already sized buf to the sampled datagram length.
func (u *UDP) Send(_ context.Context, buf []byte) (int, error) {
	return u.conn.Write(buf)
}

func (u *UDP) Receive(_ context.Context, buf []byte) (int, error) {
	return u.conn.Read(buf)
}

func (u *UDP) FinishSend(_ context.Context) error { return nil }

func (u *UDP) FinishReceive(_ context.Context) error { return nil }

func (u *UDP) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}
