//go:build linux

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/dantte-lp/net-tester/internal/session"
)

// ErrUnexpectedConnType is returned when the standard library hands
// back a net.Conn that isn't the *net.TCPConn we asked for.
var ErrUnexpectedConnType = errors.New("unexpected connection type")

// TCP implements session.Transport over a stream socket.
type TCP struct {
	cfg  session.Config
	conn *net.TCPConn
}

// NewTCP builds a TCP transport for cfg. cfg.Mode selects Dial vs.
// Listen+Accept; cfg.ShutdownPolicy governs FinishSend/FinishReceive.
func NewTCP(cfg session.Config) *TCP {
	return &TCP{cfg: cfg}
}

func (t *TCP) Open(ctx context.Context) error {
	if t.cfg.Mode == session.Server {
		return t.acceptOne(ctx)
	}
	return t.dial(ctx)
}

func (t *TCP) dial(ctx context.Context) error {
	d := net.Dialer{Control: quickAckControl}
	if t.cfg.Endpoint.LocalHost != "" || t.cfg.Endpoint.LocalPort != "" {
		laddr, err := net.ResolveTCPAddr("tcp", t.cfg.Endpoint.LocalAddr())
		if err != nil {
			return fmt.Errorf("resolve local addr %s: %w", t.cfg.Endpoint.LocalAddr(), err)
		}
		d.LocalAddr = laddr
	}

	conn, err := d.DialContext(ctx, "tcp", t.cfg.Endpoint.RemoteAddr())
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.cfg.Endpoint.RemoteAddr(), err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return ErrUnexpectedConnType
	}
	return t.configure(tcpConn)
}

func (t *TCP) acceptOne(ctx context.Context) error {
	lc := net.ListenConfig{Control: quickAckControl}
	ln, err := lc.Listen(ctx, "tcp", t.cfg.Endpoint.LocalAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", t.cfg.Endpoint.LocalAddr(), err)
	}

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan acceptResult, 1)
	go func() {
		conn, err := ln.Accept()
		resultCh <- acceptResult{conn, err}
	}()

	select {
	case res := <-resultCh:
		_ = ln.Close()
		if res.err != nil {
			return fmt.Errorf("accept on %s: %w", t.cfg.Endpoint.LocalAddr(), res.err)
		}
		tcpConn, ok := res.conn.(*net.TCPConn)
		if !ok {
			_ = res.conn.Close()
			return ErrUnexpectedConnType
		}
		return t.configure(tcpConn)
	case <-ctx.Done():
		_ = ln.Close()
		res := <-resultCh
		if res.conn != nil {
			_ = res.conn.Close()
		}
		return ctx.Err()
	}
}

func (t *TCP) configure(conn *net.TCPConn) error {
	_ = conn.SetNoDelay(true)
	if t.cfg.Windows > 0 {
		_ = conn.SetWriteBuffer(int(t.cfg.Windows))
		_ = conn.SetReadBuffer(int(t.cfg.Windows))
	}
	t.conn = conn
	return nil
}

func (t *TCP) Send(_ context.Context, buf []byte) (int, error) {
	return t.conn.Write(buf)
}

func (t *TCP) Receive(_ context.Context, buf []byte) (int, error) {
	_ = setQuickAck(t.conn)
	return t.conn.Read(buf)
}

// FinishSend applies the SEND_COMPLETE shutdown policy: half-close the
// write side as soon as the TX half is done. The other two policies
// leave the write side open here; ReceiveComplete closes it when the RX
// budget is met (in FinishReceive) and WaitForPeer closes it only after
// observing the peer's EOF (also in FinishReceive).
func (t *TCP) FinishSend(_ context.Context) error {
	if t.cfg.ShutdownPolicy != session.SendComplete {
		return nil
	}
	if err := t.conn.CloseWrite(); err != nil {
		return fmt.Errorf("shutdown write (send_complete): %w", err)
	}
	return nil
}

// FinishReceive applies the RX-side shutdown policy and then probes for
// the peer's EOF with a single 1-byte read. A clean EOF means the RX
// half is complete; any bytes read mean the peer sent more than its
// budget (UnexpectedData); any other read error is surfaced to the
// caller, who reports it as a transport error.
func (t *TCP) FinishReceive(_ context.Context) error {
	if t.cfg.ShutdownPolicy == session.ReceiveComplete {
		if err := t.conn.CloseWrite(); err != nil {
			return fmt.Errorf("shutdown write (receive_complete): %w", err)
		}
	}

	var probe [1]byte
	n, err := t.conn.Read(probe[:])
	switch {
	case n > 0:
		return session.NewError(session.UnexpectedData, nil)
	case errors.Is(err, io.EOF):
		if t.cfg.ShutdownPolicy == session.WaitForPeer {
			if cerr := t.conn.CloseWrite(); cerr != nil {
				return fmt.Errorf("shutdown write (wait_for_peer): %w", cerr)
			}
		}
		return nil
	case err != nil:
		return fmt.Errorf("eof probe: %w", err)
	default:
		return nil
	}
}

func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
