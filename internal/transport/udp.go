package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// udpSocket wraps a connected UDP conn. Connectionless by nature, so Probe
// always reports Ready once dialed, matching spec §6's contract note that
// UDP has no handshake-in-progress state.
type udpSocket struct {
	conn  *net.UDPConn
	index int
}

func openUDP(ctx context.Context, addr string, index, bufSize int) (Socket, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, "udp", raddr.String())
	if err != nil {
		return nil, err
	}
	conn, ok := c.(*net.UDPConn)
	if !ok {
		_ = c.Close()
		return nil, errors.New("transport: dial did not return a UDP connection")
	}
	if bufSize > 0 {
		_ = applySocketBuffers(conn, bufSize)
		_ = conn.SetReadBuffer(bufSize)
		_ = conn.SetWriteBuffer(bufSize)
	}
	return &udpSocket{conn: conn, index: index}, nil
}

func (s *udpSocket) Probe(time.Time) (ProbeStatus, error) {
	return Ready, nil
}

func (s *udpSocket) Send(msg []byte) (int, error) {
	n, err := s.conn.Write(msg)
	if err != nil {
		return n, err
	}
	if n != len(msg) {
		return n, errors.New("transport: short UDP write")
	}
	return n, nil
}

func (s *udpSocket) Recv(buf []byte) (int, error) {
	_ = s.conn.SetReadDeadline(time.Now())
	n, err := s.conn.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, ErrBusy
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, ErrBusy
		}
		return 0, err
	}
	return n, nil
}

func (s *udpSocket) Index() int { return s.index }

func (s *udpSocket) Close() error { return s.conn.Close() }
