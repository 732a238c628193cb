package transport

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"net"
	"sync"
	"time"
)

// tlsSocket wraps a TCP connect followed by a TLS handshake, both run in a
// background goroutine. Probe distinguishes the handshake-in-progress state
// spec §4.2 calls out explicitly from a fully Ready socket.
type tlsSocket struct {
	index       int
	connectDone chan struct{}

	mu      sync.Mutex
	conn    *tls.Conn
	dialErr error
	pending []byte
}

func openTLS(ctx context.Context, addr string, index int, d Dialer) (Socket, error) {
	s := &tlsSocket{index: index, connectDone: make(chan struct{})}
	go func() {
		var nd net.Dialer
		raw, err := nd.DialContext(ctx, "tcp", addr)
		if err != nil {
			s.fail(err)
			return
		}
		if d.BufferSize > 0 {
			_ = applySocketBuffers(raw, d.BufferSize)
		}

		serverName := d.TLSServerName
		if serverName == "" {
			serverName = d.Server
		}
		tlsConn := tls.Client(raw, &tls.Config{
			ServerName:         serverName,
			InsecureSkipVerify: d.TLSInsecureSkipVerify, //nolint:gosec // opt-in benchmarking knob, not a default
			MinVersion:         tls.VersionTLS12,
		})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			s.fail(err)
			return
		}

		s.mu.Lock()
		s.conn = tlsConn
		s.mu.Unlock()
		close(s.connectDone)
	}()
	return s, nil
}

func (s *tlsSocket) fail(err error) {
	s.mu.Lock()
	s.dialErr = err
	s.mu.Unlock()
	close(s.connectDone)
}

func (s *tlsSocket) connected() (bool, error) {
	select {
	case <-s.connectDone:
		s.mu.Lock()
		err := s.dialErr
		s.mu.Unlock()
		return true, err
	default:
		return false, nil
	}
}

func (s *tlsSocket) Probe(deadline time.Time) (ProbeStatus, error) {
	ok, err := s.connected()
	if ok {
		if err != nil {
			return Timeout, err
		}
		return Ready, nil
	}
	if time.Now().After(deadline) {
		return Timeout, nil
	}
	return InProgress, nil
}

func (s *tlsSocket) Send(msg []byte) (int, error) {
	ok, err := s.connected()
	if !ok {
		return 0, ErrBusy
	}
	if err != nil {
		return 0, err
	}
	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(msg)))
	bufs := net.Buffers{prefix[:], msg}
	n, werr := bufs.WriteTo(s.conn)
	if werr != nil {
		return int(n), werr
	}
	return len(msg), nil
}

func (s *tlsSocket) Recv(buf []byte) (int, error) {
	ok, err := s.connected()
	if !ok {
		return 0, ErrBusy
	}
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n, msg, ok := extractFrame(s.pending); ok {
		s.pending = s.pending[n:]
		return copy(buf, msg), nil
	}

	_ = s.conn.SetReadDeadline(time.Now())
	tmp := make([]byte, 4096)
	n, rerr := s.conn.Read(tmp)
	if n > 0 {
		s.pending = append(s.pending, tmp[:n]...)
	}
	if msgN, msg, ok := extractFrame(s.pending); ok {
		s.pending = s.pending[msgN:]
		return copy(buf, msg), nil
	}
	if rerr != nil {
		if isRecvTimeout(rerr) {
			return 0, ErrBusy
		}
		return 0, rerr
	}
	return 0, ErrBusy
}

func (s *tlsSocket) Index() int { return s.index }

func (s *tlsSocket) Close() error {
	<-s.connectDone
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
