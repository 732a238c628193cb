package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"os"
	"sync"
	"time"
)

// tcpSocket wraps a non-blocking connect with RFC 1035 §4.2.2 length-prefix
// framing, grounded on the teacher's tcp_server.go readMessage/writeMessage
// pair. Connect runs in a background goroutine so Probe can report
// InProgress without blocking the sender loop, as spec §4.2 requires.
type tcpSocket struct {
	index       int
	connectDone chan struct{}

	mu      sync.Mutex
	conn    net.Conn
	dialErr error
	pending []byte
}

func openTCP(ctx context.Context, addr string, index, bufSize int) (Socket, error) {
	s := &tcpSocket{index: index, connectDone: make(chan struct{})}
	go func() {
		var d net.Dialer
		c, err := d.DialContext(ctx, "tcp", addr)
		if err == nil && bufSize > 0 {
			_ = applySocketBuffers(c, bufSize)
		}
		s.mu.Lock()
		s.conn = c
		s.dialErr = err
		s.mu.Unlock()
		close(s.connectDone)
	}()
	return s, nil
}

func (s *tcpSocket) connected() (bool, error) {
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

func (s *tcpSocket) Probe(deadline time.Time) (ProbeStatus, error) {
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

func (s *tcpSocket) Send(msg []byte) (int, error) {
	ok, err := s.connected()
	if !ok {
		return 0, ErrBusy
	}
	if err != nil {
		return 0, err
	}
	if len(msg) > maxTCPMessageSize {
		return 0, errors.New("transport: message too large for TCP framing")
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

func (s *tcpSocket) Recv(buf []byte) (int, error) {
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

func (s *tcpSocket) Index() int { return s.index }

func (s *tcpSocket) Close() error {
	<-s.connectDone
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

const maxTCPMessageSize = 65535

// extractFrame pulls one complete length-prefixed message out of pending,
// if one is fully buffered.
func extractFrame(pending []byte) (consumed int, msg []byte, ok bool) {
	if len(pending) < 2 {
		return 0, nil, false
	}
	msgLen := int(binary.BigEndian.Uint16(pending[:2]))
	if len(pending) < 2+msgLen {
		return 0, nil, false
	}
	return 2 + msgLen, pending[2 : 2+msgLen], true
}

func isRecvTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
