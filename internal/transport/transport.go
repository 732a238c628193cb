// Package transport implements the open/probe/send/recv/eq/close contract
// the core engine depends on (spec §6), for UDP, TCP, and TLS client
// sockets. It is grounded on the pooled-connection and non-blocking
// socket-handling patterns the teacher repository uses for its
// server-side listeners.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Mode selects the wire transport a Socket speaks.
type Mode string

const (
	ModeUDP Mode = "udp"
	ModeTCP Mode = "tcp"
	ModeTLS Mode = "tls"
)

// ProbeStatus is the readiness state spec §4.2/§6 requires the transport
// layer to report back to the socket bank.
type ProbeStatus int

const (
	// Ready means the socket can accept a send immediately.
	Ready ProbeStatus = iota
	// NotReady means the socket cannot accept a send yet; none of the
	// socket types in this package report it, kept for contract completeness.
	NotReady
	// InProgress means a TCP connect or TLS handshake has not completed.
	InProgress
	// Timeout means the probe's deadline elapsed without resolving.
	Timeout
)

func (s ProbeStatus) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotReady:
		return "not-ready"
	case InProgress:
		return "in-progress"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ErrBusy is returned by Send/Recv when the underlying socket would block
// (EAGAIN/EWOULDBLOCK-equivalent); the engine's sender/receiver loops treat
// this as TransportBusy, never fatal.
var ErrBusy = errors.New("transport: socket busy")

// Socket is one client transport handle, as held by a Socket Bank slot.
type Socket interface {
	// Probe reports whether the socket is ready to send, still completing
	// a connect/handshake, or has exceeded deadline waiting to resolve.
	Probe(deadline time.Time) (ProbeStatus, error)
	// Send writes one DNS message. A partial write is reported as an
	// error; the caller (sender loop) rolls back the slot on any error.
	Send(msg []byte) (int, error)
	// Recv performs one non-blocking read. ErrBusy means no data is
	// currently available and is not a failure.
	Recv(buf []byte) (int, error)
	// Index is the socket's position in its bank, used by Eq to detect a
	// reply arriving on a different socket than it was sent on.
	Index() int
	// Close releases the underlying OS resources.
	Close() error
}

// Eq reports whether two sockets are the same bank slot, by Index. The core
// engine makes the same check when it confirms a reply arrived on the socket
// the request was sent from (spec §4.4.d), but compares the stored bank
// indices directly rather than calling Eq.
func Eq(a, b Socket) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Index() == b.Index()
}

// Dialer opens client sockets for one target/mode pair. One Dialer backs
// one worker's Socket Bank.
type Dialer struct {
	Mode       Mode
	Server     string
	Port       int
	BufferSize int // SO_SNDBUF/SO_RCVBUF size; 0 keeps the OS default

	// TLSServerName overrides the SNI/verification name for ModeTLS; when
	// empty, Server is used.
	TLSServerName string
	// TLSInsecureSkipVerify allows pointing the load generator at targets
	// presenting self-signed certificates, a common benchmarking setup.
	TLSInsecureSkipVerify bool
}

// Open dials the index'th socket for the bank. index is stamped onto the
// Socket so Eq can later tell replies apart by origin.
func (d Dialer) Open(ctx context.Context, index int) (Socket, error) {
	addr := net.JoinHostPort(d.Server, fmt.Sprintf("%d", d.Port))
	switch d.Mode {
	case ModeUDP, "":
		return openUDP(ctx, addr, index, d.BufferSize)
	case ModeTCP:
		return openTCP(ctx, addr, index, d.BufferSize)
	case ModeTLS:
		return openTLS(ctx, addr, index, d)
	default:
		return nil, fmt.Errorf("transport: unknown mode %q", d.Mode)
	}
}
