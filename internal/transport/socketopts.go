package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// syscallConner is implemented by net.UDPConn, net.TCPConn and similar
// types that expose their raw file descriptor.
type syscallConner interface {
	SyscallConn() (syscall.RawConn, error)
}

// applySocketBuffers sets SO_SNDBUF/SO_RCVBUF on the underlying socket,
// mirroring the buffer sizing the teacher repository's server listeners apply via
// golang.org/x/sys/unix for burst handling, generalized to the client side.
func applySocketBuffers(conn net.Conn, size int) error {
	sc, ok := conn.(syscallConner)
	if !ok {
		return nil
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	ctrlErr := rc.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, size); err != nil {
			setErr = err
			return
		}
		setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, size)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return setErr
}
