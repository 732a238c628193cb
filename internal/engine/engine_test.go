package engine

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jroosing/dnsblast/internal/dns"
	"github.com/jroosing/dnsblast/internal/input"
	"github.com/jroosing/dnsblast/internal/logging"
	"github.com/jroosing/dnsblast/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestEchoLoopback exercises spec §8's first end-to-end scenario: a single
// worker, single client socket, max_outstanding=1, against a stub UDP
// transport that echoes every query back after a fixed delay.
func TestEchoLoopback(t *testing.T) {
	echoDelay := 5 * time.Millisecond
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	stop := make(chan struct{})
	go func() {
		buf := make([]byte, 512)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
			n, peer, err := conn.ReadFromUDP(buf)
			select {
			case <-stop:
				return
			default:
			}
			if err != nil {
				continue
			}
			msg := append([]byte(nil), buf[:n]...)
			go func() {
				time.Sleep(echoDelay)
				_, _ = conn.WriteToUDP(msg, peer)
			}()
		}
	}()
	defer close(stop)

	host, portStr, err := net.SplitHostPort(conn.LocalAddr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	f, err := os.CreateTemp(t.TempDir(), "queries-*.txt")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, _ = f.WriteString("example.com A\n")
	}
	require.NoError(t, f.Close())

	source, err := input.Open(f.Name())
	require.NoError(t, err)

	logger := logging.Configure(logging.Config{Level: "ERROR"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coord, err := NewCoordinator(ctx, RunSettings{
		Clients:        1,
		Threads:        1,
		MaxOutstanding: 1,
		MaxQPS:         10,
		Timeout:        time.Second,
		MaxPasses:      1,
		BuildOptions:   dns.BuildOptions{},
		Dialer:         transport.Dialer{Mode: transport.ModeUDP, Server: host, Port: port},
	}, source, logger)
	require.NoError(t, err)

	summary := coord.Run(ctx)

	require.Equal(t, uint64(10), summary.NumCompleted)
	require.Equal(t, uint64(0), summary.NumTimedOut)
	require.GreaterOrEqual(t, summary.MinLatencyMicros, uint64(echoDelay.Microseconds()))
	require.Less(t, summary.MaxLatencyMicros, uint64((50 * time.Millisecond).Microseconds()))
}

// TestTimeoutPath exercises spec §8's timeout scenario: the stub transport
// never replies, so every sent query must eventually time out.
func TestTimeoutPath(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	// No reader goroutine: every datagram is silently dropped by the kernel
	// buffer once it fills, so replies never arrive.

	host, portStr, err := net.SplitHostPort(conn.LocalAddr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	f, err := os.CreateTemp(t.TempDir(), "queries-*.txt")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, _ = f.WriteString("example.com A\n")
	}
	require.NoError(t, f.Close())

	source, err := input.Open(f.Name())
	require.NoError(t, err)
	logger := logging.Configure(logging.Config{Level: "ERROR"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coord, err := NewCoordinator(ctx, RunSettings{
		Clients:        1,
		Threads:        1,
		MaxOutstanding: 5,
		Timeout:        50 * time.Millisecond,
		MaxPasses:      1,
		BuildOptions:   dns.BuildOptions{},
		Dialer:         transport.Dialer{Mode: transport.ModeUDP, Server: host, Port: port},
	}, source, logger)
	require.NoError(t, err)

	summary := coord.Run(ctx)

	require.Equal(t, uint64(5), summary.NumSent)
	require.Equal(t, uint64(5), summary.NumTimedOut)
	require.Equal(t, uint64(0), summary.NumCompleted)
}
