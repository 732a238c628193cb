package engine

import (
	"context"
	"time"

	"github.com/jroosing/dnsblast/internal/transport"
)

// Bank is the per-worker array of transport handles with a round-robin
// cursor, as spec §4.2 describes: "array of transport handles; round-robin
// cursor; readiness probing."
type Bank struct {
	sockets []transport.Socket
	cursor  int
}

// OpenBank dials n sockets through d, indexed 0..n-1.
func OpenBank(ctx context.Context, d transport.Dialer, n int) (*Bank, error) {
	sockets := make([]transport.Socket, 0, n)
	for i := 0; i < n; i++ {
		s, err := d.Open(ctx, i)
		if err != nil {
			for _, opened := range sockets {
				_ = opened.Close()
			}
			return nil, err
		}
		sockets = append(sockets, s)
	}
	return &Bank{sockets: sockets}, nil
}

// Len reports the bank's socket count.
func (b *Bank) Len() int { return len(b.sockets) }

// Pick returns the socket at cursor%N plus its bank index, and advances the
// cursor.
func (b *Bank) Pick() (transport.Socket, int) {
	idx := b.cursor % len(b.sockets)
	b.cursor++
	return b.sockets[idx], idx
}

// At returns the socket at the given index without disturbing the cursor;
// used by the receiver loop's fair rotation starting at last_socket.
func (b *Bank) At(i int) transport.Socket { return b.sockets[i%len(b.sockets)] }

// Probe delegates to the transport layer's readiness check.
func (b *Bank) Probe(s transport.Socket, deadline time.Time) (transport.ProbeStatus, error) {
	return s.Probe(deadline)
}

// Close closes every socket in the bank.
func (b *Bank) Close() error {
	var first error
	for _, s := range b.sockets {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
