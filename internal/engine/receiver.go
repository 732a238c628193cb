package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jroosing/dnsblast/internal/dns"
	"github.com/jroosing/dnsblast/internal/transport"
)

// stagedRecord is C4's transient "received record" per spec §3: it lives
// only within one receive batch, before and after correlation.
type stagedRecord struct {
	socketIndex  int
	id           uint16
	rcode        int
	length       int
	arrivalTime  uint64
	sendTime     uint64 // filled by correlation
	unexpected   bool
	short        bool
	description  string
}

// receiverLoop implements spec §4.4: timeout pruning from the tail, a
// completion check, a batched non-blocking receive with fair rotation, then
// correlation under the lock followed by unlocked stat processing.
func (w *Worker) receiverLoop(ctx context.Context) {
	w.startBarrier.Wait()

	for {
		if w.interrupted() {
			w.reclassifyOutstandingAsInterrupted()
			return
		}

		w.pruneTimeouts()

		w.mu.Lock()
		done := w.doneSending && w.table.Len() == 0
		w.mu.Unlock()
		if done {
			return
		}

		batch, sawAny, fatalErr := w.receiveBatch()
		if fatalErr != nil {
			w.logger.Error("receive batch failed", "worker", w.ID, "error", fatalErr)
			return
		}

		matched := w.correlate(batch)
		w.processMatched(matched)

		if !sawAny {
			w.waitForReadableOrTerm()
		}
	}
}

// pruneTimeouts walks outstanding from the tail, per spec §4.4.a: pop
// expired slots into the free list (to_back) until the tail is no longer
// older than now - timeout.
func (w *Worker) pruneTimeouts() {
	cutoff := nowMicros() - uint64(w.cfg.Timeout.Microseconds())
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		id, ok := w.table.Oldest()
		if !ok {
			return
		}
		sendAt := w.table.SendMicros(id)
		if sendAt == sentinelNotSent || sendAt >= cutoff {
			return
		}
		w.table.Release(id, ToBack)
		w.stats.NumTimedOut++
		w.cond.Broadcast()
	}
}

// receiveBatch drains up to RecvBatchSize packets across the bank, starting
// at lastSocket for fair rotation, per spec §4.4.c.
func (w *Worker) receiveBatch() (batch []stagedRecord, sawAny bool, fatalErr error) {
	n := w.bank.Len()
	buf := w.recvBufPool.Get()
	defer w.recvBufPool.Put(buf)

	for len(batch) < RecvBatchSize {
		progressed := false
		for i := 0; i < n; i++ {
			idx := (w.lastSocket + i) % n
			sock := w.bank.At(idx)
			count, err := sock.Recv(buf)
			if err == transport.ErrBusy {
				continue // EAGAIN: drained for this batch
			}
			if err != nil {
				return batch, sawAny, err
			}
			sawAny = true
			progressed = true
			w.lastSocket = (idx + 1) % n
			rec := parseStaged(idx, buf[:count], nowMicros())
			batch = append(batch, rec)
			if len(batch) >= RecvBatchSize {
				return batch, sawAny, nil
			}
		}
		if !progressed {
			break
		}
	}
	return batch, sawAny, nil
}

func parseStaged(socketIndex int, payload []byte, arrival uint64) stagedRecord {
	rec := stagedRecord{socketIndex: socketIndex, length: len(payload), arrivalTime: arrival}
	if len(payload) < 4 {
		rec.short = true
		return rec
	}
	id := uint16(payload[0])<<8 | uint16(payload[1])
	flags := uint16(payload[2])<<8 | uint16(payload[3])
	rec.id = id
	rec.rcode = int(dns.RCodeFromFlags(flags))
	return rec
}

// correlate matches staged records against the query table under the lock,
// per spec §4.4.d.
func (w *Worker) correlate(batch []stagedRecord) []stagedRecord {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range batch {
		rec := &batch[i]
		if rec.length < 4 {
			continue // short responses never reach correlation
		}
		id := int(rec.id)
		if !w.table.InOutstanding(id) {
			rec.unexpected = true
			continue
		}
		sendAt := w.table.SendMicros(id)
		if sendAt == sentinelNotSent {
			rec.unexpected = true
			continue
		}
		if w.table.SocketIndex(id) != rec.socketIndex {
			rec.unexpected = true
			continue
		}
		rec.sendTime = sendAt
		rec.description = w.table.Description(id)
		w.table.Release(id, ToBack)
	}
	w.cond.Broadcast()
	return batch
}

// processMatched folds each non-unexpected, non-short record into stats,
// unlocked, per spec §4.4.e.
func (w *Worker) processMatched(batch []stagedRecord) {
	for _, rec := range batch {
		if rec.short {
			w.stats.NumShort++
			w.logger.Debug("short response", "worker", w.ID, "size", rec.length)
			continue
		}
		if rec.unexpected {
			w.stats.NumUnexpected++
			w.logger.Debug("unexpected id", "worker", w.ID, "id", rec.id)
			continue
		}
		w.anyReceived.Store(true)
		latency := rec.arrivalTime - rec.sendTime
		w.stats.RecordCompletion(latency, rec.length, rec.rcode)
		if w.cfg.Verbose && rec.description != "" {
			fmt.Printf("> %s %d.%06d rcode=%d\n", rec.description, latency/1_000_000, latency%1_000_000, rec.rcode)
		}
	}
}

// waitForReadableOrTerm blocks until a socket might be readable or the
// termination channel fires, capped at TimeoutCheckPeriod, per spec
// §4.4.f's EAGAIN branch.
func (w *Worker) waitForReadableOrTerm() {
	select {
	case <-w.termCh:
	case <-time.After(TimeoutCheckPeriod):
	}
}

// reclassifyOutstandingAsInterrupted moves every outstanding slot to the
// free list and counts it, per spec §5's cancellation semantics: "Interrupted
// outstanding queries are reclassified as num_interrupted and their
// descriptions freed."
func (w *Worker) reclassifyOutstandingAsInterrupted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		id, ok := w.table.Oldest()
		if !ok {
			return
		}
		w.table.Release(id, ToBack)
		w.stats.NumInterrupted++
	}
}
