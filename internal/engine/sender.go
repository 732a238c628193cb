package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/jroosing/dnsblast/internal/dns"
	"github.com/jroosing/dnsblast/internal/input"
	"github.com/jroosing/dnsblast/internal/transport"
)

// senderLoop implements spec §4.3's pacing algorithm at design level: an
// anti-flood jitter, a QPS gate, a concurrency gate under the worker lock,
// slot allocation, a bounded socket-readiness probe, and the actual send.
func (w *Worker) senderLoop(ctx context.Context) {
	w.startBarrier.Wait()

	var numSent uint64
	var anyInProgress bool

	for !w.interrupted() && !w.pastStopTime() {
		// (a) anti-flood jitter
		if numSent < uint64(w.cfg.MaxOutstanding) && numSent%2 == 1 {
			if !w.anyReceived.Load() {
				time.Sleep(time.Millisecond)
			} else {
				runtime.Gosched()
			}
		}

		// (b) QPS gate
		if w.cfg.MaxQPS > 0 {
			elapsed := time.Since(w.startTime)
			target := time.Duration(float64(numSent) / w.cfg.MaxQPS * float64(time.Second))
			if target > elapsed {
				time.Sleep(target - elapsed)
			}
		}

		// (c)/(d) concurrency gate under the worker lock
		w.mu.Lock()
		for w.table.Len() >= w.cfg.MaxOutstanding && !w.interrupted() && !w.pastStopTime() {
			waitWithDeadline(w.cond, &w.mu, w.stopTime)
			if w.table.Len() >= w.cfg.MaxOutstanding {
				break
			}
		}
		if w.interrupted() || w.pastStopTime() {
			w.mu.Unlock()
			break
		}
		if w.table.Len() >= w.cfg.MaxOutstanding {
			w.mu.Unlock()
			continue
		}

		// (e) allocate a slot, pick a ready socket
		id, err := w.table.Allocate()
		if err != nil {
			w.mu.Unlock()
			continue
		}
		sock, sockIndex, probeErr := w.pickReadySocket(&anyInProgress)
		if sock == nil {
			w.table.Release(id, ToFront)
			w.mu.Unlock()
			if probeErr != nil {
				w.logger.Warn("socket probe failed", "worker", w.ID, "error", probeErr)
			}
			continue
		}
		w.mu.Unlock()

		// (f) pull next query descriptor
		var q input.Query
		status, err := w.source.Next(&q)
		if err != nil || status == input.InvalidFile {
			w.logger.Error("input source invalid", "worker", w.ID, "error", err)
			w.mu.Lock()
			w.table.Release(id, ToFront)
			w.mu.Unlock()
			break
		}
		if status == input.EndOfFile {
			w.mu.Lock()
			w.table.Release(id, ToFront)
			w.mu.Unlock()
			break
		}

		// (g) build the DNS request using the slot index as transaction id
		text := q.Name
		if q.QType != "" {
			text = q.Name + " " + q.QType
		}
		msg, err := dns.Build(text, uint16(id), w.cfg.BuildOptions)
		if err != nil {
			w.logger.Warn("failed to build query", "worker", w.ID, "text", text, "error", err)
			w.mu.Lock()
			w.table.Release(id, ToFront)
			w.mu.Unlock()
			continue
		}

		// (h) record send timestamp, send
		desc := ""
		if w.cfg.Verbose {
			desc = text
		}
		w.mu.Lock()
		w.table.Commit(id, nowMicros(), sockIndex, desc)
		w.mu.Unlock()
		n, sendErr := sock.Send(msg)
		switch {
		case sendErr == transport.ErrBusy:
			anyInProgress = true
			w.mu.Lock()
			w.table.Release(id, ToFront)
			w.mu.Unlock()
			continue
		case sendErr != nil:
			w.logger.Warn("send failed", "worker", w.ID, "error", sendErr)
			w.mu.Lock()
			w.table.Release(id, ToFront)
			w.mu.Unlock()
			continue
		case n != len(msg):
			w.mu.Lock()
			w.table.Release(id, ToFront)
			w.mu.Unlock()
			continue
		}

		numSent++
		w.stats.NumSent = numSent
		w.stats.TotalRequestSize += uint64(len(msg))
	}

	// drain in-progress sockets before declaring done
	for anyInProgress && !w.interrupted() {
		anyInProgress = false
		for i := 0; i < w.bank.Len(); i++ {
			status, _ := w.bank.At(i).Probe(time.Now().Add(TimeoutCheckPeriod))
			if status == transport.InProgress {
				anyInProgress = true
			}
		}
		if anyInProgress {
			time.Sleep(time.Millisecond)
		}
	}

	w.mu.Lock()
	w.doneSending = true
	w.doneSendTime = time.Now()
	// Hold the completion signal until the receiver has matched or timed out
	// every outstanding query, so the coordinator only counts this worker as
	// done once nothing is left in flight.
	for w.table.Len() > 0 && !w.interrupted() && !w.pastStopTime() {
		waitWithDeadline(w.cond, &w.mu, w.stopTime)
	}
	w.mu.Unlock()
	w.cond.Broadcast()
	if w.mainCh != nil {
		w.mainCh <- workerDone{workerID: w.ID}
	}
}

// pickReadySocket probes up to 2N successive sockets per spec §9's resolved
// reading of the open question: pick the first Ready one; if none is ready,
// the caller rolls the slot back to front and continues the outer loop.
// Must be called with the worker lock held.
func (w *Worker) pickReadySocket(anyInProgress *bool) (transport.Socket, int, error) {
	n := w.bank.Len()
	var lastErr error
	for attempt := 0; attempt < 2*n; attempt++ {
		sock, idx := w.bank.Pick()
		status, err := sock.Probe(time.Now().Add(TimeoutCheckPeriod))
		if err != nil {
			lastErr = err
			continue
		}
		switch status {
		case transport.Ready:
			return sock, idx, nil
		case transport.InProgress:
			*anyInProgress = true
		}
	}
	return nil, -1, lastErr
}

func (w *Worker) pastStopTime() bool {
	if w.stopTime.IsZero() {
		return false
	}
	return time.Now().After(w.stopTime)
}
