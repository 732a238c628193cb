package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jroosing/dnsblast/internal/dns"
	"github.com/jroosing/dnsblast/internal/input"
	"github.com/jroosing/dnsblast/internal/pool"
)

// maxUDPPayload bounds the receive buffer recvBufPool hands out; large
// enough for any EDNS-sized UDP reply or one TCP length-prefixed frame.
const maxUDPPayload = 65535

// TimeoutCheckPeriod bounds the receiver's blocking wait for readability, as
// spec §4.4.f's TIMEOUT_CHECK_TIME.
const TimeoutCheckPeriod = 100 * time.Millisecond

// RecvBatchSize caps packets drained per receiver pass, spec §4.4.c.
const RecvBatchSize = 16

// Config carries the per-worker settings the sender and receiver consult;
// it is the already-split slice of the run-wide settings spec §4.6's split
// rules compute.
type Config struct {
	MaxOutstanding int
	MaxQPS         float64
	Timeout        time.Duration
	Verbose        bool
	BuildOptions   dns.BuildOptions
}

// Worker owns one query table, one socket bank, one stats block, and the
// lock+condition pair that guards the table, per spec §3's Worker-state.
// It is constructed before the start barrier and torn down only after both
// its sender and receiver goroutines have returned.
type Worker struct {
	ID     int
	cfg    Config
	source *input.Source
	bank   *Bank
	table  *QueryTable
	stats  *Stats
	logger *slog.Logger

	recvBufPool *pool.Pool[[]byte]

	mu   sync.Mutex
	cond *sync.Cond

	doneSending  bool
	doneSendTime time.Time
	lastSocket   int
	startBarrier *Barrier
	termCh       <-chan struct{}
	mainCh       chan<- workerDone
	startTime    time.Time
	stopTime     time.Time // zero means unbounded

	anyReceived atomic.Bool
}

type workerDone struct {
	workerID int
}

// NewWorker builds one worker's state. bank must already be dialed with
// cfg.MaxOutstanding-compatible socket count.
func NewWorker(id int, cfg Config, source *input.Source, bank *Bank, sampleCapacity int, logger *slog.Logger) *Worker {
	w := &Worker{
		ID:     id,
		cfg:    cfg,
		source: source,
		bank:   bank,
		table:  NewQueryTable(MaxSlots),
		stats:  NewStats(sampleCapacity),
		logger: logger,
		recvBufPool: pool.New(func() []byte {
			return make([]byte, maxUDPPayload)
		}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Run starts the sender and receiver goroutines and blocks until both
// return, per spec §4.5: "Spawns the sender and receiver... joins both
// threads."
func (w *Worker) Run(ctx context.Context, barrier *Barrier, termCh <-chan struct{}, startTime, stopTime time.Time) {
	w.startBarrier = barrier
	w.termCh = termCh
	w.startTime = startTime
	w.stopTime = stopTime

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.senderLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		w.receiverLoop(ctx)
	}()
	wg.Wait()
}

// Stop wakes any sender blocked on the concurrency gate so it can observe
// termination promptly, per spec §4.5.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

// Close releases the worker's sockets. Must run after Run returns.
func (w *Worker) Close() error {
	return w.bank.Close()
}

func (w *Worker) interrupted() bool {
	select {
	case <-w.termCh:
		return true
	default:
		return false
	}
}

func nowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}
