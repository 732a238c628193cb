package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jroosing/dnsblast/internal/dns"
	"github.com/jroosing/dnsblast/internal/input"
	"github.com/jroosing/dnsblast/internal/transport"
)

// RunSettings is the global, unsplit configuration spec §4.6 takes as input
// before computing each worker's share.
type RunSettings struct {
	Clients        int
	Threads        int
	MaxOutstanding int
	MaxQPS         float64
	Timeout        time.Duration
	TimeLimit      time.Duration // zero means unbounded
	MaxPasses      int
	StatsInterval  time.Duration // zero means off
	Verbose        bool

	Dialer       transport.Dialer
	BuildOptions dns.BuildOptions
}

// Split applies spec §4.6's split rules and returns the resolved thread
// count plus each worker's share of clients, max_outstanding, and max_qps.
func Split(s RunSettings) (threads int, perWorkerClients []int, perWorkerOutstanding []int, perWorkerMaxQPS []float64) {
	threads = s.Threads
	if threads <= 0 {
		threads = 1
	}
	if s.MaxQPS > 0 && float64(threads) > s.MaxQPS {
		threads = int(s.MaxQPS)
		if threads < 1 {
			threads = 1
		}
	}
	if threads > s.Clients {
		threads = s.Clients
	}
	if threads < 1 {
		threads = 1
	}

	perWorkerClients = splitResource(s.Clients, threads, 256)
	perWorkerOutstanding = splitResource(s.MaxOutstanding, threads, 65536)
	perWorkerMaxQPS = splitResourceFloat(s.MaxQPS, threads)
	return threads, perWorkerClients, perWorkerOutstanding, perWorkerMaxQPS
}

// splitResource divides total across n workers, giving one extra to the
// first (total mod n) workers, capped per spec §4.6.
func splitResource(total, n, cap int) []int {
	out := make([]int, n)
	base := total / n
	extra := total % n
	for i := 0; i < n; i++ {
		v := base
		if i < extra {
			v++
		}
		if v > cap {
			v = cap
		}
		if v < 1 {
			v = 1
		}
		out[i] = v
	}
	return out
}

// splitResourceFloat applies the same per_thread(R, threads, offset) rule as
// splitResource to a fractional resource (max_qps): the integral part of
// total is divided like an integer resource (base plus one extra unit to the
// first (whole mod n) workers), and any fractional remainder is spread
// evenly across every worker so the shares still sum to total. total<=0
// means unbounded, so every worker gets 0.
func splitResourceFloat(total float64, n int) []float64 {
	out := make([]float64, n)
	if total <= 0 {
		return out
	}
	whole := int(total)
	fraction := total - float64(whole)
	base := whole / n
	extra := whole % n
	for i := 0; i < n; i++ {
		v := float64(base) + fraction/float64(n)
		if i < extra {
			v++
		}
		out[i] = v
	}
	return out
}

// Coordinator is C6: it spawns workers according to the split rules, opens
// the start barrier, watches for deadline/interrupt/completion, and
// aggregates + reports once every worker has joined.
type Coordinator struct {
	settings RunSettings
	source   *input.Source
	logger   *slog.Logger

	workers []*Worker
	barrier *Barrier
	termCh  chan struct{}
	termOne sync.Once

	StartTime time.Time
	StopTime  time.Time
	Interrupted bool
}

// NewCoordinator builds the worker set per the split rules but does not
// start them.
func NewCoordinator(ctx context.Context, settings RunSettings, source *input.Source, logger *slog.Logger) (*Coordinator, error) {
	threads, clients, outstanding, maxQPS := Split(settings)
	source.SetMaxPasses(settings.MaxPasses)

	c := &Coordinator{
		settings: settings,
		source:   source,
		logger:   logger,
		barrier:  NewBarrier(),
		termCh:   make(chan struct{}),
	}

	for i := 0; i < threads; i++ {
		bank, err := OpenBank(ctx, settings.Dialer, clients[i])
		if err != nil {
			c.closeWorkers()
			return nil, err
		}
		cfg := Config{
			MaxOutstanding: outstanding[i],
			MaxQPS:         maxQPS[i],
			Timeout:        settings.Timeout,
			Verbose:        settings.Verbose,
			BuildOptions:   settings.BuildOptions,
		}
		w := NewWorker(i, cfg, source, bank, DefaultSampleCapacity, logger)
		c.workers = append(c.workers, w)
	}
	return c, nil
}

func (c *Coordinator) closeWorkers() {
	for _, w := range c.workers {
		_ = w.Close()
	}
}

// Run releases the start barrier, arms SIGINT handling, and blocks until the
// deadline, full completion, or an interrupt — then signals shutdown,
// joins, and returns the aggregated summary.
func (c *Coordinator) Run(ctx context.Context) Summary {
	c.StartTime = time.Now()
	if c.settings.TimeLimit > 0 {
		c.StopTime = c.StartTime.Add(c.settings.TimeLimit)
	}
	c.source.SetDoneChannel(c.termCh)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	mainCh := make(chan workerDone, len(c.workers))
	for _, w := range c.workers {
		w.mainCh = mainCh
	}

	var wg sync.WaitGroup
	for _, w := range c.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Run(ctx, c.barrier, c.termCh, c.StartTime, c.StopTime)
		}(w)
	}
	c.barrier.Open()

	doneCount := 0
	deadlineCh := timeLimitChannel(c.StopTime)
	statsTicker := intervalTicker(c.settings.StatsInterval)
	if statsTicker != nil {
		defer statsTicker.Stop()
	}

loop:
	for doneCount < len(c.workers) {
		var tickCh <-chan time.Time
		if statsTicker != nil {
			tickCh = statsTicker.C
		}
		select {
		case <-mainCh:
			doneCount++
			if doneCount == len(c.workers) {
				break loop
			}
		case <-deadlineCh:
			break loop
		case <-sigCh:
			c.Interrupted = true
			break loop
		case <-tickCh:
			c.printIntervalStats()
		}
	}

	c.signalTermination()
	for _, w := range c.workers {
		w.Stop()
	}
	wg.Wait()
	c.closeWorkers()

	runDuration := time.Since(c.StartTime).Seconds()
	return Aggregate(c.statsSlice(), runDuration)
}

func (c *Coordinator) signalTermination() {
	c.termOne.Do(func() { close(c.termCh) })
}

func (c *Coordinator) statsSlice() []*Stats {
	out := make([]*Stats, len(c.workers))
	for i, w := range c.workers {
		out[i] = w.stats
	}
	return out
}

// Snapshot aggregates every worker's current counters without waiting for
// joins, for the interval-stats ticker and the optional live status API.
// Unlike the final Aggregate call after Run returns, this reads counters
// that a receiver goroutine may still be mutating concurrently; the 64-bit
// counter fields are written by a single goroutine each and read here only
// for display, so a torn read is, at worst, one stale counter in one log
// line or API response.
func (c *Coordinator) Snapshot() Summary {
	return Aggregate(c.statsSlice(), time.Since(c.StartTime).Seconds())
}

// printIntervalStats writes one "HH.uuuuuu: Q <qps>" line to stdout per spec
// §6: elapsed run time as a <sec>.<microsec> pair, followed by the QPS
// observed since the run started.
func (c *Coordinator) printIntervalStats() {
	snap := c.Snapshot()
	elapsed := time.Since(c.StartTime)
	sec := elapsed / time.Second
	usec := (elapsed % time.Second) / time.Microsecond
	qps := 0.0
	if snap.RunDurationSeconds > 0 {
		qps = float64(snap.NumCompleted) / snap.RunDurationSeconds
	}
	fmt.Printf("%02d.%06d: Q %.1f\n", sec, usec, qps)
}

func timeLimitChannel(stop time.Time) <-chan time.Time {
	if stop.IsZero() {
		return nil
	}
	return time.After(time.Until(stop))
}

func intervalTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		return nil
	}
	return time.NewTicker(d)
}
