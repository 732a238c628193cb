package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jroosing/dnsblast/internal/config"
	"github.com/jroosing/dnsblast/internal/engine"
	"github.com/jroosing/dnsblast/internal/history"
	"github.com/jroosing/dnsblast/internal/input"
	"github.com/jroosing/dnsblast/internal/logging"
	"github.com/jroosing/dnsblast/internal/statusapi"
	"github.com/jroosing/dnsblast/internal/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dnsblast: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f, fs, err := parseFlags(args)
	if err != nil {
		return err
	}

	profilePath := config.ResolveProfilePath(f.profile)
	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	applyOverrides(profile, f, explicitlySet(fs))

	logger := logging.Configure(logging.Config{
		Level:            profile.Logging.Level,
		Structured:       profile.Logging.Structured,
		StructuredFormat: profile.Logging.StructuredFormat,
		IncludePID:       profile.Logging.IncludePID,
		ExtraFields:      profile.Logging.ExtraFields,
	})

	opts, err := buildOptions(profile)
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}

	source, err := input.Open(profile.InputFile)
	if err != nil {
		return fmt.Errorf("input invalid: %w", err)
	}

	var store *history.Store
	if profile.HistoryPath != "" {
		store, err = history.Open(profile.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open run-history database: %w", err)
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer cancel()

	var mode transport.Mode
	switch profile.Mode {
	case config.ModeUDP:
		mode = transport.ModeUDP
	case config.ModeTCP:
		mode = transport.ModeTCP
	case config.ModeTLS:
		mode = transport.ModeTLS
	}

	coord, err := engine.NewCoordinator(ctx, engine.RunSettings{
		Clients:        profile.Clients,
		Threads:        profile.Threads,
		MaxOutstanding: profile.MaxOutstanding,
		MaxQPS:         profile.MaxQPS,
		Timeout:        profile.Timeout,
		TimeLimit:      profile.TimeLimit,
		MaxPasses:      profile.MaxPasses,
		StatsInterval:  profile.StatsInterval,
		Verbose:        profile.Verbose,
		Dialer: transport.Dialer{
			Mode:   mode,
			Server: profile.Server,
			Port:   profile.Port,
		},
		BuildOptions: opts,
	}, source, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize run: %w", err)
	}

	var statusSrv *statusapi.Server
	if profile.StatusAddr != "" {
		statusSrv = statusapi.New(statusapi.Config{
			Addr:   profile.StatusAddr,
			APIKey: profile.StatusAPIKey,
			Store:  store,
		}, logger)
		statusSrv.SetStatsFunc(coord.Snapshot)
		go func() {
			if err := statusSrv.ListenAndServe(); err != nil {
				logger.Error("status API server error", "error", err)
			}
		}()
	}

	fmt.Printf("[Status] target=%s:%d mode=%s clients=%d threads=%d max_outstanding=%d max_qps=%.0f\n",
		profile.Server, profile.Port, profile.Mode, profile.Clients, profile.Threads, profile.MaxOutstanding, profile.MaxQPS)

	summary := coord.Run(ctx)

	if statusSrv != nil {
		_ = statusSrv.Shutdown(context.Background())
	}

	printStatistics(summary)

	if store != nil {
		if err := store.RecordRun(context.Background(), history.Run{
			Server:  profile.Server,
			Port:    profile.Port,
			Mode:    string(profile.Mode),
			Summary: summary,
		}); err != nil {
			logger.Warn("failed to persist run history", "error", err)
		}
	}

	return nil
}

func printStatistics(s engine.Summary) {
	fmt.Println("Statistics:")
	fmt.Printf("  queries sent:        %d\n", s.NumSent)
	fmt.Printf("  queries completed:   %d\n", s.NumCompleted)
	fmt.Printf("  queries lost:        %d\n", s.NumTimedOut)
	fmt.Printf("  queries interrupted: %d\n", s.NumInterrupted)
	fmt.Printf("  unexpected replies:  %d\n", s.NumUnexpected)
	fmt.Printf("  short replies:       %d\n", s.NumShort)
	fmt.Println("  rcode histogram:")
	for i, count := range s.RCodeCounts {
		if count == 0 {
			continue
		}
		fmt.Printf("    rcode %d: %d\n", i, count)
	}
	if s.NumSent > 0 {
		fmt.Printf("  avg request size:  %.1f bytes\n", float64(s.TotalRequestSize)/float64(s.NumSent))
	}
	if s.NumCompleted > 0 {
		fmt.Printf("  avg response size: %.1f bytes\n", float64(s.TotalResponseSize)/float64(s.NumCompleted))
	}
	fmt.Printf("  run time: %.3fs\n", s.RunDurationSeconds)
	if s.RunDurationSeconds > 0 {
		fmt.Printf("  qps: %.1f\n", float64(s.NumCompleted)/s.RunDurationSeconds)
	}
	fmt.Printf("  latency min/avg/max/stddev (us): %d/%.1f/%d/%.1f\n",
		s.MinLatencyMicros, s.AvgLatencyMicros, s.MaxLatencyMicros, s.StdDevMicros)

	for _, us := range s.Samples {
		fmt.Printf("%d.%06d\n", us/1_000_000, us%1_000_000)
	}
}
