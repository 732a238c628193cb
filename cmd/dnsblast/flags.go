package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jroosing/dnsblast/internal/config"
	"github.com/jroosing/dnsblast/internal/dns"
)

// cliFlags holds every flag dnsblast accepts: the spec's core-engine table
// (-c -T -q -Q -t -l -n -S -v) plus the DNS-builder and ambient-stack knobs
// SPEC_FULL.md §2.4 adds on top.
type cliFlags struct {
	server string
	port   int
	mode   string

	clients        int
	threads        int
	maxOutstanding int
	maxQPS         float64
	timeout        time.Duration
	timeLimit      time.Duration
	maxPasses      int
	statsInterval  time.Duration
	verbose        bool

	inputFile string

	edns        bool
	dnssecOk    bool
	ednsOptions ednsOptionList
	tsig        string

	profile      string
	historyPath  string
	statusAddr   string
	statusAPIKey string
}

// ednsOptionList implements flag.Value so -x may be repeated for multiple
// raw EDNS options ("code:hex").
type ednsOptionList []string

func (l *ednsOptionList) String() string { return strings.Join(*l, ",") }

func (l *ednsOptionList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func parseFlags(args []string) (*cliFlags, *flag.FlagSet, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("dnsblast", flag.ContinueOnError)

	fs.StringVar(&f.server, "s", "", "target DNS server address")
	fs.IntVar(&f.port, "p", 0, "target DNS server port")
	fs.StringVar(&f.mode, "m", "", "transport mode: udp, tcp, or tls")

	fs.IntVar(&f.clients, "c", 0, "total client sockets")
	fs.IntVar(&f.threads, "T", 0, "worker thread count")
	fs.IntVar(&f.maxOutstanding, "q", 0, "global max outstanding queries")
	fs.Float64Var(&f.maxQPS, "Q", -1, "global max QPS (0 = unlimited)")
	fs.DurationVar(&f.timeout, "t", 0, "per-query timeout")
	fs.DurationVar(&f.timeLimit, "l", 0, "total time limit (0 = unbounded)")
	fs.IntVar(&f.maxPasses, "n", -1, "max passes over input")
	fs.DurationVar(&f.statsInterval, "S", 0, "interval-stats period (0 = off)")
	fs.BoolVar(&f.verbose, "v", false, "per-query verbose lines")

	fs.StringVar(&f.inputFile, "i", "", "input query file, or - for stdin")

	fs.BoolVar(&f.edns, "e", false, "enable EDNS")
	fs.BoolVar(&f.dnssecOk, "D", false, "set the DNSSEC OK bit")
	fs.Var(&f.ednsOptions, "x", "raw EDNS option as code:hex (repeatable)")
	fs.StringVar(&f.tsig, "y", "", "TSIG signing key as name:secret")

	fs.StringVar(&f.profile, "profile", "", "load a saved run profile (YAML)")
	fs.StringVar(&f.historyPath, "history", "", "persist a run-history row to this SQLite database")
	fs.StringVar(&f.statusAddr, "status-addr", "", "serve a live status/metrics API on host:port")
	fs.StringVar(&f.statusAPIKey, "status-api-key", "", "require this X-API-Key header on the status API")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return f, fs, nil
}

// explicitlySet reports which flags the user actually passed, so the
// overlay can distinguish "explicitly zero" from "not provided."
func explicitlySet(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// applyOverrides overlays explicitly-set CLI flags onto a loaded profile.
// CLI flags are always authoritative, per SPEC_FULL.md §3.2's precedence.
func applyOverrides(p *config.RunProfile, f *cliFlags, set map[string]bool) {
	if set["s"] {
		p.Server = f.server
	}
	if set["p"] {
		p.Port = f.port
	}
	if set["m"] {
		p.Mode = config.Mode(strings.ToLower(f.mode))
	}
	if set["c"] {
		p.Clients = f.clients
	}
	if set["T"] {
		p.Threads = f.threads
	}
	if set["q"] {
		p.MaxOutstanding = f.maxOutstanding
	}
	if set["Q"] {
		p.MaxQPS = f.maxQPS
	}
	if set["t"] {
		p.Timeout = f.timeout
	}
	if set["l"] {
		p.TimeLimit = f.timeLimit
	}
	if set["n"] {
		p.MaxPasses = f.maxPasses
	}
	if set["S"] {
		p.StatsInterval = f.statsInterval
	}
	if set["v"] {
		p.Verbose = f.verbose
	}
	if set["i"] {
		p.InputFile = f.inputFile
	}
	if set["e"] {
		p.EDNS = f.edns
	}
	if set["D"] {
		p.DNSSECOk = f.dnssecOk
	}
	if len(f.ednsOptions) > 0 {
		p.EDNSOptions = f.ednsOptions
	}
	if set["y"] {
		p.TSIGKey = f.tsig
	}
	if set["history"] {
		p.HistoryPath = f.historyPath
	}
	if set["status-addr"] {
		p.StatusAddr = f.statusAddr
	}
	if set["status-api-key"] {
		p.StatusAPIKey = f.statusAPIKey
	}

	// spec.md §6: -n defaults to 1 if no -l, else 0 (unbounded). That
	// cross-field default can only be resolved once both are known, so it
	// lives here rather than in config.normalizeProfile.
	if !set["n"] && !set["l"] {
		p.MaxPasses = 1
	} else if !set["n"] && set["l"] {
		p.MaxPasses = 0
	}
}

// buildOptions translates the DNS-builder knobs on a profile into
// dns.BuildOptions, parsing -y and -x along the way.
func buildOptions(p *config.RunProfile) (dns.BuildOptions, error) {
	opts := dns.BuildOptions{
		RecursionDesired: true,
		EDNS:             p.EDNS,
		DNSSECOk:         p.DNSSECOk,
	}

	for _, raw := range p.EDNSOptions {
		opt, err := parseEDNSOption(raw)
		if err != nil {
			return opts, err
		}
		opts.EDNSOptions = append(opts.EDNSOptions, opt)
	}

	if p.TSIGKey != "" {
		tsigCfg, err := parseTSIGKey(p.TSIGKey)
		if err != nil {
			return opts, err
		}
		opts.TSIG = tsigCfg
	}

	return opts, nil
}

func parseEDNSOption(raw string) (dns.EDNSOption, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return dns.EDNSOption{}, fmt.Errorf("invalid -x option %q: want code:hex", raw)
	}
	code, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return dns.EDNSOption{}, fmt.Errorf("invalid -x option code %q: %w", parts[0], err)
	}
	data, err := hex.DecodeString(parts[1])
	if err != nil {
		return dns.EDNSOption{}, fmt.Errorf("invalid -x option data %q: %w", parts[1], err)
	}
	return dns.EDNSOption{Code: uint16(code), Data: data}, nil
}

func parseTSIGKey(raw string) (*dns.TSIGConfig, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid -y key %q: want name:secret", raw)
	}
	return &dns.TSIGConfig{KeyName: parts[0], Secret: []byte(parts[1])}, nil
}
