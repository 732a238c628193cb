// Package config loads named benchmark scenarios ("run profiles") for
// dnsblast using Viper. A profile captures everything a repeated load-test
// invocation needs beyond retyping a dozen flags: target, protocol,
// concurrency/QPS ceilings, and the ambient logging/history/status knobs.
//
// Environment variables use the DNSBLAST_ prefix and underscore-separated
// keys:
//   - DNSBLAST_TARGET_SERVER  -> target.server
//   - DNSBLAST_LOAD_MAX_QPS   -> load.max_qps
//
// Command-line flags are the authoritative surface: whatever a flag sets
// explicitly always wins over a loaded profile, which in turn wins over
// environment variables and hardcoded defaults.
package config

import (
	"os"
	"strings"
	"time"
)

// Mode is the transport protocol a run profile targets.
type Mode string

const (
	ModeUDP Mode = "udp"
	ModeTCP Mode = "tcp"
	ModeTLS Mode = "tls"
)

// LoggingConfig mirrors internal/logging.Config's shape so a profile can
// carry logging preferences the same way the rest of the run is configured.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"`
}

// RunProfile is the full set of knobs a dnsblast invocation needs: the
// spec's core-engine CLI surface plus the DNS-builder and ambient-stack
// additions (TSIG, history, status API).
type RunProfile struct {
	Server string `yaml:"server"     mapstructure:"server"`
	Port   int    `yaml:"port"       mapstructure:"port"`
	Mode   Mode   `yaml:"mode"       mapstructure:"mode"`

	Clients        int           `yaml:"clients"         mapstructure:"clients"`
	Threads        int           `yaml:"threads"         mapstructure:"threads"`
	MaxOutstanding int           `yaml:"max_outstanding" mapstructure:"max_outstanding"`
	MaxQPS         float64       `yaml:"max_qps"         mapstructure:"max_qps"`
	Timeout        time.Duration `yaml:"timeout"         mapstructure:"timeout"`
	TimeLimit      time.Duration `yaml:"time_limit"      mapstructure:"time_limit"`
	MaxPasses      int           `yaml:"max_passes"      mapstructure:"max_passes"`
	StatsInterval  time.Duration `yaml:"stats_interval"  mapstructure:"stats_interval"`
	Verbose        bool          `yaml:"verbose"         mapstructure:"verbose"`

	InputFile string `yaml:"input_file" mapstructure:"input_file"`

	EDNS        bool     `yaml:"edns"         mapstructure:"edns"`
	DNSSECOk    bool     `yaml:"dnssec_ok"    mapstructure:"dnssec_ok"`
	EDNSOptions []string `yaml:"edns_options" mapstructure:"edns_options"` // "code:hex" pairs
	TSIGKey     string   `yaml:"tsig_key"     mapstructure:"tsig_key"`     // "name:secret"

	HistoryPath  string `yaml:"history_path"   mapstructure:"history_path"`
	StatusAddr   string `yaml:"status_addr"    mapstructure:"status_addr"`
	StatusAPIKey string `yaml:"status_api_key" mapstructure:"status_api_key"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ResolveProfilePath determines the profile file path from a flag value or
// the DNSBLAST_PROFILE environment variable, mirroring the teacher's
// ResolveConfigPath precedence.
func ResolveProfilePath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("DNSBLAST_PROFILE")); v != "" {
		return v
	}
	return ""
}
