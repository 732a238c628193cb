package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// initViper sets up the profile loader with defaults, env binding, and an
// optional YAML overlay file.
func initViper(profilePath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DNSBLAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if profilePath != "" {
		// Profile values are applied as overrides so they rank above
		// DNSBLAST_* environment variables, which viper would otherwise
		// place above a config file.
		fv := viper.New()
		fv.SetConfigFile(profilePath)
		if err := fv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read profile file: %w", err)
		}
		for _, key := range fv.AllKeys() {
			v.Set(key, fv.Get(key))
		}
	}

	return v, nil
}

// setDefaults configures every default from spec.md's CLI table, plus the
// ambient-stack additions.
func setDefaults(v *viper.Viper) {
	v.SetDefault("target.server", "127.0.0.1")
	v.SetDefault("target.port", 53)
	v.SetDefault("target.mode", "udp")

	v.SetDefault("load.clients", 1)
	v.SetDefault("load.threads", 1)
	v.SetDefault("load.max_outstanding", 100)
	v.SetDefault("load.max_qps", 0.0)
	v.SetDefault("load.timeout", "5s")
	v.SetDefault("load.time_limit", "0s")
	v.SetDefault("load.max_passes", 1)
	v.SetDefault("load.stats_interval", "0s")
	v.SetDefault("load.verbose", false)

	v.SetDefault("input.file", "")

	v.SetDefault("dns.edns", false)
	v.SetDefault("dns.dnssec_ok", false)
	v.SetDefault("dns.edns_options", []string{})
	v.SetDefault("dns.tsig_key", "")

	v.SetDefault("history.path", "")
	v.SetDefault("status.addr", "")
	v.SetDefault("status.api_key", "")

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})
}

// LoadProfile loads a RunProfile from defaults, environment variables, and
// an optional YAML overlay, in that ascending order of precedence. The CLI
// layer (cmd/dnsblast) is responsible for overlaying explicitly-set flags
// on top of the returned profile, since flags always win.
func LoadProfile(profilePath string) (*RunProfile, error) {
	v, err := initViper(profilePath)
	if err != nil {
		return nil, err
	}

	p := &RunProfile{
		Server: v.GetString("target.server"),
		Port:   v.GetInt("target.port"),
		Mode:   Mode(strings.ToLower(v.GetString("target.mode"))),

		Clients:        v.GetInt("load.clients"),
		Threads:        v.GetInt("load.threads"),
		MaxOutstanding: v.GetInt("load.max_outstanding"),
		MaxQPS:         v.GetFloat64("load.max_qps"),
		Timeout:        v.GetDuration("load.timeout"),
		TimeLimit:      v.GetDuration("load.time_limit"),
		MaxPasses:      v.GetInt("load.max_passes"),
		StatsInterval:  v.GetDuration("load.stats_interval"),
		Verbose:        v.GetBool("load.verbose"),

		InputFile: v.GetString("input.file"),

		EDNS:        v.GetBool("dns.edns"),
		DNSSECOk:    v.GetBool("dns.dnssec_ok"),
		EDNSOptions: v.GetStringSlice("dns.edns_options"),
		TSIGKey:     v.GetString("dns.tsig_key"),

		HistoryPath:  v.GetString("history.path"),
		StatusAddr:   v.GetString("status.addr"),
		StatusAPIKey: v.GetString("status.api_key"),

		Logging: LoggingConfig{
			Level:            strings.ToUpper(v.GetString("logging.level")),
			Structured:       v.GetBool("logging.structured"),
			StructuredFormat: v.GetString("logging.structured_format"),
			IncludePID:       v.GetBool("logging.include_pid"),
			ExtraFields:      v.GetStringMapString("logging.extra_fields"),
		},
	}

	if err := normalizeProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

// normalizeProfile validates and fills in cross-field defaults that can't
// be expressed as a single viper default (e.g. mode normalization).
func normalizeProfile(p *RunProfile) error {
	switch p.Mode {
	case ModeUDP, ModeTCP, ModeTLS:
	case "":
		p.Mode = ModeUDP
	default:
		return fmt.Errorf("target.mode must be one of udp, tcp, tls (got %q)", p.Mode)
	}

	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("target.port must be 1..65535")
	}
	if p.Clients <= 0 {
		p.Clients = 1
	}
	if p.Threads <= 0 {
		p.Threads = 1
	}
	if p.MaxOutstanding <= 0 {
		p.MaxOutstanding = 100
	}

	if p.Logging.Level == "" {
		p.Logging.Level = "INFO"
	}
	if p.Logging.StructuredFormat == "" {
		p.Logging.StructuredFormat = "json"
	}
	if p.Logging.ExtraFields == nil {
		p.Logging.ExtraFields = map[string]string{}
	}
	return nil
}
