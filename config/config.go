// Package config parses the command-line surface into a validated Config
// object and hands it to the core. Parsing, validation, and defaulting live
// entirely outside the core packages, matching the spec's "external
// contract" treatment of the CLI.
package config

import (
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Mode selects which of the three operations the process runs.
type Mode string

const (
	ModeHuman     Mode = "human"
	ModeCollector Mode = "collector"
	ModeDaemon    Mode = "daemon"
)

const channelCount = 50

// Config is the fully parsed and validated configuration handed to the
// core. Channels is always sorted, de-duplicated, 1-indexed, and never
// empty (an empty --channels flag set expands to all 50).
type Config struct {
	Host     string
	Service  string
	Mode     Mode
	Channels []int

	Foreground bool
	Verbose    bool

	PollPeriod  time.Duration
	SinkFile    string
	MetricsAddr string // empty disables the optional /metrics listener

	LogFormat string
	LogLevel  string
}

// Parse parses args (excluding the program name) into a Config and
// validates it. It does not touch flag.CommandLine, so it is safe to call
// more than once, e.g. from tests.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("lm50client", flag.ContinueOnError)

	host := fs.String("host", "", "DNS name or address of the LM-50TCP+ (required)")
	service := fs.String("port", "502", "TCP port or well-known service name the device listens on")
	full := fs.Bool("full", false, `operation mode "human": print a human-readable report`)
	cacti := fs.Bool("cacti", false, `operation mode "collector": print a one-line monitoring-collector output`)
	daemon := fs.Bool("daemon", false, `operation mode "daemon": poll the device periodically in the background`)
	foreground := fs.Bool("foreground", false, "stay attached to the terminal (daemon mode only)")
	verbose := fs.Bool("verbose", false, "verbose logging; implies --foreground")
	pollPeriod := fs.Duration("poll-period", 30*time.Second, "daemon polling period")
	sinkFile := fs.String("sink-file", "/tmp/lm50client.csv", "time-series CSV output path (daemon mode only)")
	metricsAddr := fs.String("metrics-addr", "", "Prometheus /metrics listen address (daemon mode only); empty disables")
	logFormat := fs.String("log-format", "text", "log format: text|json")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")

	var channels []int
	fs.Var(&channelsFlag{channels: &channels}, "channels",
		"channel numbers to sample (1-50), space- or comma-separated; may be repeated; default is all channels")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:        *host,
		Service:     *service,
		Foreground:  *foreground || *verbose,
		Verbose:     *verbose,
		PollPeriod:  *pollPeriod,
		SinkFile:    *sinkFile,
		MetricsAddr: *metricsAddr,
		LogFormat:   *logFormat,
		LogLevel:    *logLevel,
	}

	switch {
	case *full && !*cacti && !*daemon:
		cfg.Mode = ModeHuman
	case *cacti && !*full && !*daemon:
		cfg.Mode = ModeCollector
	case *daemon && !*full && !*cacti:
		cfg.Mode = ModeDaemon
	case !*full && !*cacti && !*daemon:
		return nil, fmt.Errorf("one of --full, --cacti or --daemon must be set")
	default:
		return nil, fmt.Errorf("--full, --cacti and --daemon are mutually exclusive")
	}

	cfg.Channels = normalizeChannels(channels)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the semantic constraints Parse cannot enforce while
// flags are still being read.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("config: host must be specified")
	}
	if c.Service == "" {
		return fmt.Errorf("config: port must be specified")
	}
	switch c.Mode {
	case ModeHuman, ModeCollector, ModeDaemon:
	default:
		return fmt.Errorf("config: invalid mode %q", c.Mode)
	}
	for _, ch := range c.Channels {
		if ch < 1 || ch > channelCount {
			return fmt.Errorf("config: channels must be between 1 and %d, got %d", channelCount, ch)
		}
	}
	if c.Mode == ModeDaemon && c.PollPeriod < time.Second {
		return fmt.Errorf("config: poll period must be at least one second")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid log format %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	return nil
}

// normalizeChannels sorts, de-duplicates, and defaults an empty list to all
// channels, mirroring the historical CLI's "no channels given means all
// channels" rule.
func normalizeChannels(channels []int) []int {
	if len(channels) == 0 {
		all := make([]int, channelCount)
		for i := range all {
			all[i] = i + 1
		}
		return all
	}
	sort.Ints(channels)
	out := channels[:0:0]
	for i, ch := range channels {
		if i == 0 || ch != channels[i-1] {
			out = append(out, ch)
		}
	}
	return out
}

// channelsFlag implements flag.Value, accumulating channel numbers across
// repeated --channels occurrences.
type channelsFlag struct {
	channels *[]int
}

func (c *channelsFlag) String() string {
	if c.channels == nil || len(*c.channels) == 0 {
		return ""
	}
	parts := make([]string, len(*c.channels))
	for i, ch := range *c.channels {
		parts[i] = strconv.Itoa(ch)
	}
	return strings.Join(parts, " ")
}

func (c *channelsFlag) Set(s string) error {
	for _, field := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		n, err := strconv.Atoi(field)
		if err != nil {
			return fmt.Errorf("invalid channel %q: %w", field, err)
		}
		*c.channels = append(*c.channels, n)
	}
	return nil
}
