// Package config loads combinator policies and logging settings from a YAML
// file, with environment overrides.
//
// A policy names a combinator kind and its limits so that time limits and
// throttles can be tuned without code changes:
//
//	log_level: info
//	log_format: json
//	metrics:
//	  namespace: checkout
//	policies:
//	  load-page:
//	    kind: parallel
//	    time_limit: 800ms
//	    time_option: try_optionals_if_time_remains
//	    throttle: 4
//	  read-user:
//	    kind: fallback
//	    time_limit: 200ms
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Swind/go-parseq/core"
)

const (
	envLogLevel         = "PARSEQ_LOG_LEVEL"
	envLogFormat        = "PARSEQ_LOG_FORMAT"
	envMetricsNamespace = "PARSEQ_METRICS_NAMESPACE"

	FormatJSON = "json"
	FormatText = "text"
)

// Combinator kinds accepted in Policy.Kind.
const (
	KindSequence = "sequence"
	KindParallel = "parallel"
	KindRace     = "race"
	KindFallback = "fallback"
)

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Policy describes one configured combinator.
type Policy struct {
	Kind       string          `yaml:"kind"`
	TimeLimit  time.Duration   `yaml:"time_limit,omitempty"`
	TimeOption core.TimeOption `yaml:"time_option,omitempty"`
	Throttle   int             `yaml:"throttle,omitempty"`
}

// File models the YAML configuration file.
type File struct {
	LogLevel  string            `yaml:"log_level"`
	LogFormat string            `yaml:"log_format"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	Policies  map[string]Policy `yaml:"policies"`
}

// Default returns the configuration used when no file is present.
func Default() File {
	return File{
		LogLevel:  "info",
		LogFormat: FormatJSON,
		Metrics:   MetricsConfig{Namespace: core.Namespace},
		Policies:  map[string]Policy{},
	}
}

// Load reads path, applies environment overrides and validates the result.
// A missing file yields the defaults.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f := Default()
			f.applyEnv()
			return f, f.Validate()
		}
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes YAML on top of the defaults, applies environment overrides
// and validates the result.
func Parse(data []byte) (File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, err
	}
	if f.Policies == nil {
		f.Policies = map[string]Policy{}
	}
	f.applyEnv()
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func (f *File) applyEnv() {
	if v := os.Getenv(envLogLevel); v != "" {
		f.LogLevel = v
	}
	if v := os.Getenv(envLogFormat); v != "" {
		f.LogFormat = v
	}
	if v := os.Getenv(envMetricsNamespace); v != "" {
		f.Metrics.Namespace = v
	}
}

// Validate checks the logging settings and every policy.
func (f File) Validate() error {
	switch strings.ToLower(f.LogFormat) {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("config: unknown log format %q", f.LogFormat)
	}

	names := make([]string, 0, len(f.Policies))
	for name := range f.Policies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := f.Policies[name].Validate(); err != nil {
			return fmt.Errorf("config: policy %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks the policy fields against its kind.
func (p Policy) Validate() error {
	switch p.Kind {
	case KindSequence, KindParallel, KindRace, KindFallback:
	default:
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	if p.TimeLimit < 0 {
		return fmt.Errorf("negative time_limit %s", p.TimeLimit)
	}
	if p.Throttle < 0 {
		return fmt.Errorf("negative throttle %d", p.Throttle)
	}
	if p.Throttle > 0 && (p.Kind == KindSequence || p.Kind == KindFallback) {
		return fmt.Errorf("throttle is not supported by %s", p.Kind)
	}
	if p.TimeOption != core.TimeOptionUnset && p.Kind != KindParallel {
		return fmt.Errorf("time_option is only supported by %s", KindParallel)
	}
	return nil
}

// Policy returns the named policy.
func (f File) Policy(name string) (Policy, error) {
	p, ok := f.Policies[name]
	if !ok {
		return Policy{}, fmt.Errorf("config: unknown policy %q", name)
	}
	return p, nil
}

// ParallelSpec converts the policy into a core.ParallelSpec.
func (p Policy) ParallelSpec(optionals []core.Requestor, cfg *core.Config) core.ParallelSpec {
	return core.ParallelSpec{
		Optionals:  optionals,
		TimeLimit:  p.TimeLimit,
		TimeOption: p.TimeOption,
		Throttle:   p.Throttle,
		Config:     cfg,
	}
}

// SequenceSpec converts the policy into a core.SequenceSpec.
func (p Policy) SequenceSpec(cfg *core.Config) core.SequenceSpec {
	return core.SequenceSpec{TimeLimit: p.TimeLimit, Config: cfg}
}

// RaceSpec converts the policy into a core.RaceSpec.
func (p Policy) RaceSpec(cfg *core.Config) core.RaceSpec {
	return core.RaceSpec{TimeLimit: p.TimeLimit, Throttle: p.Throttle, Config: cfg}
}

// FallbackSpec converts the policy into a core.FallbackSpec.
func (p Policy) FallbackSpec(cfg *core.Config) core.FallbackSpec {
	return core.FallbackSpec{TimeLimit: p.TimeLimit, Config: cfg}
}

// Build creates the combinator described by the policy over requestors.
// For a parallel policy every requestor is a necessity; use ParallelSpec
// directly to add optionals.
func (p Policy) Build(requestors []core.Requestor, cfg *core.Config) (core.Requestor, error) {
	switch p.Kind {
	case KindSequence:
		return core.Sequence(requestors, p.SequenceSpec(cfg))
	case KindParallel:
		return core.Parallel(requestors, p.ParallelSpec(nil, cfg))
	case KindRace:
		return core.Race(requestors, p.RaceSpec(cfg))
	case KindFallback:
		return core.Fallback(requestors, p.FallbackSpec(cfg))
	default:
		return nil, fmt.Errorf("config: unknown kind %q", p.Kind)
	}
}

// Build creates the combinator of the named policy.
func (f File) Build(name string, requestors []core.Requestor, cfg *core.Config) (core.Requestor, error) {
	p, err := f.Policy(name)
	if err != nil {
		return nil, err
	}
	r, err := p.Build(requestors, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: build %q: %w", name, err)
	}
	return r, nil
}

// Level returns the configured log level.
func (f File) Level() slog.Level {
	return ParseLogLevel(f.LogLevel)
}

// Logger builds a core.Logger writing to w with the configured level and
// format.
func (f File) Logger(w io.Writer) core.Logger {
	return core.NewSlogLogger(NewLogger(w, f.Level(), f.LogFormat))
}

// ParseLogLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured logger writing to w at level. format is
// "json" (default) or "text".
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, FormatText) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
