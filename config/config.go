// Package config centralises runtime configuration for the simulation
// entry points: defaults, YAML file overlays and programmatic options.
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/gamerules"
)

// RulesSettings configures the session game rules.
type RulesSettings struct {
	ExponentialPriceChanges bool   `yaml:"exponential_price_changes"`
	ArtisanalDemand         string `yaml:"artisanal_demand"`
}

// ClockSettings configures the simulation clock. An empty interval list
// keeps the built-in speed table.
type ClockSettings struct {
	IntervalsMS []int64 `yaml:"intervals_ms"`
}

// SnapshotSettings configures the optional save store. An empty path
// disables persistence.
type SnapshotSettings struct {
	Path string `yaml:"path"`
}

// TelemetrySettings toggles metric instrumentation.
type TelemetrySettings struct {
	Enabled bool `yaml:"enabled"`
}

// ParallelismSettings forces sequential execution of the tick fan-outs,
// mainly for determinism comparisons.
type ParallelismSettings struct {
	Sequential bool `yaml:"sequential"`
}

// Settings is the configuration tree loaded from defaults and overlays.
type Settings struct {
	Rules       RulesSettings       `yaml:"rules"`
	Clock       ClockSettings       `yaml:"clock"`
	Snapshot    SnapshotSettings    `yaml:"snapshot"`
	Telemetry   TelemetrySettings   `yaml:"telemetry"`
	Parallelism ParallelismSettings `yaml:"parallelism"`
}

// Default returns the default configuration: linear prices, no artisanal
// demand accounting, built-in clock table, no persistence.
func Default() Settings {
	return Settings{
		Rules: RulesSettings{
			ExponentialPriceChanges: false,
			ArtisanalDemand:         gamerules.DemandNone.String(),
		},
		Clock:       ClockSettings{IntervalsMS: nil},
		Snapshot:    SnapshotSettings{Path: ""},
		Telemetry:   TelemetrySettings{Enabled: false},
		Parallelism: ParallelismSettings{Sequential: false},
	}
}

// FromFile overlays a YAML file onto the defaults. A missing file is not
// an error; the defaults stand.
func FromFile(path string) (Settings, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errs.New("config", errs.CodeInvalid,
			errs.WithMessage("cannot read config file"),
			errs.WithField("path", path),
			errs.WithCause(err))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), errs.New("config", errs.CodeInvalid,
			errs.WithMessage("cannot parse config file"),
			errs.WithField("path", path),
			errs.WithCause(err))
	}
	return cfg, nil
}

// GameRules builds the game rules the settings describe.
func (s Settings) GameRules() *gamerules.Rules {
	return gamerules.New(s.Rules.ExponentialPriceChanges,
		gamerules.ParseDemandCategory(s.Rules.ArtisanalDemand))
}

// ClockIntervals converts the configured speed table to durations, or nil
// when the built-in table should be used.
func (s Settings) ClockIntervals() []time.Duration {
	if len(s.Clock.IntervalsMS) == 0 {
		return nil
	}
	out := make([]time.Duration, 0, len(s.Clock.IntervalsMS))
	for _, ms := range s.Clock.IntervalsMS {
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out
}

// Option mutates Settings when applied via Apply.
type Option func(*Settings)

// Apply applies the provided Option set to a copy of the base Settings.
func Apply(base Settings, opts ...Option) Settings {
	cfg := base
	cfg.Clock.IntervalsMS = append([]int64(nil), base.Clock.IntervalsMS...)
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithExponentialPriceChanges selects the exponential price curve.
func WithExponentialPriceChanges(on bool) Option {
	return func(s *Settings) { s.Rules.ExponentialPriceChanges = on }
}

// WithArtisanalDemand sets the artisanal demand bucket spelling.
func WithArtisanalDemand(category string) Option {
	return func(s *Settings) { s.Rules.ArtisanalDemand = category }
}

// WithSnapshotPath enables the save store at the given path.
func WithSnapshotPath(path string) Option {
	return func(s *Settings) { s.Snapshot.Path = path }
}

// WithTelemetry toggles metric instrumentation.
func WithTelemetry(enabled bool) Option {
	return func(s *Settings) { s.Telemetry.Enabled = enabled }
}

// WithSequential forces sequential tick fan-outs.
func WithSequential(on bool) Option {
	return func(s *Settings) { s.Parallelism.Sequential = on }
}

// WithClockIntervals replaces the clock speed table.
func WithClockIntervals(intervalsMS []int64) Option {
	return func(s *Settings) {
		s.Clock.IntervalsMS = append([]int64(nil), intervalsMS...)
	}
}
