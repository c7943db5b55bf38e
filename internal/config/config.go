// Package config defines process configuration and its validation.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load layers a YAML file and environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Input and output locations.
	ReadingsPath string `koanf:"readings_path"`
	TicketsPath  string `koanf:"tickets_path"`
	VesselsPath  string `koanf:"vessels_path"`
	OutputDir    string `koanf:"output_dir"`

	// StorePath selects the SQLite report store; empty keeps reports in memory.
	StorePath string `koanf:"store_path"`

	// WorkerCount sets the number of per-vessel workers. Zero means NumCPU.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory vessel task queue.
	QueueSize int `koanf:"queue_size"`

	// Detector parameters.
	Threshold             float64 `koanf:"threshold"`
	Lag                   int     `koanf:"lag"`
	MergeGapMinutes       float64 `koanf:"merge_gap_minutes"`
	SignificanceThreshold float64 `koanf:"significance_threshold"`

	// Reconciliation parameters.
	WindowHours float64 `koanf:"window_hours"`
	OutlierFrac float64 `koanf:"outlier_frac"`

	// Daily tolerance flags.
	VolumeTolerance float64 `koanf:"volume_tolerance"`
	PctTolerance    float64 `koanf:"pct_tolerance"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		ReadingsPath:          "data/readings.csv",
		TicketsPath:           "data/tickets.csv",
		VesselsPath:           "data/vessels.csv",
		OutputDir:             "out",
		WorkerCount:           runtime.NumCPU(),
		QueueSize:             1024,
		Threshold:             0.01,
		Lag:                   3,
		MergeGapMinutes:       1,
		SignificanceThreshold: 0.2,
		WindowHours:           24,
		OutlierFrac:           0.3,
		VolumeTolerance:       10,
		PctTolerance:          0,
	}
}

// MergeGap returns the detector merge gap as a duration.
func (c *Config) MergeGap() time.Duration {
	return time.Duration(c.MergeGapMinutes * float64(time.Minute))
}

// Validate rejects parameters the batch cannot run with.
func (c *Config) Validate() error {
	var problems []string
	check := func(bad bool, msg string) {
		if bad {
			problems = append(problems, msg)
		}
	}

	check(strings.TrimSpace(c.Addr) == "", "addr must not be empty")
	check(c.ReadingsPath == "", "readings_path must not be empty")
	check(!nonNegative(c.Threshold), "threshold must be a finite number >= 0")
	check(c.Lag < 1, "lag must be >= 1")
	check(!nonNegative(c.MergeGapMinutes) || c.MergeGapMinutes >= maxMinutes, "merge_gap_minutes must be >= 0 and fit a duration")
	check(!nonNegative(c.SignificanceThreshold), "significance_threshold must be a finite number >= 0")
	check(!nonNegative(c.WindowHours) || c.WindowHours >= maxHours, "window_hours must be >= 0 and fit a duration")
	check(!nonNegative(c.OutlierFrac), "outlier_frac must be a finite number >= 0")
	check(!nonNegative(c.VolumeTolerance), "volume_tolerance must be a finite number >= 0")
	check(!nonNegative(c.PctTolerance), "pct_tolerance must be a finite number >= 0")
	check(c.WorkerCount < 0, "worker_count must be >= 0")
	check(c.QueueSize < 1, "queue_size must be >= 1")

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		problems = append(problems, "log_format must be text or json")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Largest window and merge gap representable as a time.Duration.
var (
	maxHours   = float64(math.MaxInt64) / float64(time.Hour)
	maxMinutes = float64(math.MaxInt64) / float64(time.Minute)
)

// nonNegative reports whether v is finite and >= 0. NaN fails.
func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
