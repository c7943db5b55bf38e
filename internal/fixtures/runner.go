package fixtures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/drainwatch/pkg/logger"
)

// ErrVerification is returned when reported statuses differ from the planted ones.
var ErrVerification = errors.New("fixture verification failed")

// Run generates a fleet, writes it to cfg.OutputDir and, when cfg.BaseURL is
// set, asks the server to run over it and checks every planted ticket. The
// server must be configured to read from cfg.OutputDir.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg.Normalize()
	log := logger.Get().Named("fixtures")
	stats := Stats{StartTime: time.Now()}

	fleet, expect := Generate(cfg)
	stats.Vessels = len(fleet.Vessels)
	stats.Readings = len(fleet.Readings)
	stats.Tickets = len(fleet.Tickets)

	if err := WriteFleet(cfg.OutputDir, fleet, expect); err != nil {
		return stats, fmt.Errorf("write fleet: %w", err)
	}
	log.Info(ctx, "fleet written",
		logger.String("dir", cfg.OutputDir),
		logger.Int("vessels", stats.Vessels),
		logger.Int("readings", stats.Readings),
		logger.Int("tickets", stats.Tickets),
	)

	if cfg.BaseURL == "" {
		stats.Duration = time.Since(stats.StartTime)
		return stats, nil
	}

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	if err := client.TriggerRun(ctx); err != nil {
		return stats, fmt.Errorf("trigger run: %w", err)
	}
	results, err := client.Matches(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch matches: %w", err)
	}

	mismatches := Verify(expect, results)
	stats.Checked = len(expect)
	stats.Mismatched = len(mismatches)
	stats.Duration = time.Since(stats.StartTime)

	if cfg.Verbose {
		for _, m := range mismatches {
			log.Warn(ctx, "status mismatch", logger.String("detail", m.String()))
		}
	}
	log.Info(ctx, "verification finished",
		logger.Int("checked", stats.Checked),
		logger.Int("mismatched", stats.Mismatched),
		logger.Duration("duration", stats.Duration),
	)
	if len(mismatches) > 0 {
		return stats, fmt.Errorf("%w: %d of %d tickets, first: %s", ErrVerification, len(mismatches), len(expect), mismatches[0])
	}
	return stats, nil
}
