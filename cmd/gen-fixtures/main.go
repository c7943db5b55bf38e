package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/drainwatch/internal/fixtures"
	"github.com/okian/drainwatch/pkg/logger"
)

func main() {
	var (
		out     = flag.String("out", "fixtures", "Directory to write the fleet CSVs to")
		vessels = flag.Int("vessels", fixtures.DefaultVessels, "Number of vessels")
		days    = flag.Int("days", fixtures.DefaultDays, "Days of minute readings, at least 3")
		seed    = flag.Uint64("seed", fixtures.DefaultSeed, "Generator seed")
		baseURL = flag.String("url", "", "Base URL of a server reading from -out; empty skips verification")
		timeout = flag.Duration("timeout", fixtures.DefaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every mismatching ticket")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fixtures.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err := fixtures.Run(ctx, fixtures.Config{
		BaseURL:   *baseURL,
		Vessels:   *vessels,
		Days:      *days,
		Seed:      *seed,
		OutputDir: *out,
		Timeout:   *timeout,
		Verbose:   *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "fixture run failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
