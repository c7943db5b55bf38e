package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/drainwatch/internal/adapters/gateway"
	"github.com/okian/drainwatch/internal/adapters/repository"
	"github.com/okian/drainwatch/internal/config"
	"github.com/okian/drainwatch/internal/fixtures"
)

// fixtureEnv writes a small fleet into a temp dir and points the config at it.
func fixtureEnv(t *testing.T) (in, out string) {
	t.Helper()
	in = t.TempDir()
	out = filepath.Join(t.TempDir(), "out")
	fleet, expect := fixtures.Generate(fixtures.Config{Vessels: 4})
	if err := fixtures.WriteFleet(in, fleet, expect); err != nil {
		t.Fatalf("write fleet: %v", err)
	}
	t.Setenv("DRAINWATCH_READINGS_PATH", filepath.Join(in, fixtures.ReadingsFile))
	t.Setenv("DRAINWATCH_TICKETS_PATH", filepath.Join(in, fixtures.TicketsFile))
	t.Setenv("DRAINWATCH_VESSELS_PATH", filepath.Join(in, fixtures.VesselsFile))
	t.Setenv("DRAINWATCH_OUTPUT_DIR", out)
	t.Setenv("DRAINWATCH_LOG_LEVEL", "error")
	return in, out
}

func TestBatchRun(t *testing.T) {
	convey.Convey("Given configured input files", t, func() {
		in, out := fixtureEnv(t)

		convey.Convey("When the batch runs with the report on stdout", func() {
			var stdout bytes.Buffer
			err := run(context.Background(), nil, &stdout)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the JSON report is printed", func() {
				var rep struct {
					RunID   string   `json:"run_id"`
					Vessels []string `json:"vessels"`
					Matches []any    `json:"matches"`
				}
				convey.So(json.Unmarshal(stdout.Bytes(), &rep), convey.ShouldBeNil)
				convey.So(rep.RunID, convey.ShouldNotBeEmpty)
				convey.So(rep.Vessels, convey.ShouldHaveLength, 4)
				convey.So(rep.Matches, convey.ShouldHaveLength, 11)
			})

			convey.Convey("Then every output file is written", func() {
				for _, name := range []string{gateway.EventsFile, gateway.MatchesFile, gateway.DailyFile, gateway.ReportFile} {
					_, statErr := os.Stat(filepath.Join(out, name))
					convey.So(statErr, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When the report goes to a file and the store is sqlite", func() {
			reportPath := filepath.Join(in, "report.json")
			storePath := filepath.Join(in, "drainwatch.db")
			t.Setenv("DRAINWATCH_STORE_PATH", storePath)

			var stdout bytes.Buffer
			err := run(context.Background(), []string{"-report", reportPath}, &stdout)

			convey.Convey("Then the run is persisted and stdout stays empty", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout.Len(), convey.ShouldEqual, 0)
				_, statErr := os.Stat(reportPath)
				convey.So(statErr, convey.ShouldBeNil)

				store, err := repository.OpenSQLite(context.Background(), storePath)
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = store.Close() }()
				stats, err := store.Stats(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Tickets, convey.ShouldEqual, 11)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("DRAINWATCH_LAG", "0")
			err := run(context.Background(), nil, &bytes.Buffer{})

			convey.Convey("Then the run fails before any batch", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				_, statErr := os.Stat(out)
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an unknown flag is passed", func() {
			err := run(context.Background(), []string{"-bogus"}, &bytes.Buffer{})

			convey.Convey("Then flag parsing fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServeMode(t *testing.T) {
	convey.Convey("Given serve mode on an ephemeral port", t, func() {
		fixtureEnv(t)
		t.Setenv("DRAINWATCH_ADDR", "127.0.0.1:0")

		convey.Convey("When the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			err := run(ctx, []string{"-serve"}, &bytes.Buffer{})

			convey.Convey("Then the server shuts down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}
