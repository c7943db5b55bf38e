package gateway

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Output file names.
const (
	EventsFile  = "drain_events.csv"
	MatchesFile = "ticket_matches.csv"
	DailyFile   = "daily_summary.csv"
	ReportFile  = "report.json"
)

const dayLayout = "2006-01-02"

var (
	eventsHeader  = []string{"cauldron_id", "start_time", "end_time", "volume_lost", "significant"}
	matchesHeader = []string{
		"ticket_id", "cauldron_id", "date", "amount_collected", "status",
		"matched_count", "matched_volume", "matched_significant", "median_amount",
		"duplicate_count", "is_duplicate", "is_outlier", "matched_event_starts",
	}
	dailyHeader = []string{
		"cauldron_id", "date", "end_volume", "ticket_volume", "drain_volume",
		"mismatch", "mismatch_pct", "capacity", "fill_pct",
		"over_volume_tolerance", "over_pct_tolerance",
	}
)

// WriteFiles writes the three CSV outputs into dir, creating it if needed.
func WriteFiles(ctx context.Context, dir string, events []model.DrainEvent, matches []model.MatchResult, daily []model.DailyAggregate) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, dir, err)
	}
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{EventsFile, func(w io.Writer) error { return WriteEvents(w, events) }},
		{MatchesFile, func(w io.Writer) error { return WriteMatches(w, matches) }},
		{DailyFile, func(w io.Writer) error { return WriteDaily(w, daily) }},
	}
	for _, wr := range writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, wr.name), wr.write); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes v as indented JSON.
func WriteReport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: report: %w", ErrWrite, err)
	}
	return nil
}

// WriteReportFile writes v as indented JSON to dir/report.json.
func WriteReportFile(dir string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, dir, err)
	}
	return writeFile(filepath.Join(dir, ReportFile), func(w io.Writer) error { return WriteReport(w, v) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return nil
}

// WriteEvents writes drain events as CSV.
func WriteEvents(w io.Writer, events []model.DrainEvent) error {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.VesselID,
			formatTime(e.Start),
			formatTime(e.End),
			formatFloat(e.VolumeLost),
			strconv.FormatBool(e.Significant),
		})
	}
	return writeCSV(w, eventsHeader, rows)
}

// WriteMatches writes reconciliation results as CSV. Invalid ticket dates
// are written as empty cells.
func WriteMatches(w io.Writer, matches []model.MatchResult) error {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		date := ""
		if m.Ticket.DateValid {
			date = formatTime(m.Ticket.Date)
		}
		starts := make([]string, len(m.MatchedEvents))
		for i, e := range m.MatchedEvents {
			starts[i] = formatTime(e.Start)
		}
		rows = append(rows, []string{
			m.Ticket.ID,
			m.Ticket.VesselID,
			date,
			formatFloat(m.Ticket.Amount),
			string(m.Status),
			strconv.Itoa(m.MatchedCount),
			formatFloat(m.MatchedVolume),
			strconv.FormatBool(m.MatchedSignificant),
			formatFloat(m.MedianAmount),
			strconv.Itoa(m.DuplicateCount),
			strconv.FormatBool(m.IsDuplicate),
			strconv.FormatBool(m.IsOutlier),
			strings.Join(starts, ";"),
		})
	}
	return writeCSV(w, matchesHeader, rows)
}

// WriteDaily writes daily aggregates as CSV. Null fields are empty cells.
func WriteDaily(w io.Writer, daily []model.DailyAggregate) error {
	rows := make([][]string, 0, len(daily))
	for _, d := range daily {
		end := ""
		if d.HasEndVolume {
			end = formatFloat(d.EndVolume)
		}
		rows = append(rows, []string{
			d.VesselID,
			d.Day.Format(dayLayout),
			end,
			formatFloat(d.TicketVolume),
			formatFloat(d.DrainVolume),
			formatFloat(d.Mismatch),
			formatOptional(d.MismatchPct),
			formatOptional(d.Capacity),
			formatOptional(d.FillPct),
			strconv.FormatBool(d.OverVolumeTolerance),
			strconv.FormatBool(d.OverPctTolerance),
		})
	}
	return writeCSV(w, dailyHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
