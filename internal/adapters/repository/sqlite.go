package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/drainwatch/internal/domain/model"
	"github.com/okian/drainwatch/pkg/metrics"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists the latest run in a SQLite database.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrStorePath
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return ErrNotConfigured
	}
	return nil
}

// SaveRun replaces the stored run in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, snap Snapshot) (err error) {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"runs", "drain_events", "ticket_matches", "daily_summary"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	vessels, _ := json.Marshal(nonNil(snap.Vessels))
	skipped, _ := json.Marshal(nonNil(snap.Skipped))
	k := snap.KPIs
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, vessels, skipped, total_unaccounted, suspicious_days, total_days, suspicious_day_rate)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, string(vessels), string(skipped), k.TotalUnaccounted, k.SuspiciousDays, k.TotalDays, k.SuspiciousDayRate,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	events := append([]model.DrainEvent(nil), snap.Events...)
	sortEvents(events)
	for i, e := range events {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO drain_events (seq, vessel_id, start_ns, end_ns, volume_lost, significant) VALUES (?, ?, ?, ?, ?, ?)`,
			i, e.VesselID, e.Start.UnixNano(), e.End.UnixNano(), e.VolumeLost, boolInt(e.Significant),
		); err != nil {
			return fmt.Errorf("insert drain event: %w", err)
		}
	}

	for i, m := range snap.Matches {
		payload, merr := json.Marshal(m)
		if merr != nil {
			return fmt.Errorf("encode match: %w", merr)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO ticket_matches (seq, ticket_id, vessel_id, status, payload) VALUES (?, ?, ?, ?, ?)`,
			i, m.Ticket.ID, m.Ticket.VesselID, string(m.Status), string(payload),
		); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}

	for i, d := range snap.Daily {
		var end sql.NullFloat64
		if d.HasEndVolume {
			end = sql.NullFloat64{Float64: d.EndVolume, Valid: true}
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO daily_summary (seq, vessel_id, day_ns, end_volume, ticket_volume, drain_volume, mismatch,
			   mismatch_pct, capacity, fill_pct, over_volume_tolerance, over_pct_tolerance)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, d.VesselID, d.Day.UnixNano(), end, d.TicketVolume, d.DrainVolume, d.Mismatch,
			nullable(d.MismatchPct), nullable(d.Capacity), nullable(d.FillPct),
			boolInt(d.OverVolumeTolerance), boolInt(d.OverPctTolerance),
		); err != nil {
			return fmt.Errorf("insert daily row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}

	metrics.UpdateKPIs(k.TotalUnaccounted, k.SuspiciousDays, k.TotalDays, k.SuspiciousDayRate)
	return nil
}

func (s *SQLiteStore) run(ctx context.Context) (Snapshot, error) {
	var (
		snap             Snapshot
		vessels, skipped string
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, vessels, skipped, total_unaccounted, suspicious_days, total_days, suspicious_day_rate FROM runs LIMIT 1`)
	err := row.Scan(&snap.RunID, &vessels, &skipped,
		&snap.KPIs.TotalUnaccounted, &snap.KPIs.SuspiciousDays, &snap.KPIs.TotalDays, &snap.KPIs.SuspiciousDayRate)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoRun
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load run: %w", err)
	}
	if err := json.Unmarshal([]byte(vessels), &snap.Vessels); err != nil {
		return Snapshot{}, fmt.Errorf("decode vessels: %w", err)
	}
	if err := json.Unmarshal([]byte(skipped), &snap.Skipped); err != nil {
		return Snapshot{}, fmt.Errorf("decode skipped: %w", err)
	}
	return snap, nil
}

// Events returns drain events, optionally for one vessel.
func (s *SQLiteStore) Events(ctx context.Context, vesselID string) ([]model.DrainEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if _, err := s.run(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT vessel_id, start_ns, end_ns, volume_lost, significant FROM drain_events
		 WHERE (? = '' OR vessel_id = ?) ORDER BY seq`, vesselID, vesselID)
	if err != nil {
		return nil, fmt.Errorf("query drain events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.DrainEvent{}
	for rows.Next() {
		var (
			e              model.DrainEvent
			startNs, endNs int64
			significant    int
		)
		if err := rows.Scan(&e.VesselID, &startNs, &endNs, &e.VolumeLost, &significant); err != nil {
			return nil, fmt.Errorf("scan drain event: %w", err)
		}
		e.Start = fromNanos(startNs)
		e.End = fromNanos(endNs)
		e.Significant = significant != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Matches returns match results, optionally with one status.
func (s *SQLiteStore) Matches(ctx context.Context, status model.Status) ([]model.MatchResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if _, err := s.run(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT payload FROM ticket_matches WHERE (? = '' OR status = ?) ORDER BY seq`, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.MatchResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		var m model.MatchResult
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Daily returns daily rows, optionally for one vessel.
func (s *SQLiteStore) Daily(ctx context.Context, vesselID string) ([]model.DailyAggregate, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if _, err := s.run(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT vessel_id, day_ns, end_volume, ticket_volume, drain_volume, mismatch,
		        mismatch_pct, capacity, fill_pct, over_volume_tolerance, over_pct_tolerance
		 FROM daily_summary WHERE (? = '' OR vessel_id = ?) ORDER BY seq`, vesselID, vesselID)
	if err != nil {
		return nil, fmt.Errorf("query daily rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.DailyAggregate{}
	for rows.Next() {
		var (
			d                        model.DailyAggregate
			dayNs                    int64
			end, pct, capacity, fill sql.NullFloat64
			overVol, overPct         int
		)
		if err := rows.Scan(&d.VesselID, &dayNs, &end, &d.TicketVolume, &d.DrainVolume, &d.Mismatch,
			&pct, &capacity, &fill, &overVol, &overPct); err != nil {
			return nil, fmt.Errorf("scan daily row: %w", err)
		}
		d.Day = fromNanos(dayNs)
		d.EndVolume, d.HasEndVolume = end.Float64, end.Valid
		d.MismatchPct = fromNull(pct)
		d.Capacity = fromNull(capacity)
		d.FillPct = fromNull(fill)
		d.OverVolumeTolerance = overVol != 0
		d.OverPctTolerance = overPct != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// KPIs returns the stored fleet KPIs.
func (s *SQLiteStore) KPIs(ctx context.Context) (model.KPIs, error) {
	if err := s.ready(ctx); err != nil {
		return model.KPIs{}, err
	}
	snap, err := s.run(ctx)
	if err != nil {
		return model.KPIs{}, err
	}
	return snap.KPIs, nil
}

// Stats returns summary counts for the stored run.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	if err := s.ready(ctx); err != nil {
		return Stats{}, err
	}
	snap, err := s.run(ctx)
	if err != nil {
		return Stats{}, err
	}
	if snap.Events, err = s.Events(ctx, ""); err != nil {
		return Stats{}, err
	}
	if snap.Matches, err = s.Matches(ctx, ""); err != nil {
		return Stats{}, err
	}
	if snap.Daily, err = s.Daily(ctx, ""); err != nil {
		return Stats{}, err
	}
	return StatsOf(snap), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
