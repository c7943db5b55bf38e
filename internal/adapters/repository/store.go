// Package repository stores the latest batch report for the read API.
package repository

import (
	"context"
	"sort"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Snapshot is everything a completed run publishes.
type Snapshot struct {
	RunID   string
	Vessels []string
	Skipped []string
	Events  []model.DrainEvent
	Matches []model.MatchResult
	Daily   []model.DailyAggregate
	KPIs    model.KPIs
}

// Stats summarises the stored run.
type Stats struct {
	RunID             string               `json:"run_id"`
	Vessels           int                  `json:"vessels"`
	Skipped           int                  `json:"skipped"`
	Events            int                  `json:"events"`
	SignificantEvents int                  `json:"significant_events"`
	Tickets           int                  `json:"tickets"`
	StatusCounts      map[model.Status]int `json:"status_counts"`
	DailyRows         int                  `json:"daily_rows"`
}

// Store provides access to the latest run. Every read returns ErrNoRun until
// the first SaveRun.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store
type Store interface {
	// SaveRun replaces the stored run.
	SaveRun(ctx context.Context, snap Snapshot) error

	// Events returns drain events ordered by vessel then start. An empty
	// vesselID returns all vessels.
	Events(ctx context.Context, vesselID string) ([]model.DrainEvent, error)

	// Matches returns match results in run order. An empty status returns all.
	Matches(ctx context.Context, status model.Status) ([]model.MatchResult, error)

	// Daily returns daily rows ordered by vessel then day. An empty vesselID
	// returns all vessels.
	Daily(ctx context.Context, vesselID string) ([]model.DailyAggregate, error)

	// KPIs returns the fleet KPIs of the stored run.
	KPIs(ctx context.Context) (model.KPIs, error)

	// Stats returns summary counts for the stored run.
	Stats(ctx context.Context) (Stats, error)

	// Close releases resources held by the store.
	Close() error
}

// StatsOf computes Stats for a snapshot.
func StatsOf(snap Snapshot) Stats {
	st := Stats{
		RunID:        snap.RunID,
		Vessels:      len(snap.Vessels),
		Skipped:      len(snap.Skipped),
		Events:       len(snap.Events),
		Tickets:      len(snap.Matches),
		StatusCounts: model.StatusCounts(snap.Matches),
		DailyRows:    len(snap.Daily),
	}
	for _, e := range snap.Events {
		if e.Significant {
			st.SignificantEvents++
		}
	}
	return st
}

func sortEvents(events []model.DrainEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].VesselID != events[j].VesselID {
			return events[i].VesselID < events[j].VesselID
		}
		return events[i].Start.Before(events[j].Start)
	})
}
