package repository

import (
	"context"
	"sync"

	"github.com/okian/drainwatch/internal/domain/model"
	"github.com/okian/drainwatch/pkg/metrics"
)

// MemoryStore keeps the latest run in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveRun replaces the stored run with a copy of snap.
func (s *MemoryStore) SaveRun(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := Snapshot{
		RunID:   snap.RunID,
		Vessels: append([]string(nil), snap.Vessels...),
		Skipped: append([]string(nil), snap.Skipped...),
		Events:  append([]model.DrainEvent(nil), snap.Events...),
		Matches: append([]model.MatchResult(nil), snap.Matches...),
		Daily:   append([]model.DailyAggregate(nil), snap.Daily...),
		KPIs:    snap.KPIs,
	}
	sortEvents(cp.Events)

	s.mu.Lock()
	s.snap = &cp
	s.mu.Unlock()

	k := cp.KPIs
	metrics.UpdateKPIs(k.TotalUnaccounted, k.SuspiciousDays, k.TotalDays, k.SuspiciousDayRate)
	return nil
}

func (s *MemoryStore) current(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNoRun
	}
	return s.snap, nil
}

// Events returns drain events, optionally for one vessel.
func (s *MemoryStore) Events(ctx context.Context, vesselID string) ([]model.DrainEvent, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DrainEvent, 0, len(snap.Events))
	for _, e := range snap.Events {
		if vesselID == "" || e.VesselID == vesselID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Matches returns match results, optionally with one status.
func (s *MemoryStore) Matches(ctx context.Context, status model.Status) ([]model.MatchResult, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.MatchResult, 0, len(snap.Matches))
	for _, m := range snap.Matches {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

// Daily returns daily rows, optionally for one vessel.
func (s *MemoryStore) Daily(ctx context.Context, vesselID string) ([]model.DailyAggregate, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DailyAggregate, 0, len(snap.Daily))
	for _, d := range snap.Daily {
		if vesselID == "" || d.VesselID == vesselID {
			out = append(out, d)
		}
	}
	return out, nil
}

// KPIs returns the stored fleet KPIs.
func (s *MemoryStore) KPIs(ctx context.Context) (model.KPIs, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return model.KPIs{}, err
	}
	return snap.KPIs, nil
}

// Stats returns summary counts for the stored run.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return Stats{}, err
	}
	return StatsOf(*snap), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
