// Package reconcile matches collection tickets to detected drain events and
// classifies each ticket.
package reconcile

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/okian/drainwatch/internal/domain/dedupe"
	"github.com/okian/drainwatch/internal/domain/model"
)

// Engine classifies tickets. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	window      time.Duration
	outlierFrac float64
	epsilon     float64
}

// New creates an Engine with the default parameters overridden by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		window:      DefaultWindow,
		outlierFrac: DefaultOutlierFrac,
		epsilon:     DefaultEpsilon,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the configured matching half-width.
func (e *Engine) Window() time.Duration { return e.window }

// Reconcile returns one MatchResult per ticket, in input order. Tickets are
// matched only against events of their own vessel; duplicate groups and the
// median amount are computed per vessel.
func (e *Engine) Reconcile(ctx context.Context, tickets []model.Ticket, events []model.DrainEvent) []model.MatchResult {
	if len(tickets) == 0 {
		return nil
	}

	byVessel := make(map[string][]model.DrainEvent)
	for _, ev := range events {
		byVessel[ev.VesselID] = append(byVessel[ev.VesselID], ev)
	}

	groups := dedupe.NewInMemoryGrouper(dedupe.WithSizeHint(len(tickets)))
	amounts := make(map[string][]float64)
	for _, t := range tickets {
		groups.Add(ctx, dedupe.TicketKey(t))
		amounts[t.VesselID] = append(amounts[t.VesselID], t.Amount)
	}
	medians := make(map[string]float64, len(amounts))
	for id, a := range amounts {
		medians[id] = Median(a)
	}

	results := make([]model.MatchResult, len(tickets))
	for i, t := range tickets {
		matched := e.Match(t, byVessel[t.VesselID])
		dupCount := groups.Count(ctx, dedupe.TicketKey(t))
		median := medians[t.VesselID]

		var volume float64
		significant := false
		for _, ev := range matched {
			volume += ev.VolumeLost
			if ev.Significant {
				significant = true
			}
		}

		facts := Facts{
			MatchedCount:       len(matched),
			MatchedSignificant: significant,
			IsDuplicate:        dupCount > 1,
			IsOutlier:          e.IsOutlier(t.Amount, median),
		}
		results[i] = model.MatchResult{
			Ticket:             t,
			MatchedEvents:      matched,
			Status:             Classify(facts),
			MatchedCount:       facts.MatchedCount,
			MatchedVolume:      volume,
			MatchedSignificant: significant,
			MedianAmount:       median,
			DuplicateCount:     dupCount,
			IsDuplicate:        facts.IsDuplicate,
			IsOutlier:          facts.IsOutlier,
		}
	}
	return results
}

// Match returns the events candidate-matched to t, sorted by start time. An
// event matches when its start or end lies within the window around the
// ticket date, or the ticket date lies within the event. Tickets without a
// usable date match nothing.
func (e *Engine) Match(t model.Ticket, events []model.DrainEvent) []model.DrainEvent {
	if !t.DateValid {
		return nil
	}
	lo, hi := t.Date.Add(-e.window), t.Date.Add(e.window)
	var out []model.DrainEvent
	for _, ev := range events {
		if ev.VesselID != t.VesselID {
			continue
		}
		if within(ev.Start, lo, hi) || within(ev.End, lo, hi) || within(t.Date, ev.Start, ev.End) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// IsOutlier reports whether amount is further than the outlier fraction from
// median, relative to max(median, epsilon).
func (e *Engine) IsOutlier(amount, median float64) bool {
	return math.Abs(amount-median)/math.Max(median, e.epsilon) > e.outlierFrac
}

// Median returns the median of values, averaging the middle pair for even
// lengths. It does not modify values and returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	s := make([]float64, n)
	copy(s, values)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func within(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}
