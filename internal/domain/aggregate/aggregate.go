// Package aggregate rolls readings, tickets and drain events up into one
// balance row per vessel and UTC day.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Aggregator builds daily rows. It is stateless apart from its tolerances.
type Aggregator struct {
	volumeTolerance float64
	pctTolerance    float64
}

// New creates an Aggregator with the default tolerances overridden by opts.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		volumeTolerance: DefaultVolumeTolerance,
		pctTolerance:    DefaultPctTolerance,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type dayKey struct {
	vessel string
	day    time.Time
}

type endReading struct {
	at    time.Time
	level float64
}

// Aggregate returns one row per (vessel, day) present in any input, sorted by
// vessel then day. Tickets with an invalid date are ignored.
func (a *Aggregator) Aggregate(readings []model.Reading, tickets []model.Ticket, events []model.DrainEvent, caps model.Capacities) []model.DailyAggregate {
	rows := make(map[dayKey]*model.DailyAggregate)
	row := func(vessel string, day time.Time) *model.DailyAggregate {
		k := dayKey{vessel: vessel, day: day}
		r, ok := rows[k]
		if !ok {
			r = &model.DailyAggregate{VesselID: vessel, Day: day}
			rows[k] = r
		}
		return r
	}

	// Last reading by time wins; on equal timestamps the later input row wins.
	ends := make(map[dayKey]endReading)
	for _, rd := range readings {
		k := dayKey{vessel: rd.VesselID, day: model.DayOf(rd.Time)}
		row(k.vessel, k.day)
		cur, ok := ends[k]
		if !ok || !rd.Time.Before(cur.at) {
			ends[k] = endReading{at: rd.Time, level: rd.Level}
		}
	}
	for k, e := range ends {
		r := rows[k]
		r.EndVolume = e.level
		r.HasEndVolume = true
	}

	for _, t := range tickets {
		day, ok := t.Day()
		if !ok {
			continue
		}
		row(t.VesselID, day).TicketVolume += t.Amount
	}

	for _, ev := range events {
		at := ev.End
		if at.IsZero() {
			at = ev.Start
		}
		row(ev.VesselID, model.DayOf(at)).DrainVolume += ev.VolumeLost
	}

	out := make([]model.DailyAggregate, 0, len(rows))
	for _, r := range rows {
		a.finish(r, caps)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VesselID != out[j].VesselID {
			return out[i].VesselID < out[j].VesselID
		}
		return out[i].Day.Before(out[j].Day)
	})
	return out
}

func (a *Aggregator) finish(r *model.DailyAggregate, caps model.Capacities) {
	r.Mismatch = r.TicketVolume - r.DrainVolume
	abs := math.Abs(r.Mismatch)
	r.OverVolumeTolerance = abs > a.volumeTolerance

	capacity, ok := caps.Lookup(r.VesselID)
	if !ok {
		return
	}
	c := capacity
	r.Capacity = &c
	pct := abs / capacity * 100
	r.MismatchPct = &pct
	r.OverPctTolerance = pct > a.pctTolerance
	if r.HasEndVolume {
		fill := r.EndVolume / capacity * 100
		r.FillPct = &fill
	}
}

// KPIs summarises daily rows. A day is suspicious when its mismatch is
// non-zero.
func KPIs(rows []model.DailyAggregate) model.KPIs {
	var k model.KPIs
	k.TotalDays = len(rows)
	for _, r := range rows {
		abs := math.Abs(r.Mismatch)
		k.TotalUnaccounted += abs
		if abs > 0 {
			k.SuspiciousDays++
		}
	}
	if k.TotalDays > 0 {
		k.SuspiciousDayRate = float64(k.SuspiciousDays) / float64(k.TotalDays)
	}
	return k
}
