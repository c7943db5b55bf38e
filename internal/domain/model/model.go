// Package model contains the records passed between the batch stages.
package model

import (
	"sort"
	"time"
)

// Reading is one timestamped level sample for a vessel.
type Reading struct {
	VesselID string    `json:"vessel_id"`
	Time     time.Time `json:"timestamp"`
	Level    float64   `json:"level"` // raw volume or percent of capacity
}

// DrainEvent is a time-bounded episode of volume decrease inferred from readings.
type DrainEvent struct {
	VesselID    string    `json:"vessel_id"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	VolumeLost  float64   `json:"volume_lost"`
	Significant bool      `json:"significant"`
}

// Duration returns End - Start.
func (e DrainEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Ticket is an externally reported collection record.
type Ticket struct {
	ID        string    `json:"ticket_id"`
	VesselID  string    `json:"vessel_id"`
	Date      time.Time `json:"date"`
	DateValid bool      `json:"date_valid"` // false when the upstream date could not be parsed
	Amount    float64   `json:"amount_collected"`
}

// Day returns the ticket's UTC calendar day. The second return is false when
// the ticket date is unusable.
func (t Ticket) Day() (time.Time, bool) {
	if !t.DateValid {
		return time.Time{}, false
	}
	return DayOf(t.Date), true
}

// Vessel holds metadata for a monitored container.
type Vessel struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MaxVolume float64 `json:"max_volume"` // <= 0 means capacity unknown
}

// Capacities maps vessel id to max volume.
type Capacities map[string]float64

// Lookup returns the capacity for id and whether it is known.
func (c Capacities) Lookup(id string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c[id]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// CapacitiesFrom builds a capacity lookup from vessel metadata.
func CapacitiesFrom(vessels []Vessel) Capacities {
	out := make(Capacities, len(vessels))
	for _, v := range vessels {
		if v.ID == "" || v.MaxVolume <= 0 {
			continue
		}
		out[v.ID] = v.MaxVolume
	}
	return out
}

// VesselRates summarises the average per-sample fill and drain rates.
type VesselRates struct {
	VesselID  string  `json:"vessel_id"`
	FillRate  float64 `json:"fill_rate"`
	DrainRate float64 `json:"drain_rate"`
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// GroupReadings splits readings by vessel and orders each vessel's samples by
// time. The sort is stable, so samples sharing a timestamp keep input order.
func GroupReadings(readings []Reading) map[string][]Reading {
	out := make(map[string][]Reading)
	for _, r := range readings {
		out[r.VesselID] = append(out[r.VesselID], r)
	}
	for _, rs := range out {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Time.Before(rs[j].Time) })
	}
	return out
}

// GroupTickets splits tickets by vessel, preserving input order within each
// vessel.
func GroupTickets(tickets []Ticket) map[string][]Ticket {
	out := make(map[string][]Ticket)
	for _, t := range tickets {
		out[t.VesselID] = append(out[t.VesselID], t)
	}
	return out
}

// VesselIDs returns the sorted union of vessel ids present in readings and tickets.
func VesselIDs(readings map[string][]Reading, tickets map[string][]Ticket) []string {
	seen := make(map[string]struct{}, len(readings)+len(tickets))
	for id := range readings {
		seen[id] = struct{}{}
	}
	for id := range tickets {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
