package model

import "time"

// DailyAggregate is the ticket-versus-drain balance for one vessel-day.
type DailyAggregate struct {
	VesselID            string    `json:"vessel_id"`
	Day                 time.Time `json:"day"`
	EndVolume           float64   `json:"end_volume"`
	HasEndVolume        bool      `json:"has_end_volume"`
	TicketVolume        float64   `json:"ticket_volume"`
	DrainVolume         float64   `json:"drain_volume"`
	Mismatch            float64   `json:"mismatch"`
	MismatchPct         *float64  `json:"mismatch_pct,omitempty"`
	Capacity            *float64  `json:"capacity,omitempty"`
	FillPct             *float64  `json:"fill_pct,omitempty"`
	OverVolumeTolerance bool      `json:"over_volume_tolerance"`
	OverPctTolerance    bool      `json:"over_pct_tolerance"`
}

// KPIs are fleet-level figures derived from the daily aggregates.
type KPIs struct {
	TotalUnaccounted  float64 `json:"total_unaccounted"`
	SuspiciousDays    int     `json:"suspicious_days"`
	TotalDays         int     `json:"total_days"`
	SuspiciousDayRate float64 `json:"suspicious_day_rate"`
}
