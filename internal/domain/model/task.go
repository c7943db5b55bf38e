package model

// VesselTask is the unit of work for one vessel: its readings in input order
// and its tickets.
type VesselTask struct {
	VesselID string
	Readings []Reading
	Tickets  []Ticket
}

// VesselResult is the output of a completed VesselTask.
type VesselResult struct {
	VesselID string
	Events   []DrainEvent
	Matches  []MatchResult
	Rates    VesselRates
}
