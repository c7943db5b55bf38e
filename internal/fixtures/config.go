// Package fixtures generates synthetic fleets with planted ticket outcomes
// and verifies a running drainwatch server against them.
package fixtures

import (
	"time"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Config holds configuration for fixture generation and verification.
type Config struct {
	BaseURL   string        // Base URL of the server; empty skips verification
	Vessels   int           // Number of vessels
	Days      int           // Days of minute readings per vessel, at least 3
	Seed      uint64        // Seed for fill rates and ticket ids
	Start     time.Time     // First reading time, truncated to a UTC day
	OutputDir string        // Directory the CSVs are written to
	Timeout   time.Duration // HTTP request timeout
	Verbose   bool          // Log every mismatch
}

// Fleet is a generated input set.
type Fleet struct {
	Readings []model.Reading
	Tickets  []model.Ticket
	Vessels  []model.Vessel
	// VesselIDs lists vessels in column order for the wide readings file.
	VesselIDs []string
}

// Expectation is the status a planted ticket must receive.
type Expectation struct {
	TicketID string       `json:"ticket_id"`
	VesselID string       `json:"vessel_id"`
	Status   model.Status `json:"status"`
}

// Stats holds run statistics.
type Stats struct {
	Vessels    int
	Readings   int
	Tickets    int
	Checked    int
	Mismatched int
	StartTime  time.Time
	Duration   time.Duration
}
