package service

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/okian/drainwatch/internal/adapters/repository"
	"github.com/okian/drainwatch/internal/domain/model"
)

// runNamespace scopes run ids so they never collide with other SHA1 uuids.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/okian/drainwatch/runs"))

// Input names the files a run reads. Tickets and vessels are optional.
type Input struct {
	ReadingsPath string
	TicketsPath  string
	VesselsPath  string
}

// Data is an already parsed batch input.
type Data struct {
	Readings []model.Reading
	Tickets  []model.Ticket
	Vessels  []model.Vessel
	// Ingest carries the per-source reports from parsing, keyed by source.
	Ingest map[string]model.IngestReport
}

// Report is the complete, deterministic result of one run.
type Report struct {
	RunID        string                        `json:"run_id"`
	Ingest       map[string]model.IngestReport `json:"ingest"`
	Vessels      []string                      `json:"vessels"`
	Skipped      []string                      `json:"skipped"`
	Events       []model.DrainEvent            `json:"events"`
	Matches      []model.MatchResult           `json:"matches"`
	StatusCounts map[model.Status]int          `json:"status_counts"`
	Daily        []model.DailyAggregate        `json:"daily"`
	KPIs         model.KPIs                    `json:"kpis"`
	Rates        []model.VesselRates           `json:"rates"`
}

// Snapshot converts the report into what the report store persists.
func (r Report) Snapshot() repository.Snapshot {
	return repository.Snapshot{
		RunID:   r.RunID,
		Vessels: r.Vessels,
		Skipped: r.Skipped,
		Events:  r.Events,
		Matches: r.Matches,
		Daily:   r.Daily,
		KPIs:    r.KPIs,
	}
}

// runID derives a name-based uuid from the input contents, so the same
// input always yields the same id.
func runID(data Data) string {
	payload, err := json.Marshal(struct {
		Readings []model.Reading `json:"r"`
		Tickets  []model.Ticket  `json:"t"`
		Vessels  []model.Vessel  `json:"v"`
	}{data.Readings, data.Tickets, data.Vessels})
	if err != nil {
		// NaN levels are rejected at ingest; fall back to an empty payload.
		payload = nil
	}
	return uuid.NewSHA1(runNamespace, payload).String()
}
