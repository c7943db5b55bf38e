package fixtures

import (
	"fmt"
	"sort"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Mismatch is a planted ticket whose reported status differs from the
// expected one. Got is empty when the ticket was not reported at all.
type Mismatch struct {
	Expectation
	Got model.Status
}

// Verify compares reported match results with the planted expectations.
func Verify(expect []Expectation, results []model.MatchResult) []Mismatch {
	got := make(map[string]model.Status, len(results))
	for _, r := range results {
		got[r.Ticket.ID] = r.Status
	}

	var out []Mismatch
	for _, e := range expect {
		if st := got[e.TicketID]; st != e.Status {
			out = append(out, Mismatch{Expectation: e, Got: st})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out
}

func (m Mismatch) String() string {
	got := string(m.Got)
	if got == "" {
		got = "missing"
	}
	return fmt.Sprintf("ticket %s (%s): want %s, got %s", m.TicketID, m.VesselID, m.Status, got)
}
