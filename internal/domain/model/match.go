package model

import "fmt"

// Status classifies a ticket after reconciliation.
type Status string

// Ticket statuses in classification precedence order.
const (
	StatusValid       Status = "valid"
	StatusDuplicate   Status = "duplicate"
	StatusOutlier     Status = "outlier"
	StatusSuspicious  Status = "suspicious"
	StatusNeedsReview Status = "needs-review"
)

// Statuses lists every status in precedence order.
var Statuses = []Status{StatusValid, StatusDuplicate, StatusOutlier, StatusSuspicious, StatusNeedsReview}

// ParseStatus maps a string to a known Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// MatchResult is the reconciliation outcome for one ticket.
type MatchResult struct {
	Ticket             Ticket       `json:"ticket"`
	MatchedEvents      []DrainEvent `json:"matched_events"`
	Status             Status       `json:"status"`
	MatchedCount       int          `json:"matched_count"`
	MatchedVolume      float64      `json:"matched_volume"`
	MatchedSignificant bool         `json:"matched_significant"`
	MedianAmount       float64      `json:"median_amount"`
	DuplicateCount     int          `json:"duplicate_count"`
	IsDuplicate        bool         `json:"is_duplicate"`
	IsOutlier          bool         `json:"is_outlier"`
}

// StatusCounts tallies results by status. Every status is present in the map.
func StatusCounts(results []MatchResult) map[Status]int {
	out := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		out[st] = 0
	}
	for _, r := range results {
		out[r.Status]++
	}
	return out
}
