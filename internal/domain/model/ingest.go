package model

// IngestReport accounts for every record read from one input source.
type IngestReport struct {
	Source   string   `json:"source"`
	Total    int      `json:"total"`
	Accepted int      `json:"accepted"`
	Dropped  int      `json:"dropped"`
	Errors   []string `json:"errors,omitempty"`
	// Missing is set when an optional source was not present at all.
	Missing bool `json:"missing,omitempty"`
}

// Drop records a rejected record and its reason.
func (r *IngestReport) Drop(reason string, maxErrors int) {
	r.Total++
	r.Dropped++
	if maxErrors <= 0 || len(r.Errors) < maxErrors {
		r.Errors = append(r.Errors, reason)
	}
}

// Accept records an accepted record.
func (r *IngestReport) Accept() {
	r.Total++
	r.Accepted++
}
