package fixtures

import (
	"io"
)

// ShowHelp prints usage information for the fixture tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `drainwatch fixture generator
============================

Writes a synthetic fleet with planted ticket outcomes and, optionally,
verifies a running server against it.

Usage:
  go run ./cmd/gen-fixtures [options]

Options:
  -out string
        Directory to write readings.csv, tickets.csv, vessels.csv (default "fixtures")
  -vessels int
        Number of vessels (default 8)
  -days int
        Days of minute readings, at least 3 (default 3)
  -seed uint
        Generator seed (default 42)
  -url string
        Base URL of a server reading from -out; empty skips verification
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Log every mismatching ticket
  -help
        Show this help message

Examples:
  go run ./cmd/gen-fixtures -out data
  DRAINWATCH_READINGS_PATH=data/readings.csv DRAINWATCH_TICKETS_PATH=data/tickets.csv \
    DRAINWATCH_VESSELS_PATH=data/vessels.csv go run ./cmd/drainwatch -serve &
  go run ./cmd/gen-fixtures -out data -url http://localhost:9080
`)
}
