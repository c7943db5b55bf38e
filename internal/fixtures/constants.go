package fixtures

import "time"

// Defaults for Config.
const (
	DefaultVessels = 8
	DefaultDays    = 3
	DefaultSeed    = 42
	DefaultTimeout = 30 * time.Second
	MinDays        = 3
)

// Shape of the synthetic series.
const (
	sampleInterval = time.Minute
	startLevel     = 100.0
	minFillRate    = 0.05
	fillRateRange  = 0.1
	drainHour      = 10
	drainSteps     = 6
	drainStep      = 8.0
	capacity       = 2000.0
	plainAmount    = 40.0
	outlierAmount  = 200.0
)

// Vessel roles, assigned round robin by vessel index.
const (
	roleDrainer = iota
	roleDrainerAlt
	roleDuplicate
	roleOutlier
	roleCount
)

// File names written by WriteFleet.
const (
	ReadingsFile     = "readings.csv"
	TicketsFile      = "tickets.csv"
	VesselsFile      = "vessels.csv"
	ExpectationsFile = "expectations.json"

	directoryPermission = 0o750
	filePermission      = 0o600
)
