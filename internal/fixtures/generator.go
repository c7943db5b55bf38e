package fixtures

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/drainwatch/internal/domain/model"
)

// fixtureNamespace scopes generated ticket ids.
var fixtureNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/okian/drainwatch/fixtures"))

// Normalize fills zero fields with defaults and clamps Days.
func (c *Config) Normalize() {
	if c.Vessels < 1 {
		c.Vessels = DefaultVessels
	}
	if c.Days < MinDays {
		c.Days = MinDays
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	}
	c.Start = model.DayOf(c.Start)
}

// Generate builds a fleet and the status each ticket must receive. The same
// config always produces the same fleet.
//
// Vessels cycle through four roles. Drainers lose volume every day at 10:00
// and file one ticket per day (valid). Duplicate vessels never drain and file
// two identical tickets on the first day (duplicate). Outlier vessels never
// drain and file a plain ticket on days one and two and an oversized one on
// day three (suspicious, suspicious, outlier).
func Generate(cfg Config) (Fleet, []Expectation) {
	cfg.Normalize()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	var fleet Fleet
	var expect []Expectation
	samples := cfg.Days * int(24*time.Hour/sampleInterval)

	for v := 0; v < cfg.Vessels; v++ {
		id := fmt.Sprintf("cauldron_%03d", v+1)
		role := v % roleCount
		fleet.VesselIDs = append(fleet.VesselIDs, id)
		fleet.Vessels = append(fleet.Vessels, model.Vessel{
			ID:        id,
			Name:      "Vessel " + strconv.Itoa(v+1),
			Latitude:  51 + float64(v)/100,
			Longitude: -0.1 - float64(v)/100,
			MaxVolume: capacity,
		})

		fill := minFillRate + rng.Float64()*fillRateRange
		drains := role == roleDrainer || role == roleDrainerAlt
		level := startLevel
		for i := 0; i < samples; i++ {
			at := cfg.Start.Add(time.Duration(i) * sampleInterval)
			minuteOfDay := at.Hour()*60 + at.Minute()
			if drains && minuteOfDay >= drainHour*60 && minuteOfDay < drainHour*60+drainSteps {
				level -= drainStep
			} else {
				level += fill
			}
			fleet.Readings = append(fleet.Readings, model.Reading{VesselID: id, Time: at, Level: level})
		}

		ticket := func(k, day int, amount float64, status model.Status) {
			t := model.Ticket{
				ID:        uuid.NewSHA1(fixtureNamespace, []byte(fmt.Sprintf("%d/%s/%d", cfg.Seed, id, k))).String(),
				VesselID:  id,
				Date:      cfg.Start.AddDate(0, 0, day),
				DateValid: true,
				Amount:    amount,
			}
			fleet.Tickets = append(fleet.Tickets, t)
			expect = append(expect, Expectation{TicketID: t.ID, VesselID: id, Status: status})
		}

		switch role {
		case roleDrainer, roleDrainerAlt:
			for d := 0; d < cfg.Days; d++ {
				ticket(d, d, drainSteps*drainStep, model.StatusValid)
			}
		case roleDuplicate:
			ticket(0, 0, plainAmount, model.StatusDuplicate)
			ticket(1, 0, plainAmount, model.StatusDuplicate)
		case roleOutlier:
			ticket(0, 0, plainAmount, model.StatusSuspicious)
			ticket(1, 1, plainAmount, model.StatusSuspicious)
			ticket(2, 2, outlierAmount, model.StatusOutlier)
		}
	}
	return fleet, expect
}
