// Package detect infers drain events from a vessel's level time series.
//
// A sample is draining when its level sits more than the threshold below the
// sample lag positions earlier. The diff is taken by index, not by elapsed
// time, so irregular sampling changes the effective time lag.
package detect

import (
	"math"
	"time"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Detector turns one vessel's ordered readings into drain events.
// A Detector holds no mutable state and is safe for concurrent use.
type Detector struct {
	threshold    float64
	lag          int
	mergeGap     time.Duration
	significance float64
}

// New creates a Detector with the default parameters overridden by opts.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold:    DefaultThreshold,
		lag:          DefaultLag,
		mergeGap:     DefaultMergeGap,
		significance: DefaultSignificanceThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Lag returns the configured sample lag.
func (d *Detector) Lag() int { return d.lag }

// SignificanceThreshold returns the configured significance threshold.
func (d *Detector) SignificanceThreshold() float64 { return d.significance }

// Draining returns the indexes of draining samples in readings.
func (d *Detector) Draining(readings []model.Reading) []int {
	var idx []int
	for i := d.lag; i < len(readings); i++ {
		delta := readings[i].Level - readings[i-d.lag].Level
		if delta < -d.threshold {
			idx = append(idx, i)
		}
	}
	return idx
}

// Detect returns the drain events for readings, which must all belong to one
// vessel and be ordered by time. It never fails; empty input yields nil.
func (d *Detector) Detect(readings []model.Reading) []model.DrainEvent {
	draining := d.Draining(readings)
	if len(draining) == 0 {
		return nil
	}

	var events []model.DrainEvent
	prev := -1
	first, last := draining[0], draining[0]
	for _, i := range draining[1:] {
		if gap(readings[last].Time, readings[i].Time) > d.mergeGap {
			events = append(events, d.event(readings, first, last, prev))
			prev = last
			first = i
		}
		last = i
	}
	events = append(events, d.event(readings, first, last, prev))
	return events
}

// event builds the event for the draining run readings[first..last]. The
// volume is measured from the reference sample of the first draining reading,
// so a run covering a whole decline reports the full drop. The reference never
// reaches back past prev, the last draining index of the preceding event, so
// no drop is counted twice.
func (d *Detector) event(readings []model.Reading, first, last, prev int) model.DrainEvent {
	start, end := readings[first].Time, readings[last].Time
	if end.Before(start) {
		start, end = end, start
	}
	ref := max(first-d.lag, prev)
	lost := math.Abs(readings[ref].Level - readings[last].Level)
	return model.DrainEvent{
		VesselID:    readings[first].VesselID,
		Start:       start,
		End:         end,
		VolumeLost:  lost,
		Significant: lost >= d.significance,
	}
}

func gap(a, b time.Time) time.Duration {
	g := b.Sub(a)
	if g < 0 {
		return -g
	}
	return g
}
