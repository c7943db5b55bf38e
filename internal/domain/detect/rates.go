package detect

import (
	"math"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Rates returns the mean positive one-step change (fill rate) and the
// magnitude of the mean negative one-step change (drain rate). A direction
// with no samples reports zero.
func Rates(vesselID string, readings []model.Reading) model.VesselRates {
	var fillSum, drainSum float64
	var fillN, drainN int
	for i := 1; i < len(readings); i++ {
		diff := readings[i].Level - readings[i-1].Level
		switch {
		case diff > 0:
			fillSum += diff
			fillN++
		case diff < 0:
			drainSum += diff
			drainN++
		}
	}
	out := model.VesselRates{VesselID: vesselID}
	if fillN > 0 {
		out.FillRate = fillSum / float64(fillN)
	}
	if drainN > 0 {
		out.DrainRate = math.Abs(drainSum / float64(drainN))
	}
	return out
}
