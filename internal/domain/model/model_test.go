package model_test

import (
	"testing"
	"time"

	"github.com/okian/drainwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGroupReadings(t *testing.T) {
	base := time.Date(2025, 10, 30, 8, 0, 0, 0, time.UTC)
	at := func(id string, minute int, level float64) model.Reading {
		return model.Reading{VesselID: id, Time: base.Add(time.Duration(minute) * time.Minute), Level: level}
	}

	Convey("Given readings for two vessels out of time order", t, func() {
		grouped := model.GroupReadings([]model.Reading{
			at("V1", 30, 3),
			at("V2", 5, 9),
			at("V1", 0, 1),
			at("V1", 10, 2),
			at("V1", 10, 4),
		})

		Convey("Then each vessel's samples are ordered by time", func() {
			So(grouped, ShouldHaveLength, 2)
			So(grouped["V2"], ShouldHaveLength, 1)
			v1 := grouped["V1"]
			So(v1, ShouldHaveLength, 4)
			for i := 1; i < len(v1); i++ {
				So(v1[i].Time.Before(v1[i-1].Time), ShouldBeFalse)
			}
		})

		Convey("Then samples sharing a timestamp keep input order", func() {
			v1 := grouped["V1"]
			So(v1[1].Level, ShouldEqual, 2)
			So(v1[2].Level, ShouldEqual, 4)
		})
	})
}
