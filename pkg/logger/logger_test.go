package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get and Named return usable loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})
	})
}

func TestLoggerJSONFormat(t *testing.T) {
	Convey("Given a logger writing json to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("JSON"), WithWriter(&buf)), ShouldBeNil)

		Convey("When a named logger writes typed fields", func() {
			at := time.Date(2025, 10, 30, 12, 0, 0, 0, time.UTC)
			Named("detect").Info(context.Background(), "events detected",
				String("vessel_id", "V1"),
				Int("events", 3),
				Float64("volume", 12.5),
				Bool("significant", true),
				Time("at", at),
			)

			Convey("Then one json record carries them with the source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "events detected")
				So(rec["logger"], ShouldEqual, "detect")
				So(rec["vessel_id"], ShouldEqual, "V1")
				So(rec["events"], ShouldEqual, float64(3))
				So(rec["significant"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given a text logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("unknown"), WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When the level is info", func() {
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "shown")

			Convey("Then debug records are filtered", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "msg=shown")
			})
		})

		Convey("When the level is raised to debug", func() {
			So(SetLevelString(" Debug "), ShouldBeNil)
			Get().Debug(ctx, "visible")

			Convey("Then debug records are written", func() {
				So(strings.Contains(buf.String(), "visible"), ShouldBeTrue)
			})
		})

		Convey("When the level is unknown", func() {
			Convey("Then an error is returned", func() {
				So(SetLevelString("verbose"), ShouldNotBeNil)
				So(SetLevelString("warning"), ShouldBeNil)
				So(SetLevelString("error"), ShouldBeNil)
				So(SetLevelString(""), ShouldBeNil)
			})
		})
	})
}
