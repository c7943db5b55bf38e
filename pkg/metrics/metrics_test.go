package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))
			manager.eventsDetected.Inc()

			Convey("Then metrics use the drainwatch namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["drainwatch_batch_drain_events_total"], ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.vesselsProcessed.Inc()

			Convey("Then they are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
				So(testutil.ToFloat64(manager.vesselsProcessed), ShouldEqual, 1)
			})
		})

		Convey("When options carry empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "drainwatch")
				So(manager.subsystem, ShouldEqual, "batch")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When pipeline metrics are recorded", func() {
			before := testutil.ToFloat64(globalManager.eventsDetected)
			beforeSig := testutil.ToFloat64(globalManager.eventsSignificant)
			beforeDropped := testutil.ToFloat64(globalManager.ingestRecords.WithLabelValues("tickets", OutcomeDropped))
			beforeValid := testutil.ToFloat64(globalManager.ticketStatus.WithLabelValues("valid"))

			RecordDrainEvents(3, 1)
			RecordIngest("tickets", 10, 2)
			RecordTicketStatus("valid")

			Convey("Then the counters move by the recorded amounts", func() {
				So(testutil.ToFloat64(globalManager.eventsDetected)-before, ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.eventsSignificant)-beforeSig, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.ingestRecords.WithLabelValues("tickets", OutcomeDropped))-beforeDropped, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.ticketStatus.WithLabelValues("valid"))-beforeValid, ShouldEqual, 1)
			})
		})

		Convey("When KPIs are published", func() {
			UpdateKPIs(12.5, 2, 8, 0.25)

			Convey("Then the gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.kpiUnaccounted), ShouldEqual, 12.5)
				So(testutil.ToFloat64(globalManager.kpiSuspiciousDays), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.kpiTotalDays), ShouldEqual, 8)
				So(testutil.ToFloat64(globalManager.kpiSuspiciousRate), ShouldEqual, 0.25)
			})
		})

		Convey("When queue and worker metrics are recorded", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					UpdateQueueSize(4)
					UpdateQueueCapacity(64)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					UpdateWorkerCount(4)
					IncWorkerActive()
					DecWorkerActive()
					RecordWorkerError()
					RecordVesselTaskLatency(3.5)
					RecordVesselProcessed()
					RecordVesselsSkipped(2)
					RecordRun(120)
				}, ShouldNotPanic)
			})
		})

		Convey("When HTTP and error metrics are recorded", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordHTTPRequest("/events", "GET", "200")
					RecordHTTPRequestDuration("/events", "GET", "200", 1.5)
					RecordErrorByComponent("gateway", "parse")
				}, ShouldNotPanic)
			})
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
