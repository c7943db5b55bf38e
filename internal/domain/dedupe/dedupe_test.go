package dedupe_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	dedupe "github.com/okian/drainwatch/internal/domain/dedupe"
	"github.com/okian/drainwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryGrouper(t *testing.T) {
	Convey("Given a new InMemoryGrouper", t, func() {
		ctx := context.Background()
		g := dedupe.NewInMemoryGrouper(dedupe.WithSizeHint(16))

		Convey("Then it starts empty", func() {
			So(g.Size(), ShouldEqual, 0)
			So(g.Count(ctx, "missing"), ShouldEqual, 0)
		})

		Convey("When the same key is added twice", func() {
			first := g.Add(ctx, "a")
			second := g.Add(ctx, "a")

			Convey("Then the group grows and the key is counted once", func() {
				So(first, ShouldEqual, 1)
				So(second, ShouldEqual, 2)
				So(g.Count(ctx, "a"), ShouldEqual, 2)
				So(g.Size(), ShouldEqual, 1)
			})
		})

		Convey("When keys are added concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						g.Add(ctx, fmt.Sprintf("key-%d", j%5))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every addition is counted", func() {
				So(g.Size(), ShouldEqual, 5)
				for j := 0; j < 5; j++ {
					So(g.Count(ctx, fmt.Sprintf("key-%d", j)), ShouldEqual, 200)
				}
			})
		})
	})
}

func TestTicketKey(t *testing.T) {
	Convey("Given tickets on the same vessel", t, func() {
		morning := time.Date(2025, 10, 30, 8, 0, 0, 0, time.UTC)
		evening := time.Date(2025, 10, 30, 20, 0, 0, 0, time.UTC)
		nextDay := morning.Add(24 * time.Hour)

		a := model.Ticket{VesselID: "V1", Date: morning, DateValid: true, Amount: 50}
		b := model.Ticket{VesselID: "V1", Date: evening, DateValid: true, Amount: 50}
		c := model.Ticket{VesselID: "V1", Date: nextDay, DateValid: true, Amount: 50}
		d := model.Ticket{VesselID: "V1", Date: morning, DateValid: true, Amount: 50.5}
		e := model.Ticket{VesselID: "V2", Date: morning, DateValid: true, Amount: 50}
		bad1 := model.Ticket{VesselID: "V1", Amount: 50}
		bad2 := model.Ticket{VesselID: "V1", Amount: 50}

		Convey("Then same vessel, day and amount share a key", func() {
			So(dedupe.TicketKey(a), ShouldEqual, dedupe.TicketKey(b))
		})

		Convey("Then a different day, amount or vessel changes the key", func() {
			So(dedupe.TicketKey(a), ShouldNotEqual, dedupe.TicketKey(c))
			So(dedupe.TicketKey(a), ShouldNotEqual, dedupe.TicketKey(d))
			So(dedupe.TicketKey(a), ShouldNotEqual, dedupe.TicketKey(e))
		})

		Convey("Then invalid-date tickets group only with each other", func() {
			So(dedupe.TicketKey(bad1), ShouldEqual, dedupe.TicketKey(bad2))
			So(dedupe.TicketKey(bad1), ShouldNotEqual, dedupe.TicketKey(a))
		})

		Convey("Then a negative zero amount groups with zero", func() {
			zero := model.Ticket{VesselID: "V1", Date: morning, DateValid: true}
			negZero := model.Ticket{VesselID: "V1", Date: evening, DateValid: true, Amount: math.Copysign(0, -1)}
			So(dedupe.TicketKey(negZero), ShouldEqual, dedupe.TicketKey(zero))
		})
	})
}
