package match_test

import (
	"testing"

	"github.com/vrbench/refbox/internal/domain/match"
	"github.com/vrbench/refbox/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQuality(t *testing.T) {
	Convey("Given a ground-truth event (10000, 10050) with tolerance 12", t, func() {
		ev := model.Event{Start: 10000, End: 10050}
		tolerance := 12

		Convey("When the value hits the event center", func() {
			q := match.Quality(10025, ev, tolerance)

			Convey("Then quality should be 1.0", func() {
				So(q, ShouldEqual, 1.0)
			})
		})

		Convey("When the value sits exactly on the tolerance boundary", func() {
			// center 10025, half range 25, max distance 37
			q := match.Quality(10062, ev, tolerance)

			Convey("Then quality should be 0.5", func() {
				So(q, ShouldEqual, 0.5)
			})
		})

		Convey("When the value is one unit past the boundary", func() {
			q := match.Quality(10063, ev, tolerance)

			Convey("Then quality should be 0.0", func() {
				So(q, ShouldEqual, 0.0)
			})
		})

		Convey("When the value is below the event on the boundary", func() {
			q := match.Quality(9988, ev, tolerance)

			Convey("Then quality should be symmetric", func() {
				So(q, ShouldEqual, 0.5)
			})
		})

		Convey("When the value falls between center and boundary", func() {
			q := match.Quality(10044, ev, tolerance)

			Convey("Then quality should decay linearly", func() {
				// distance 19 of max 37
				So(q, ShouldAlmostEqual, 1.0-0.5*(19.0/37.0), 1e-9)
			})
		})
	})
}

func TestValues(t *testing.T) {
	Convey("Given two disjoint events", t, func() {
		events := []model.Event{
			{Start: 1000, End: 2000},
			{Start: 10000, End: 11000},
		}

		Convey("When both values hit their event centers", func() {
			res := match.Values([]int{1500, 10500}, events, 100)

			Convey("Then both events match at full quality", func() {
				So(res.Matched, ShouldEqual, 2)
				So(res.Total, ShouldEqual, 2)
				So(res.AvgQuality, ShouldEqual, 1.0)
			})
		})

		Convey("When only one value matches", func() {
			res := match.Values([]int{1500, 500_000}, events, 100)

			Convey("Then the average is dragged down by the unmatched event", func() {
				So(res.Matched, ShouldEqual, 1)
				So(res.Total, ShouldEqual, 2)
				So(res.AvgQuality, ShouldEqual, 0.5)
			})
		})

		Convey("When no value matches anything", func() {
			res := match.Values([]int{500_000}, events, 100)

			Convey("Then the result is empty but keeps the total", func() {
				So(res.Matched, ShouldEqual, 0)
				So(res.Total, ShouldEqual, 2)
				So(res.AvgQuality, ShouldEqual, 0.0)
			})
		})

		Convey("When there are no submitted values", func() {
			res := match.Values(nil, events, 100)

			Convey("Then nothing matches", func() {
				So(res.Matched, ShouldEqual, 0)
				So(res.Total, ShouldEqual, 2)
			})
		})
	})

	Convey("Given no ground-truth events", t, func() {
		res := match.Values([]int{42}, nil, 100)

		Convey("Then the result is all zeros", func() {
			So(res.Matched, ShouldEqual, 0)
			So(res.Total, ShouldEqual, 0)
			So(res.AvgQuality, ShouldEqual, 0.0)
		})
	})

	Convey("Given two values that both prefer the same event", t, func() {
		// Both values sit closest to the first event's center even though the
		// second value could have matched the second event.
		events := []model.Event{
			{Start: 1000, End: 1100},
			{Start: 1400, End: 1500},
		}

		Convey("When matching with a generous tolerance", func() {
			res := match.Values([]int{1050, 1060}, events, 500)

			Convey("Then the greedy assignment leaves one event unmatched", func() {
				So(res.Matched, ShouldEqual, 1)
				So(res.Total, ShouldEqual, 2)
			})

			Convey("Then the elected event keeps only its best quality", func() {
				So(res.AvgQuality, ShouldEqual, 0.5) // 1.0 from the center hit, divided by total 2
			})
		})
	})
}
