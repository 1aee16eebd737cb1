package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/vrbench/refbox/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When recording a fresh key", func() {
			seen := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then it is reported as new and tracked", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording the same key twice", func() {
			d.SeenAndRecord(ctx, "sub-1")
			seen := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then the second record reports a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a key", func() {
			d.SeenAndRecord(ctx, "sub-1")
			d.Unrecord(ctx, "sub-1")

			Convey("Then the key can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown key", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a deduper bounded to 3 keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When recording beyond the bound", func() {
			for i := 1; i <= 4; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i)), ShouldBeFalse)
			}

			Convey("Then the oldest key is evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse) // evicted, so new again
				So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent recorders of the same key", t, func() {
		d := dedupe.NewInMemoryDeduper()

		const workers = 32
		results := make([]bool, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = d.SeenAndRecord(ctx, "contested")
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one caller wins", func() {
			winners := 0
			for _, seen := range results {
				if !seen {
					winners++
				}
			}
			So(winners, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
