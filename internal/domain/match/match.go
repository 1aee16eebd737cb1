// Package match computes distance-weighted match quality between submitted
// values and ground-truth events.
package match

import (
	"math"

	"github.com/vrbench/refbox/internal/domain/model"
)

// Result summarizes how a set of submitted values matched the ground-truth
// events of a question.
type Result struct {
	// Matched is the number of distinct events with a positive recorded quality.
	Matched int
	// Total is the number of ground-truth events.
	Total int
	// AvgQuality is the sum of recorded per-event qualities divided by Total.
	// Unmatched events contribute zero and drag the average down.
	AvgQuality float64
}

// Quality returns the match quality of a single value against a single event.
//
// The quality is 1.0 at the event center, decays linearly to 0.5 at the
// tolerance boundary (half range + tolerance away from the center), and is
// 0.0 beyond it.
func Quality(value int, ev model.Event, tolerance int) float64 {
	center := float64(ev.Start+ev.End) / 2.0
	halfRange := float64(ev.End-ev.Start) / 2.0
	maxDistance := halfRange + float64(tolerance)

	distance := math.Abs(float64(value) - center)
	if distance > maxDistance {
		return 0.0
	}
	return 1.0 - 0.5*(distance/maxDistance)
}

// Values matches every submitted value against the events and aggregates the
// per-event best qualities.
//
// Each value independently elects the single event it matches best (greedy
// best fit; on equal quality the first event wins). An event elected by
// several values keeps only the highest quality. The assignment is
// deliberately not globally optimal: two values can both prefer the same
// event and leave another one unmatched even when a different pairing would
// have matched both.
func Values(values []int, events []model.Event, tolerance int) Result {
	total := len(events)
	if total == 0 {
		return Result{}
	}

	best := make(map[int]float64, total)
	for _, v := range values {
		bestIdx := -1
		bestQuality := 0.0
		for idx, ev := range events {
			q := Quality(v, ev, tolerance)
			if q > 0 && q > bestQuality {
				bestIdx = idx
				bestQuality = q
			}
		}
		if bestIdx >= 0 && bestQuality > best[bestIdx] {
			best[bestIdx] = bestQuality
		}
	}

	if len(best) == 0 {
		return Result{Total: total}
	}

	var sum float64
	for _, q := range best {
		sum += q
	}
	return Result{
		Matched:    len(best),
		Total:      total,
		AvgQuality: sum / float64(total),
	}
}
