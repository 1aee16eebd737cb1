// Package scoring implements the competition scoring formula.
//
// Formula:
//
//	fT(t) = 1 - (t_submit / T_task)
//	score = max(0, P_base + (P_max - P_base)·fT(t) - k·P_penalty) × correctness_factor
//
// The correctness factor gates on completeness per task type and is weighted
// by the average match quality from tolerance-based event matching.
package scoring

import (
	"fmt"
	"math"

	"github.com/vrbench/refbox/internal/domain/match"
	"github.com/vrbench/refbox/internal/domain/model"
)

// Tolerance defaults per value domain.
const (
	// ToleranceMillis applies to KIS/QA values (milliseconds).
	ToleranceMillis = 2500
	// ToleranceFrames applies to TR values (frame indices).
	ToleranceFrames = 12
)

// TR partial-credit thresholds (percent of events matched).
const (
	trFullPct = 100.0
	trHalfPct = 50.0
	trHalf    = 0.5
)

// TimeFactor computes fT(t) in [0, 1], monotonically non-increasing in
// tSubmit. Zero once tSubmit reaches the time limit.
func TimeFactor(tSubmit, timeLimit float64) float64 {
	if tSubmit >= timeLimit {
		return 0.0
	}
	return 1.0 - tSubmit/timeLimit
}

// CorrectnessFactor combines completeness and match quality per task type.
//
// KIS/QA score all-or-nothing on completeness; quality only matters once all
// events matched. TR allows partial credit: 100% matched keeps full quality,
// 50-99% halves it, below 50% scores nothing.
func CorrectnessFactor(matched, total int, task model.TaskType, avgQuality float64) float64 {
	if total == 0 {
		return 0.0
	}

	switch task {
	case model.TaskKIS, model.TaskQA:
		if matched == total {
			return avgQuality
		}
		return 0.0
	case model.TaskTR:
		pct := float64(matched) / float64(total) * 100
		switch {
		case pct >= trFullPct:
			return avgQuality
		case pct >= trHalfPct:
			return avgQuality * trHalf
		default:
			return 0.0
		}
	}
	return 0.0
}

// ToleranceFor selects the matching tolerance for a task type.
func ToleranceFor(task model.TaskType) int {
	if task == model.TaskTR {
		return ToleranceFrames
	}
	return ToleranceMillis
}

// Breakdown carries the final score together with its diagnostic components.
type Breakdown struct {
	Score             float64 `json:"score"`
	CorrectnessFactor float64 `json:"correctness_factor"`
	MatchQuality      float64 `json:"match_quality"`
	TimeFactor        float64 `json:"time_factor"`
	BaseScore         float64 `json:"base_score"`
	Penalty           float64 `json:"penalty"`
	Percentage        float64 `json:"percentage"`
	Matched           int     `json:"matched_events"`
	Total             int     `json:"total_events"`
	Message           string  `json:"message,omitempty"`
}

// Correct reports whether this breakdown counts as a correct submission for
// ledger purposes.
func (b Breakdown) Correct() bool {
	return b.CorrectnessFactor > 0
}

// Full reports whether the submission was fully correct (no quality or
// completeness discount).
func (b Breakdown) Full() bool {
	return b.CorrectnessFactor == 1.0
}

// FinalScore applies the competition formula. k is the number of wrong
// attempts accumulated before this submission.
func FinalScore(matched, total int, task model.TaskType, tSubmit float64, k int, params model.ScoringParams, avgQuality float64) Breakdown {
	fT := TimeFactor(tSubmit, params.TimeLimit)
	correctness := CorrectnessFactor(matched, total, task, avgQuality)

	percentage := 0.0
	if total > 0 {
		percentage = float64(matched) / float64(total) * 100
	}

	base := params.PBase + (params.PMax-params.PBase)*fT
	penalty := float64(k) * params.PPenalty
	preCorrectness := math.Max(0, base-penalty)

	return Breakdown{
		Score:             round2(preCorrectness * correctness),
		CorrectnessFactor: round4(correctness),
		MatchQuality:      round4(avgQuality),
		TimeFactor:        round4(fT),
		BaseScore:         round2(base),
		Penalty:           penalty,
		Percentage:        round2(percentage),
		Matched:           matched,
		Total:             total,
	}
}

// Evaluate runs the full scoring pipeline for one submission against one
// ground truth: scene/video gate, QA answer gate, tolerance matching, then
// the scoring formula. A zero-score Breakdown with a Message is a business
// outcome, not an error; only an unsupported task type is an error.
func Evaluate(sub model.NormalizedSubmission, gt model.GroundTruth, elapsed float64, k int, params model.ScoringParams) (Breakdown, error) {
	if !gt.Type.Valid() {
		return Breakdown{}, fmt.Errorf("%w: %q", model.ErrUnsupportedTaskType, string(gt.Type))
	}

	if sub.SceneID != gt.SceneID || sub.VideoID != gt.VideoID {
		return rejected(gt, elapsed, k, params, fmt.Sprintf(
			"wrong video/scene: expected %s_%s, got %s_%s",
			gt.SceneID, gt.VideoID, sub.SceneID, sub.VideoID,
		)), nil
	}

	// QA questions with an answer key require the exact text before any
	// event matching happens. No normalization, no case folding.
	if gt.Type == model.TaskQA && gt.Answer != "" {
		if sub.Answer == "" {
			return rejected(gt, elapsed, k, params, "QA answer text is required but not provided"), nil
		}
		if sub.Answer != gt.Answer {
			return rejected(gt, elapsed, k, params, fmt.Sprintf(
				"wrong QA answer: expected %q, got %q", gt.Answer, sub.Answer,
			)), nil
		}
	}

	res := match.Values(sub.Values, gt.Events(), ToleranceFor(gt.Type))
	return FinalScore(res.Matched, res.Total, gt.Type, elapsed, k, params, res.AvgQuality), nil
}

// rejected builds the zero-score breakdown for gate failures. Time factor and
// penalty diagnostics are still populated for client display.
func rejected(gt model.GroundTruth, elapsed float64, k int, params model.ScoringParams, msg string) Breakdown {
	return Breakdown{
		TimeFactor: round4(TimeFactor(elapsed, params.TimeLimit)),
		Penalty:    float64(k) * params.PPenalty,
		Total:      gt.EventCount(),
		Message:    msg,
	}
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
