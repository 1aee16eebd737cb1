// Package normalize translates transport-specific answer payloads into the
// canonical submission shape consumed by the scoring core.
//
// Grammars per task type:
//
//	KIS: answers with mediaItemName "<SCENE>_<VIDEO>" and a start timestamp (ms)
//	QA:  answer text "QA-<ANSWER>-<SCENE>_<VIDEO>-<MS1>,<MS2>,..."
//	TR:  one answer text "TR-<SCENE>_<VIDEO>-<FRAME1>,<FRAME2>,..."
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vrbench/refbox/internal/domain/model"
)

// Answer is one raw answer inside a payload. Which fields are set depends on
// the task type.
type Answer struct {
	MediaItemName string `json:"mediaItemName,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	Text          string `json:"text,omitempty"`
}

// AnswerSet groups the answers of one submission attempt.
type AnswerSet struct {
	Answers []Answer `json:"answers"`
}

// Payload mirrors the wire shape of a submission request body.
type Payload struct {
	AnswerSets []AnswerSet `json:"answerSets"`
}

var (
	qaPattern = regexp.MustCompile(`^QA-(.+?)-([A-Za-z0-9]+)_([A-Za-z0-9]+)-(.+)$`)
	trPattern = regexp.MustCompile(`^TR-([A-Za-z0-9]+)_([A-Za-z0-9]+)-(.+)$`)
)

// Submission normalizes a payload for the given question and task type.
func Submission(p Payload, questionID int, task model.TaskType) (model.NormalizedSubmission, error) {
	answers := firstAnswers(p)
	if len(answers) == 0 {
		return model.NormalizedSubmission{}, fmt.Errorf("%w: no answers provided in answerSets", ErrInvalidPayload)
	}

	switch task {
	case model.TaskKIS:
		return normalizeKIS(answers, questionID)
	case model.TaskQA:
		return normalizeQA(answers, questionID)
	case model.TaskTR:
		return normalizeTR(answers, questionID)
	}
	return model.NormalizedSubmission{}, fmt.Errorf("%w: %q", model.ErrUnsupportedTaskType, string(task))
}

// firstAnswers returns the answers of the first answer set; later sets are
// ignored, matching the wire contract.
func firstAnswers(p Payload) []Answer {
	if len(p.AnswerSets) == 0 {
		return nil
	}
	return p.AnswerSets[0].Answers
}

func normalizeKIS(answers []Answer, questionID int) (model.NormalizedSubmission, error) {
	var values []int
	sceneID, videoID := "", ""

	for _, a := range answers {
		if sceneID == "" || videoID == "" {
			media := strings.TrimSpace(a.MediaItemName)
			idx := strings.Index(media, "_")
			if idx <= 0 {
				return model.NormalizedSubmission{}, fmt.Errorf(
					"%w: invalid mediaItemName, expected <SCENE_ID>_<VIDEO_ID>, got %q", ErrInvalidPayload, media)
			}
			sceneID = media[:idx]
			videoID = media[idx+1:]
		}

		start := strings.TrimSpace(a.Start)
		if start == "" {
			continue
		}
		v, err := strconv.Atoi(start)
		if err != nil {
			return model.NormalizedSubmission{}, fmt.Errorf("%w: invalid start timestamp %q", ErrInvalidPayload, start)
		}
		values = append(values, v)
	}

	if sceneID == "" || videoID == "" {
		return model.NormalizedSubmission{}, fmt.Errorf("%w: no valid mediaItemName found in KIS answers", ErrInvalidPayload)
	}
	return model.NormalizedSubmission{
		QuestionID: questionID,
		Type:       model.TaskKIS,
		SceneID:    sceneID,
		VideoID:    videoID,
		Values:     values,
	}, nil
}

func normalizeQA(answers []Answer, questionID int) (model.NormalizedSubmission, error) {
	var values []int
	sceneID, videoID, answerText := "", "", ""

	for _, a := range answers {
		text := strings.TrimSpace(a.Text)
		m := qaPattern.FindStringSubmatch(text)
		if m == nil {
			return model.NormalizedSubmission{}, fmt.Errorf(
				"%w: invalid QA answer, expected QA-<ANSWER>-<SCENE_ID>_<VIDEO_ID>-<MS>, got %q", ErrInvalidPayload, text)
		}

		if answerText == "" {
			answerText = m[1]
		}
		if sceneID == "" {
			sceneID = m[2]
		} else if sceneID != m[2] {
			return model.NormalizedSubmission{}, fmt.Errorf("%w: scene id mismatch: %s vs %s", ErrInvalidPayload, sceneID, m[2])
		}
		if videoID == "" {
			videoID = m[3]
		} else if videoID != m[3] {
			return model.NormalizedSubmission{}, fmt.Errorf("%w: video id mismatch: %s vs %s", ErrInvalidPayload, videoID, m[3])
		}

		parsed, err := parseInts(m[4])
		if err != nil {
			return model.NormalizedSubmission{}, err
		}
		values = append(values, parsed...)
	}

	return model.NormalizedSubmission{
		QuestionID: questionID,
		Type:       model.TaskQA,
		SceneID:    sceneID,
		VideoID:    videoID,
		Values:     values,
		Answer:     answerText,
	}, nil
}

func normalizeTR(answers []Answer, questionID int) (model.NormalizedSubmission, error) {
	if len(answers) > 1 {
		return model.NormalizedSubmission{}, fmt.Errorf(
			"%w: TR expects exactly one answer with comma-separated frame ids", ErrInvalidPayload)
	}

	text := strings.TrimSpace(answers[0].Text)
	m := trPattern.FindStringSubmatch(text)
	if m == nil {
		return model.NormalizedSubmission{}, fmt.Errorf(
			"%w: invalid TR answer, expected TR-<SCENE_ID>_<VIDEO_ID>-<FRAME_IDS>, got %q", ErrInvalidPayload, text)
	}

	values, err := parseInts(m[3])
	if err != nil {
		return model.NormalizedSubmission{}, err
	}
	if len(values) == 0 {
		return model.NormalizedSubmission{}, fmt.Errorf("%w: no frame ids found in TR answer", ErrInvalidPayload)
	}

	return model.NormalizedSubmission{
		QuestionID: questionID,
		Type:       model.TaskTR,
		SceneID:    m[1],
		VideoID:    m[2],
		Values:     values,
	}, nil
}

// parseInts splits a comma-separated value list, skipping empty tokens.
func parseInts(s string) ([]int, error) {
	var out []int
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		v, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid integer value %q", ErrInvalidPayload, token)
		}
		out = append(out, v)
	}
	return out, nil
}
