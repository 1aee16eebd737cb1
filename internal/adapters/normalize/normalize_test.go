package normalize_test

import (
	"errors"
	"testing"

	"github.com/vrbench/refbox/internal/adapters/normalize"
	"github.com/vrbench/refbox/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeKIS(t *testing.T) {
	Convey("Given a KIS payload with media item name and start timestamps", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{
					{MediaItemName: "L26_V017", Start: "4890"},
					{MediaItemName: "L26_V017", Start: "5010"},
				},
			}},
		}

		Convey("When normalizing", func() {
			sub, err := normalize.Submission(p, 1, model.TaskKIS)

			Convey("Then scene, video, and values are extracted", func() {
				So(err, ShouldBeNil)
				So(sub.QuestionID, ShouldEqual, 1)
				So(sub.Type, ShouldEqual, model.TaskKIS)
				So(sub.SceneID, ShouldEqual, "L26")
				So(sub.VideoID, ShouldEqual, "V017")
				So(sub.Values, ShouldResemble, []int{4890, 5010})
			})
		})
	})

	Convey("Given a KIS payload with a malformed media item name", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{{MediaItemName: "L26V017", Start: "4890"}},
			}},
		}

		_, err := normalize.Submission(p, 1, model.TaskKIS)

		Convey("Then normalization fails", func() {
			So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "mediaItemName")
		})
	})

	Convey("Given a KIS payload with a non-numeric start", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{{MediaItemName: "L26_V017", Start: "abc"}},
			}},
		}

		_, err := normalize.Submission(p, 1, model.TaskKIS)

		Convey("Then normalization fails", func() {
			So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
		})
	})
}

func TestNormalizeQA(t *testing.T) {
	Convey("Given a QA payload with answer text grammar", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{{Text: "QA-silver key-L12_V003-7500,8200"}},
			}},
		}

		Convey("When normalizing", func() {
			sub, err := normalize.Submission(p, 2, model.TaskQA)

			Convey("Then answer, scene, video, and values parse", func() {
				So(err, ShouldBeNil)
				So(sub.Answer, ShouldEqual, "silver key")
				So(sub.SceneID, ShouldEqual, "L12")
				So(sub.VideoID, ShouldEqual, "V003")
				So(sub.Values, ShouldResemble, []int{7500, 8200})
			})
		})
	})

	Convey("Given QA answers with conflicting scene ids", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{
					{Text: "QA-key-L12_V003-7500"},
					{Text: "QA-key-L13_V003-8200"},
				},
			}},
		}

		_, err := normalize.Submission(p, 2, model.TaskQA)

		Convey("Then normalization fails on the mismatch", func() {
			So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "scene id mismatch")
		})
	})

	Convey("Given a QA answer that does not match the grammar", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{{Text: "just some text"}},
			}},
		}

		_, err := normalize.Submission(p, 2, model.TaskQA)

		Convey("Then normalization fails", func() {
			So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
		})
	})
}

func TestNormalizeTR(t *testing.T) {
	Convey("Given a TR payload with comma-separated frame ids", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{{Text: "TR-L26_V017-246,306"}},
			}},
		}

		Convey("When normalizing", func() {
			sub, err := normalize.Submission(p, 3, model.TaskTR)

			Convey("Then frames parse as values", func() {
				So(err, ShouldBeNil)
				So(sub.SceneID, ShouldEqual, "L26")
				So(sub.VideoID, ShouldEqual, "V017")
				So(sub.Values, ShouldResemble, []int{246, 306})
			})
		})
	})

	Convey("Given a TR payload with more than one answer", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{
					{Text: "TR-L26_V017-246"},
					{Text: "TR-L26_V017-306"},
				},
			}},
		}

		_, err := normalize.Submission(p, 3, model.TaskTR)

		Convey("Then normalization fails", func() {
			So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
		})
	})

	Convey("Given a TR answer without frame ids", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{{Text: "TR-L26_V017-,"}},
			}},
		}

		_, err := normalize.Submission(p, 3, model.TaskTR)

		Convey("Then normalization fails", func() {
			So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
		})
	})
}

func TestNormalizeEdgeCases(t *testing.T) {
	Convey("Given an empty payload", t, func() {
		_, err := normalize.Submission(normalize.Payload{}, 1, model.TaskKIS)

		Convey("Then normalization fails", func() {
			So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
		})
	})

	Convey("Given an unsupported task type", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{{
				Answers: []normalize.Answer{{Text: "whatever"}},
			}},
		}
		_, err := normalize.Submission(p, 1, model.TaskType("XX"))

		Convey("Then the task type error surfaces", func() {
			So(errors.Is(err, model.ErrUnsupportedTaskType), ShouldBeTrue)
		})
	})

	Convey("Given multiple answer sets", t, func() {
		p := normalize.Payload{
			AnswerSets: []normalize.AnswerSet{
				{Answers: []normalize.Answer{{Text: "TR-L01_V001-100"}}},
				{Answers: []normalize.Answer{{Text: "TR-L99_V999-999"}}},
			},
		}

		Convey("When normalizing", func() {
			sub, err := normalize.Submission(p, 3, model.TaskTR)

			Convey("Then only the first set is considered", func() {
				So(err, ShouldBeNil)
				So(sub.SceneID, ShouldEqual, "L01")
				So(sub.Values, ShouldResemble, []int{100})
			})
		})
	})
}
