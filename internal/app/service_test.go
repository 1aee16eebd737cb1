package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vrbench/refbox/internal/adapters/audit"
	"github.com/vrbench/refbox/internal/adapters/normalize"
	"github.com/vrbench/refbox/internal/adapters/repository"
	"github.com/vrbench/refbox/internal/app"
	"github.com/vrbench/refbox/internal/domain/model"
	"github.com/vrbench/refbox/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeClock is a mutable clock safe for concurrent readers.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testStore() *repository.MemoryStore {
	store := repository.NewMemoryStore()
	_ = store.Put(model.GroundTruth{
		QuestionID: 1,
		Type:       model.TaskKIS,
		SceneID:    "L26",
		VideoID:    "V017",
		Points:     []int{10000, 10050},
	})
	_ = store.Put(model.GroundTruth{
		QuestionID: 3,
		Type:       model.TaskTR,
		SceneID:    "L26",
		VideoID:    "V017",
		Points:     []int{100, 200, 1000, 1100},
	})
	return store
}

func kisPayload(start string) normalize.Payload {
	return normalize.Payload{
		AnswerSets: []normalize.AnswerSet{{
			Answers: []normalize.Answer{{MediaItemName: "L26_V017", Start: start}},
		}},
	}
}

func newService(clock *fakeClock) *app.Service {
	return app.New(
		app.WithStore(testStore()),
		app.WithClock(clock.Now),
		app.WithFakeTeams(0, 0),
	)
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service without a ground-truth store", t, func() {
		svc := app.New()

		Convey("When starting it", func() {
			err := svc.Start(ctx)

			Convey("Then it refuses to start", func() {
				So(errors.Is(err, app.ErrNoGroundTruth), ShouldBeTrue)
			})
		})
	})

	Convey("Given a configured service", t, func() {
		svc := newService(newFakeClock())

		Convey("When starting and stopping it", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then start is idempotent and stop is clean", func() {
				So(svc.Start(ctx), ShouldBeNil)
				svc.Stop()
				svc.Stop()
			})
		})

		Convey("When listing questions", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()
			questions := svc.Questions(ctx)

			Convey("Then the loaded ground truth is described", func() {
				So(questions, ShouldHaveLength, 2)
				So(questions[0].ID, ShouldEqual, 1)
				So(questions[0].Type, ShouldEqual, "KIS")
				So(questions[0].NumEvents, ShouldEqual, 1)
				So(questions[1].ID, ShouldEqual, 3)
				So(questions[1].NumEvents, ShouldEqual, 2)
			})
		})
	})
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with an active question", t, func() {
		clock := newFakeClock()
		svc := newService(clock)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.StartQuestion(ctx, 1, model.ScoringParams{})
		So(err, ShouldBeNil)

		Convey("When a team submits the correct answer", func() {
			view, err := svc.Submit(ctx, "team-a", "Team A", 1, kisPayload("10025"))

			Convey("Then it scores with a full verdict", func() {
				So(err, ShouldBeNil)
				So(view.Verdict, ShouldEqual, audit.VerdictFull)
				So(view.Outcome.Correct, ShouldBeTrue)
				So(view.Outcome.FinalScore, ShouldEqual, 100.0)
			})

			Convey("And submitting again", func() {
				again, err := svc.Submit(ctx, "team-a", "Team A", 1, kisPayload("10025"))

				Convey("Then the verdict is already completed", func() {
					So(err, ShouldBeNil)
					So(again.Verdict, ShouldEqual, audit.VerdictAlreadyCompleted)
					So(again.Outcome.FinalScore, ShouldEqual, 100.0)
				})
			})
		})

		Convey("When a team submits a wrong answer", func() {
			view, err := svc.Submit(ctx, "team-b", "Team B", 1, kisPayload("999999"))

			Convey("Then the verdict is incorrect and the attempt is counted", func() {
				So(err, ShouldBeNil)
				So(view.Verdict, ShouldEqual, audit.VerdictIncorrect)
				So(view.Outcome.WrongCount, ShouldEqual, 1)
			})
		})

		Convey("When submitting to an unknown question", func() {
			_, err := svc.Submit(ctx, "team-a", "Team A", 99, kisPayload("10025"))

			Convey("Then it fails with ErrUnknownQuestion", func() {
				So(errors.Is(err, session.ErrUnknownQuestion), ShouldBeTrue)
			})
		})

		Convey("When submitting an invalid payload", func() {
			_, err := svc.Submit(ctx, "team-a", "Team A", 1, normalize.Payload{})

			Convey("Then it fails with ErrInvalidPayload", func() {
				So(errors.Is(err, normalize.ErrInvalidPayload), ShouldBeTrue)
			})
		})

		Convey("When a TR submission matches half the events", func() {
			_, err := svc.StartQuestion(ctx, 3, model.ScoringParams{})
			So(err, ShouldBeNil)

			trPayload := normalize.Payload{
				AnswerSets: []normalize.AnswerSet{{
					Answers: []normalize.Answer{{Text: "TR-L26_V017-150"}},
				}},
			}
			view, err := svc.Submit(ctx, "team-c", "Team C", 3, trPayload)

			Convey("Then the verdict is partial", func() {
				So(err, ShouldBeNil)
				So(view.Verdict, ShouldEqual, audit.VerdictPartial)
				So(view.Outcome.Correct, ShouldBeTrue)
				So(view.Outcome.Breakdown.Full(), ShouldBeFalse)
			})
		})
	})
}

func TestServiceTeams(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := newService(newFakeClock())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When resolving an empty token", func() {
			id, name, ok := svc.ResolveTeam("")

			Convey("Then the default team is used", func() {
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, "0THING2LOSE")
				So(name, ShouldEqual, "0THING2LOSE")
			})
		})

		Convey("When resolving a registered token", func() {
			team, err := svc.RegisterTeam(ctx, "Resolvers")
			So(err, ShouldBeNil)

			id, name, ok := svc.ResolveTeam(team.Token)

			Convey("Then the registered identity comes back", func() {
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, team.ID)
				So(name, ShouldEqual, "Resolvers")
			})
		})

		Convey("When resolving an unknown token", func() {
			_, _, ok := svc.ResolveTeam("bogus")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestServiceLeaderboard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service without fake teams", t, func() {
		clock := newFakeClock()
		svc := newService(clock)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When no question is active", func() {
			view := svc.Leaderboard(ctx, 0)

			Convey("Then the view is empty", func() {
				So(view.ActiveQuestionID, ShouldEqual, 0)
				So(view.TotalTeams, ShouldEqual, 0)
			})
		})

		Convey("When a question is active and a team completed", func() {
			_, err := svc.StartQuestion(ctx, 1, model.ScoringParams{})
			So(err, ShouldBeNil)
			_, err = svc.Submit(ctx, "team-a", "Team A", 1, kisPayload("10025"))
			So(err, ShouldBeNil)

			view := svc.Leaderboard(ctx, 0)

			Convey("Then the default question resolves to the active one", func() {
				So(view.ActiveQuestionID, ShouldEqual, 1)
				So(view.TotalTeams, ShouldEqual, 1)
				So(view.Teams[0].TeamID, ShouldEqual, "team-a")
				So(view.Teams[0].Rank, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service with fake teams", t, func() {
		clock := newFakeClock()
		svc := app.New(
			app.WithStore(testStore()),
			app.WithClock(clock.Now),
			app.WithFakeTeams(15, 42),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.StartQuestion(ctx, 1, model.ScoringParams{})
		So(err, ShouldBeNil)
		_, err = svc.Submit(ctx, "team-a", "Team A", 1, kisPayload("10025"))
		So(err, ShouldBeNil)

		Convey("When reading the merged leaderboard", func() {
			view := svc.Leaderboard(ctx, 1)

			Convey("Then the real team appears among ranked synthetic ones", func() {
				So(view.TotalTeams, ShouldBeGreaterThan, 1)
				found := false
				for i, entry := range view.Teams {
					So(entry.Rank, ShouldEqual, i+1)
					if entry.TeamID == "team-a" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})

			Convey("Then repeated reads are stable", func() {
				again := svc.Leaderboard(ctx, 1)
				So(again.TotalTeams, ShouldEqual, view.TotalTeams)
			})
		})

		Convey("When resetting all sessions", func() {
			cleared := svc.ResetAll(ctx)

			Convey("Then overlays are discarded with the sessions", func() {
				So(cleared, ShouldEqual, 1)
				view := svc.Leaderboard(ctx, 1)
				So(view.TotalTeams, ShouldEqual, 0)
			})
		})
	})
}

func TestServiceStats(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with activity", t, func() {
		clock := newFakeClock()
		svc := newService(clock)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.StartQuestion(ctx, 1, model.ScoringParams{})
		So(err, ShouldBeNil)
		_, err = svc.RegisterTeam(ctx, "Statisticians")
		So(err, ShouldBeNil)
		So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then the counters reflect the state", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["questions_loaded"], ShouldEqual, 2)
				So(stats["sessions"], ShouldEqual, 1)
				So(stats["active_sessions"], ShouldEqual, 1)
				So(stats["registered_teams"], ShouldEqual, 1)
				So(stats["dedupe_size"], ShouldEqual, 1)
			})
		})

		Convey("When a duplicate key is released", func() {
			So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeTrue)
			svc.Unrecord(ctx, "sub-1")
			So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
		})
	})
}
