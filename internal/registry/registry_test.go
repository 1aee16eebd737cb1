package registry_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vrbench/refbox/internal/registry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		r := registry.New()

		Convey("When registering a team", func() {
			team, err := r.Register("Team Rocket")

			Convey("Then it gets an id, name, and token", func() {
				So(err, ShouldBeNil)
				So(team.Name, ShouldEqual, "Team Rocket")
				So(team.ID, ShouldStartWith, "team-team-rocket-")
				So(team.Token, ShouldNotBeEmpty)
				So(r.Count(), ShouldEqual, 1)
			})

			Convey("Then the token resolves back to the team", func() {
				got, ok := r.ByToken(team.Token)
				So(ok, ShouldBeTrue)
				So(got.ID, ShouldEqual, team.ID)
			})

			Convey("Then the id resolves to the display name", func() {
				So(r.Name(team.ID), ShouldEqual, "Team Rocket")
			})
		})

		Convey("When registering with surrounding whitespace", func() {
			team, err := r.Register("  Spacey  ")

			Convey("Then the name is trimmed", func() {
				So(err, ShouldBeNil)
				So(team.Name, ShouldEqual, "Spacey")
			})
		})

		Convey("When registering an empty name", func() {
			_, err := r.Register("   ")

			Convey("Then it fails with ErrEmptyName", func() {
				So(errors.Is(err, registry.ErrEmptyName), ShouldBeTrue)
			})
		})

		Convey("When registering a very long name", func() {
			team, err := r.Register(strings.Repeat("x", 60))

			Convey("Then the id slug is bounded", func() {
				So(err, ShouldBeNil)
				// "team-" + 20 char slug + "-" + 6 hex chars
				So(len(team.ID), ShouldEqual, 5+20+1+6)
			})
		})

		Convey("When registering the same name twice", func() {
			a, err := r.Register("Copycats")
			So(err, ShouldBeNil)
			b, err := r.Register("Copycats")
			So(err, ShouldBeNil)

			Convey("Then the teams stay distinct", func() {
				So(a.ID, ShouldNotEqual, b.ID)
				So(a.Token, ShouldNotEqual, b.Token)
				So(r.Count(), ShouldEqual, 2)
			})
		})

		Convey("When resolving an unknown token", func() {
			_, ok := r.ByToken("nope")
			So(ok, ShouldBeFalse)
		})

		Convey("When resolving an unregistered id", func() {
			Convey("Then the id itself is the fallback name", func() {
				So(r.Name("ghost"), ShouldEqual, "ghost")
			})
		})
	})
}
