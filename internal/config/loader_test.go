package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vrbench/refbox/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.New()

		Convey("Then it carries the competition defaults", func() {
			So(cfg.Addr, ShouldEqual, ":8000")
			So(cfg.PMax, ShouldEqual, 100.0)
			So(cfg.PBase, ShouldEqual, 50.0)
			So(cfg.PPenalty, ShouldEqual, 10.0)
			So(cfg.TimeLimit, ShouldEqual, 300.0)
			So(cfg.BufferTime, ShouldEqual, 10.0)
			So(cfg.FakeTeamCount, ShouldEqual, 15)
			So(cfg.DefaultTeamID, ShouldEqual, "0THING2LOSE")
		})

		Convey("Then the scoring params convert one to one", func() {
			params := cfg.ScoringParams()
			So(params.PMax, ShouldEqual, cfg.PMax)
			So(params.TimeLimit, ShouldEqual, cfg.TimeLimit)
			So(params.BufferTime, ShouldEqual, cfg.BufferTime)
		})
	})
}

func TestLoadDefaults(t *testing.T) {
	Convey("Given no file and no environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the defaults load cleanly", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8000")
			So(cfg.TimeLimit, ShouldEqual, 300.0)
		})
	})
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("REFBOX_ADDR", ":9999")
	t.Setenv("REFBOX_TIME_LIMIT", "120")
	t.Setenv("REFBOX_LOG_LEVEL", "debug")

	Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9999")
			So(cfg.TimeLimit, ShouldEqual, 120.0)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refbox.yaml")
	yaml := "addr: \":7070\"\np_max: 200\nfake_team_count: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REFBOX_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then file values layer over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.PMax, ShouldEqual, 200.0)
			So(cfg.FakeTeamCount, ShouldEqual, 3)
			So(cfg.PBase, ShouldEqual, 50.0)
		})
	})
}

func TestLoadEnvOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refbox.yaml")
	if err := os.WriteFile(path, []byte("addr: \":7070\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REFBOX_CONFIG", path)
	t.Setenv("REFBOX_ADDR", ":6060")

	Convey("Given both a file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env wins over the file", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
		})
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("REFBOX_CONFIG", "/nonexistent/refbox.yaml")

	Convey("Given a missing config file path", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then loading fails with ErrLoadConfig", func() {
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}

func TestLoadInvalidTimeLimit(t *testing.T) {
	t.Setenv("REFBOX_TIME_LIMIT", "-5")

	Convey("Given an invalid time limit", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then validation fails", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestLoadInvalidPointRange(t *testing.T) {
	t.Setenv("REFBOX_P_MAX", "10")

	Convey("Given p_max below p_base", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then validation fails", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
