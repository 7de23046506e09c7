package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/quorum/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then defaults are returned", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.CoinBudget, ShouldEqual, 100)
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUORUM_ADDR", ":8088")
	t.Setenv("QUORUM_QUEUE_SIZE", "4096")
	t.Setenv("QUORUM_LOG_LEVEL", "debug")

	Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8088")
			So(cfg.QueueSize, ShouldEqual, 4096)
			So(cfg.LogLevel, ShouldEqual, "debug")

			Convey("And untouched fields keep their defaults", func() {
				So(cfg.CoinBudget, ShouldEqual, 100)
			})
		})
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorum.yaml")
	yaml := "addr: \":7070\"\ncoin_budget: 250\nhub_send_buffer: 128\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUORUM_CONFIG", path)

	Convey("Given a config file", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then file values override defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.CoinBudget, ShouldEqual, 250)
			So(cfg.HubSendBuffer, ShouldEqual, 128)
		})
	})
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorum.yaml")
	yaml := "addr: \":7070\"\ncoin_budget: 250\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUORUM_CONFIG", path)
	t.Setenv("QUORUM_ADDR", ":6060")

	Convey("Given both a file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env wins and the rest comes from the file", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.CoinBudget, ShouldEqual, 250)
		})
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("QUORUM_CONFIG", "/nonexistent/quorum.yaml")

	Convey("Given a missing config file", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then loading fails with the load sentinel", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}

func TestLoadInvalidBudget(t *testing.T) {
	t.Setenv("QUORUM_COIN_BUDGET", "-5")

	Convey("Given an invalid budget", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then validation fails with the invalid sentinel", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
