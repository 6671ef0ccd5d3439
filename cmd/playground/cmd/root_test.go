package cmd

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/config"
)

func TestOpenTrackerPersists(t *testing.T) {
	cfg := &config.PlaygroundConfig{}
	cfg.Playground.ID = "cli"
	cfg.Storage.SQLite = filepath.Join(t.TempDir(), "progress.db")

	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		t.Fatalf("openTracker: %v", err)
	}
	tracker.PuzzleReward("dc_1")(15)
	closeStore()

	tracker, closeStore, err = openTracker(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer closeStore()

	p := tracker.Snapshot()
	if p.Coins != 15 {
		t.Errorf("expected 15 coins, got %d", p.Coins)
	}
	if !p.IsSolved("dc_1") {
		t.Error("expected dc_1 solved")
	}
}

func TestOpenTrackerWithoutStore(t *testing.T) {
	cfg := &config.PlaygroundConfig{}
	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		t.Fatalf("openTracker: %v", err)
	}
	defer closeStore()

	if got := tracker.Snapshot().Coins; got != 0 {
		t.Errorf("expected 0 coins, got %d", got)
	}
}

func TestLocaleOf(t *testing.T) {
	cfg := &config.PlaygroundConfig{}
	cfg.Playground.Locale = "ar"

	viper.Set("lang", "")
	if got := localeOf(cfg); got != blocks.Arabic {
		t.Errorf("expected config locale ar, got %s", got)
	}

	viper.Set("lang", "en")
	defer viper.Set("lang", "")
	if got := localeOf(cfg); got != blocks.English {
		t.Errorf("expected flag locale en, got %s", got)
	}
}

func TestResetProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	other := &config.PlaygroundConfig{}
	other.Playground.ID = "other"
	other.Storage.SQLite = path
	cfg := &config.PlaygroundConfig{}
	cfg.Playground.ID = "cli"
	cfg.Storage.SQLite = path

	for _, c := range []*config.PlaygroundConfig{cfg, other} {
		tracker, closeStore, err := openTracker(c)
		if err != nil {
			t.Fatalf("openTracker: %v", err)
		}
		tracker.RunReward()(5)
		closeStore()
	}

	ids, err := savedPlaygrounds(cfg)
	if err != nil {
		t.Fatalf("savedPlaygrounds: %v", err)
	}
	if len(ids) != 2 || ids[0] != "cli" || ids[1] != "other" {
		t.Errorf("unexpected playgrounds %v", ids)
	}

	if err := resetProgress(cfg); err != nil {
		t.Fatalf("resetProgress: %v", err)
	}
	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer closeStore()
	if got := tracker.Snapshot().Coins; got != 0 {
		t.Errorf("expected reset progress, got %d coins", got)
	}

	ids, _ = savedPlaygrounds(cfg)
	if len(ids) != 1 || ids[0] != "other" {
		t.Errorf("expected only other left, got %v", ids)
	}
}
