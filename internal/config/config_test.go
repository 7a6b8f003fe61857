package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Episode.RunSpan != 1000 {
		t.Fatalf("run_span = %d, want 1000", cfg.Episode.RunSpan)
	}
	if cfg.Novelty.EpisodeRadius != 1.5 || cfg.Novelty.AllTimeRadius != 3.5 {
		t.Fatalf("radii = %v/%v, want 1.5/3.5", cfg.Novelty.EpisodeRadius, cfg.Novelty.AllTimeRadius)
	}
	if cfg.Bonus.Mode != "gradient" || cfg.Bonus.ZeroBaseline != "skip" {
		t.Fatalf("bonus = %+v", cfg.Bonus)
	}
	if len(cfg.Episode.ValidActions) != 7 {
		t.Fatalf("valid actions = %v", cfg.Episode.ValidActions)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	doc := `
seed: 7
episode:
  run_span: 50
  valid_actions: [up, down]
reward:
  badge_mode: flat
  origin_term: true
bonus:
  mode: ledger
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 7 || cfg.Episode.RunSpan != 50 {
		t.Fatalf("seed=%d run_span=%d", cfg.Seed, cfg.Episode.RunSpan)
	}
	if len(cfg.Episode.ValidActions) != 2 {
		t.Fatalf("valid actions = %v", cfg.Episode.ValidActions)
	}
	if cfg.Reward.BadgeMode != "flat" || !cfg.Reward.OriginTerm {
		t.Fatalf("reward = %+v", cfg.Reward)
	}
	if cfg.Bonus.Mode != "ledger" || cfg.Bonus.LedgerRoomsW != 200 {
		t.Fatalf("bonus = %+v", cfg.Bonus)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Episode.RunSpan != 1000 {
		t.Fatalf("run_span = %d", cfg.Episode.RunSpan)
	}
}

func TestParseRejectsUnknownKey(t *testing.T) {
	if _, err := Parse([]byte("reward:\n  bogus_w: 1\n")); err == nil {
		t.Fatal("expected schema error for unknown key")
	}
}

func TestParseRejectsBadEnum(t *testing.T) {
	if _, err := Parse([]byte("bonus:\n  mode: sometimes\n")); err == nil {
		t.Fatal("expected schema error for bonus mode")
	}
	if _, err := Parse([]byte("episode:\n  valid_actions: [jump]\n")); err == nil {
		t.Fatal("expected schema error for action name")
	}
}

func TestValidateRanges(t *testing.T) {
	cfg := Default()
	cfg.Reward.HistorySize = 2
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("history_size 2: err = %v", err)
	}

	cfg = Default()
	cfg.Walker.BadgeRoom = cfg.Walker.Rooms
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("badge room out of range: err = %v", err)
	}
}

func TestShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "default.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Episode.RunSpan != def.Episode.RunSpan || cfg.Bonus.Scale != def.Bonus.Scale || cfg.Walker.BadgeRoom != def.Walker.BadgeRoom {
		t.Fatalf("shipped config drifted from defaults: %+v", cfg)
	}
	if cfg.Store.Path == "" || cfg.Logging.ReplayEvery != 10 {
		t.Fatalf("store=%+v logging=%+v", cfg.Store, cfg.Logging)
	}
}

func TestParseKeepsExplicitZeros(t *testing.T) {
	doc := `
reward:
  money_w: 0
  stall_penalty: 0
  invalid_action_penalty: 0
novelty:
  episode_tile_reward: 0
walker:
  badge_room: 0
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Reward.MoneyW != 0 || cfg.Reward.StallPenalty != 0 || cfg.Reward.InvalidActionPenalty != 0 {
		t.Fatalf("reward = %+v", cfg.Reward)
	}
	if cfg.Novelty.EpisodeTileReward != 0 || cfg.Walker.BadgeRoom != 0 {
		t.Fatalf("novelty=%+v walker=%+v", cfg.Novelty, cfg.Walker)
	}
	// Untouched siblings keep their defaults.
	if cfg.Reward.HPW != 0.5 || cfg.Reward.BacktrackPenalty != 1 || cfg.Novelty.EpisodeRoomReward != 5 {
		t.Fatalf("defaults lost: reward=%+v novelty=%+v", cfg.Reward, cfg.Novelty)
	}
}

func TestParseDerivesBadgeRoom(t *testing.T) {
	cfg, err := Parse([]byte("walker:\n  rooms: 3\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Walker.BadgeRoom != 2 {
		t.Fatalf("badge_room = %d, want 2", cfg.Walker.BadgeRoom)
	}
}

func TestValidateRejectsUnknownAction(t *testing.T) {
	cfg := Default()
	cfg.Episode.ValidActions = []string{"up", "jump"}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}

	cfg.Episode.ValidActions = nil
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("empty set: err = %v, want ErrInvalid", err)
	}
}
