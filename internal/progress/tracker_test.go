package progress

import (
	"testing"

	"explorerl/internal/env"
)

func halfWeights(mode BadgeMode) Weights {
	return Weights{Level: 0.5, HP: 0.5, XP: 0.5, Money: 0.5, Badge: 0.5, BadgeMode: mode, BadgeFlat: 1}
}

func TestScoreHPGain(t *testing.T) {
	tr := NewTracker(halfWeights(BadgeScaled))
	tr.Seed(env.StatBlock{Levels: 5, HP: 20, XP: 100, Badges: 0, Money: 50})

	got := tr.Score(env.StatBlock{Levels: 5, HP: 25, XP: 100, Badges: 0, Money: 50})
	if got != 2.5 {
		t.Fatalf("score = %v, want 2.5", got)
	}
}

func TestScoreIgnoresRegressionAndStoresCurrent(t *testing.T) {
	tr := NewTracker(halfWeights(BadgeScaled))
	tr.Seed(env.StatBlock{Levels: 5, HP: 20, XP: 100, Money: 50})

	lower := env.StatBlock{Levels: 5, HP: 10, XP: 100, Money: 10}
	if got := tr.Score(lower); got != 0 {
		t.Fatalf("regression score = %v, want 0", got)
	}
	if tr.Previous() != lower {
		t.Fatalf("previous = %+v, want %+v", tr.Previous(), lower)
	}
	// Recovering back up is a gain relative to the stored block.
	if got := tr.Score(env.StatBlock{Levels: 5, HP: 20, XP: 100, Money: 10}); got != 5 {
		t.Fatalf("recovery score = %v, want 5", got)
	}
}

func TestScoreAllFields(t *testing.T) {
	tr := NewTracker(halfWeights(BadgeScaled))
	got := tr.Score(env.StatBlock{Levels: 2, HP: 4, XP: 6, Badges: 2, Money: 8})
	if got != 11 {
		t.Fatalf("score = %v, want 11", got)
	}
}

func TestBadgeModes(t *testing.T) {
	scaled := NewTracker(halfWeights(BadgeScaled))
	if got := scaled.Score(env.StatBlock{Badges: 2}); got != 1 {
		t.Fatalf("scaled = %v, want 1", got)
	}

	flat := NewTracker(halfWeights(BadgeFlat))
	if got := flat.Score(env.StatBlock{Badges: 2}); got != 1 {
		t.Fatalf("flat = %v, want 1", got)
	}
	if got := flat.Score(env.StatBlock{Badges: 3}); got != 1 {
		t.Fatalf("flat second badge = %v, want 1", got)
	}
	if got := flat.Score(env.StatBlock{Badges: 3}); got != 0 {
		t.Fatalf("flat no change = %v, want 0", got)
	}
	if ParseBadgeMode("flat") != BadgeFlat || ParseBadgeMode("scaled") != BadgeScaled {
		t.Fatal("ParseBadgeMode mismatch")
	}
}
