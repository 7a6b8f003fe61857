package progress

import (
	"explorerl/internal/env"
)

// BadgeMode selects how a badge increase is scored
type BadgeMode int

const (
	BadgeScaled BadgeMode = iota // delta * Badge weight
	BadgeFlat                    // BadgeFlat once per increasing step
)

// ParseBadgeMode maps the config string to a BadgeMode
func ParseBadgeMode(s string) BadgeMode {
	if s == "flat" {
		return BadgeFlat
	}
	return BadgeScaled
}

// Weights scales each stat increase into reward
type Weights struct {
	Level     float64
	HP        float64
	XP        float64
	Money     float64
	Badge     float64
	BadgeMode BadgeMode
	BadgeFlat float64
}

// Tracker remembers the previous stat block and scores increases against it
type Tracker struct {
	weights  Weights
	previous env.StatBlock
}

// NewTracker creates a tracker whose previous block is all zeros
func NewTracker(w Weights) *Tracker {
	return &Tracker{weights: w}
}

// Seed replaces the previous block without scoring
func (t *Tracker) Seed(block env.StatBlock) {
	t.previous = block
}

// Previous returns the block the next Score call compares against
func (t *Tracker) Previous() env.StatBlock {
	return t.previous
}

// Score returns the weighted sum of increases since the previous block and
// then stores current. Decreases score nothing.
func (t *Tracker) Score(current env.StatBlock) float64 {
	prev := t.previous
	w := t.weights
	total := 0.0

	total += gain(prev.Levels, current.Levels) * w.Level
	total += gain(prev.HP, current.HP) * w.HP
	total += gain(prev.XP, current.XP) * w.XP
	total += gain(float64(prev.Money), float64(current.Money)) * w.Money

	if badges := gain(float64(prev.Badges), float64(current.Badges)); badges > 0 {
		switch w.BadgeMode {
		case BadgeFlat:
			total += w.BadgeFlat
		default:
			total += badges * w.Badge
		}
	}

	t.previous = current
	return total
}

func gain(prev, cur float64) float64 {
	if cur > prev {
		return cur - prev
	}
	return 0
}
