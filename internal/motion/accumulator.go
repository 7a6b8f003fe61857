package motion

import (
	"explorerl/internal/env"
)

// Accumulator holds the per-episode movement and reward totals
type Accumulator struct {
	TotalDistance float64
	TotalReward   float64
	History       *History

	previous   env.Position
	originDist float64
}

// NewAccumulator creates an accumulator with a position history of historySize
func NewAccumulator(historySize int) *Accumulator {
	return &Accumulator{History: NewHistory(historySize)}
}

// Previous returns the position of the last Move
func (a *Accumulator) Previous() env.Position {
	return a.previous
}

// Move adds the step from the previous position to pos and returns its
// length and the change in distance from the origin.
func (a *Accumulator) Move(pos env.Position) (step, originDelta float64) {
	step = a.previous.Distance(pos)
	od := pos.OriginDistance()
	originDelta = od - a.originDist

	a.TotalDistance += step
	a.previous = pos
	a.originDist = od
	return step, originDelta
}

// AddReward adds a step's reward to the episode total
func (a *Accumulator) AddReward(r float64) {
	a.TotalReward += r
}

// Sample returns reward per unit distance for the episode. ok is false when
// nothing was walked.
func (a *Accumulator) Sample() (sample float64, ok bool) {
	if a.TotalDistance == 0 {
		return 0, false
	}
	return a.TotalReward / a.TotalDistance, true
}

// Reset zeroes every episode counter and forgets the path
func (a *Accumulator) Reset() {
	a.TotalDistance = 0
	a.TotalReward = 0
	a.previous = env.Position{}
	a.originDist = 0
	a.History.Reset()
}
