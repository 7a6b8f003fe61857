package env

import (
	"math/rand"
)

// Walker is a small deterministic stand-in for an emulator session: a row of
// rooms joined by doors on the middle row, random battles that raise XP and
// money, and a badge awarded by pressing A on the centre tile of the badge room.
type Walker struct {
	Width        int
	Height       int
	Rooms        int
	BadgeRoom    int
	BattleChance float64

	// State
	Pos        Position
	Level      int
	HP         int
	XP         int
	Money      int
	Badges     int
	Tick       int
	Battles    int
	badgeTaken bool

	rng *rand.Rand
}

// NewWalker creates a new walker session
func NewWalker(width, height, rooms, badgeRoom int, battleChance float64, seed uint32) *Walker {
	w := &Walker{
		Width:        width,
		Height:       height,
		Rooms:        rooms,
		BadgeRoom:    badgeRoom,
		BattleChance: battleChance,
		rng:          rand.New(rand.NewSource(int64(seed))),
	}
	w.Reset()
	return w
}

// Reset returns the session to its starting save state
func (w *Walker) Reset() {
	w.Pos = Position{X: w.Width / 2, Y: w.Height / 2, Room: 0}
	w.Level = 5
	w.HP = w.maxHP()
	w.XP = 100
	w.Money = 50
	w.Badges = 0
	w.Tick = 0
	w.Battles = 0
	w.badgeTaken = false
}

// Step advances the session by one button press
func (w *Walker) Step(action Action) {
	w.Tick++

	switch action {
	case ActionUp, ActionDown, ActionLeft, ActionRight:
		w.move(action)
		if w.rng.Float64() < w.BattleChance {
			w.battle()
		}
	case ActionA:
		if w.Pos.Room == w.BadgeRoom && !w.badgeTaken && w.Pos == w.badgeTile() {
			w.badgeTaken = true
			w.Badges++
		}
	}
}

func (w *Walker) move(action Action) {
	next := w.Pos
	switch action {
	case ActionUp:
		next.Y--
	case ActionDown:
		next.Y++
	case ActionLeft:
		next.X--
	case ActionRight:
		next.X++
	}

	door := w.Height / 2
	switch {
	case next.X >= w.Width && next.Y == door && next.Room < w.Rooms-1:
		next = Position{X: 0, Y: door, Room: next.Room + 1}
	case next.X < 0 && next.Y == door && next.Room > 0:
		next = Position{X: w.Width - 1, Y: door, Room: next.Room - 1}
	case next.X < 0 || next.X >= w.Width || next.Y < 0 || next.Y >= w.Height:
		return // wall
	}
	w.Pos = next
}

// battle resolves a random encounter; losing all HP sends the player back to room 0
func (w *Walker) battle() {
	w.Battles++
	w.HP -= 1 + w.rng.Intn(w.Level+3)
	if w.HP <= 0 {
		w.Money /= 2
		w.Pos = Position{X: w.Width / 2, Y: w.Height / 2, Room: 0}
		w.HP = w.maxHP()
		return
	}

	w.XP += 10 + w.rng.Intn(25)
	w.Money += 5 + w.rng.Intn(20)
	for w.XP >= w.Level*w.Level*w.Level {
		w.Level++
		w.HP = w.maxHP()
	}
}

func (w *Walker) maxHP() int {
	return 10 + 3*w.Level
}

func (w *Walker) badgeTile() Position {
	return Position{X: w.Width / 2, Y: w.Height / 2, Room: w.BadgeRoom}
}

// Stats returns the current stat block
func (w *Walker) Stats() StatBlock {
	return StatBlock{
		Levels: float64(w.Level),
		HP:     float64(w.HP),
		XP:     float64(w.XP),
		Badges: w.Badges,
		Money:  w.Money,
	}
}

// Location returns the current position
func (w *Walker) Location() Position {
	return w.Pos
}

// Observe builds the observation for a step that just pressed action
func (w *Walker) Observe(step int, action Action) Observation {
	return Observation{
		Step:     step,
		Stats:    w.Stats(),
		Location: w.Location(),
		Action:   action,
	}
}

// RandomAction picks a uniformly random action from the given set
func (w *Walker) RandomAction(actions []Action) Action {
	return actions[w.rng.Intn(len(actions))]
}
