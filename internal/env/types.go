package env

import (
	"fmt"
	"math"
)

// Action is one button press sent to the session
type Action int

const (
	ActionDown Action = iota
	ActionLeft
	ActionRight
	ActionUp
	ActionA
	ActionB
	ActionStart
	ActionSelect
	ActionOther
)

var actionNames = [...]string{"down", "left", "right", "up", "a", "b", "start", "select", "other"}

// AllActions lists every action in enum order
var AllActions = []Action{
	ActionDown, ActionLeft, ActionRight, ActionUp,
	ActionA, ActionB, ActionStart, ActionSelect, ActionOther,
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// IsDirectional reports whether the action is an arrow press
func (a Action) IsDirectional() bool {
	switch a {
	case ActionDown, ActionLeft, ActionRight, ActionUp:
		return true
	}
	return false
}

// ParseAction maps a config/replay name back to an Action
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return ActionOther, fmt.Errorf("unknown action %q", name)
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// StatBlock is the aggregated party/trainer stats observed each step.
// Levels, HP and XP are sums across party members.
type StatBlock struct {
	Levels float64 `json:"levels"`
	HP     float64 `json:"hp"`
	XP     float64 `json:"xp"`
	Badges int     `json:"badges"`
	Money  int     `json:"money"`
}

// Position is the player's tile within a room
type Position struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Room int `json:"room"`
}

// Distance returns the Euclidean distance on (x, y), ignoring the room
func (p Position) Distance(o Position) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// OriginDistance returns sqrt(x²+y²)
func (p Position) OriginDistance() float64 {
	return math.Hypot(float64(p.X), float64(p.Y))
}

// Observation is everything the engine sees for one step
type Observation struct {
	Step     int       `json:"step"` // 1-based index within the episode
	Stats    StatBlock `json:"stats"`
	Location Position  `json:"location"`
	Action   Action    `json:"action"`
}

// Session is the emulator-side collaborator that produces observations
type Session interface {
	Stats() StatBlock
	Location() Position
}
