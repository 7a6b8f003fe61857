package reward

import (
	"explorerl/internal/env"
	"explorerl/internal/motion"
)

// Diagnostics is a point-in-time view of the engine for logs and observers
type Diagnostics struct {
	Session        string                 `json:"session,omitempty"`
	Episode        int                    `json:"episode"`
	Steps          int                    `json:"steps"`
	State          string                 `json:"state"`
	Presses        map[string]int         `json:"presses"`
	EpisodeRooms   int                    `json:"episode_rooms"`
	EpisodeTiles   int                    `json:"episode_tiles"`
	AllTimeRooms   int                    `json:"all_time_rooms"`
	AllTimeTiles   int                    `json:"all_time_tiles"`
	TotalDistance  float64                `json:"total_distance"`
	TotalReward    float64                `json:"total_reward"`
	Recent         []env.Position         `json:"recent"` // oldest first
	Gradient       motion.RunningGradient `json:"gradient"`
	LedgerEpisodes int                    `json:"ledger_episodes"`
}

// Diagnostics snapshots the engine's counters
func (e *Engine) Diagnostics() Diagnostics {
	presses := make(map[string]int, len(e.presses))
	for a, n := range e.presses {
		presses[a.String()] = n
	}
	return Diagnostics{
		Session:        e.session,
		Episode:        e.episode,
		Steps:          e.stepsTaken,
		State:          e.lifecycle.State().String(),
		Presses:        presses,
		EpisodeRooms:   e.episodic.Rooms(),
		EpisodeTiles:   e.episodic.Tiles(),
		AllTimeRooms:   e.allTime.Rooms(),
		AllTimeTiles:   e.allTime.Tiles(),
		TotalDistance:  e.acc.TotalDistance,
		TotalReward:    e.acc.TotalReward,
		Recent:         e.acc.History.Slice(),
		Gradient:       e.gradient,
		LedgerEpisodes: e.ledgers.Len(),
	}
}
