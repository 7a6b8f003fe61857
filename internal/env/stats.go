package env

import (
	"gonum.org/v1/gonum/stat"
)

// EndReason indicates how an episode ended
type EndReason int

const (
	EndNone      EndReason = iota
	EndGoal                // badge gained
	EndTruncated           // run span reached
)

func (r EndReason) String() string {
	switch r {
	case EndNone:
		return "none"
	case EndGoal:
		return "goal"
	case EndTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

func (r EndReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *EndReason) UnmarshalText(b []byte) error {
	switch string(b) {
	case "goal":
		*r = EndGoal
	case "truncated":
		*r = EndTruncated
	default:
		*r = EndNone
	}
	return nil
}

// EpisodeStats captures all metrics from a single episode
type EpisodeStats struct {
	Session      string    `json:"session,omitempty"`
	Episode      int       `json:"episode"`
	Steps        int       `json:"steps"`
	Reward       float64   `json:"reward"`   // sum of per-step rewards, bonus excluded
	Bonus        float64   `json:"bonus"`    // end-of-episode bonus
	Distance     float64   `json:"distance"` // path length walked
	Gradient     float64   `json:"gradient"` // reward per unit distance, 0 if never moved
	EpisodeRooms int       `json:"episode_rooms"`
	EpisodeTiles int       `json:"episode_tiles"`
	AllTimeRooms int       `json:"all_time_rooms"`
	AllTimeTiles int       `json:"all_time_tiles"`
	Badges       int       `json:"badges"`
	End          EndReason `json:"end"`
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	RewardMean   float64
	RewardStd    float64
	BonusMean    float64
	DistanceMean float64
	RoomsMean    float64
	EndCounts    map[EndReason]int
	NumEpisodes  int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	n := len(episodes)
	agg := AggregatedStats{
		EndCounts:   make(map[EndReason]int),
		NumEpisodes: n,
	}
	if n == 0 {
		return agg
	}

	rewards := make([]float64, n)
	bonuses := make([]float64, n)
	distances := make([]float64, n)
	rooms := make([]float64, n)
	for i, ep := range episodes {
		rewards[i] = ep.Reward
		bonuses[i] = ep.Bonus
		distances[i] = ep.Distance
		rooms[i] = float64(ep.EpisodeRooms)
		agg.EndCounts[ep.End]++
	}

	agg.RewardMean, agg.RewardStd = stat.PopMeanStdDev(rewards, nil)
	agg.BonusMean = stat.Mean(bonuses, nil)
	agg.DistanceMean = stat.Mean(distances, nil)
	agg.RoomsMean = stat.Mean(rooms, nil)
	return agg
}

// RobustnessScore ranks sessions by mean reward penalized by its spread
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.RewardMean - lambda*a.RewardStd
}
