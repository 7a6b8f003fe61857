package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"explorerl/internal/env"
)

// ErrInvalid is returned (wrapped) when a config value is out of range.
var ErrInvalid = errors.New("invalid config")

// Config is the root configuration structure
type Config struct {
	Seed     int64          `yaml:"seed"`
	Episode  EpisodeConfig  `yaml:"episode"`
	Novelty  NoveltyConfig  `yaml:"novelty"`
	Reward   RewardConfig   `yaml:"reward"`
	Bonus    BonusConfig    `yaml:"bonus"`
	Walker   WalkerConfig   `yaml:"walker"`
	Eval     EvalConfig     `yaml:"eval"`
	Logging  LogConfig      `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
	Observer ObserverConfig `yaml:"observer"`
}

// EpisodeConfig defines the episode budget and the declared action set
type EpisodeConfig struct {
	RunSpan      int      `yaml:"run_span"` // steps before truncation
	Episodes     int      `yaml:"episodes"`
	ValidActions []string `yaml:"valid_actions"`
}

// NoveltyConfig defines the two exploration tables
type NoveltyConfig struct {
	EpisodeRadius     float64 `yaml:"episode_radius"`
	AllTimeRadius     float64 `yaml:"all_time_radius"`
	EpisodeRoomReward float64 `yaml:"episode_room_reward"`
	EpisodeTileReward float64 `yaml:"episode_tile_reward"`
	AllTimeRoomReward float64 `yaml:"all_time_room_reward"`
	AllTimeTileReward float64 `yaml:"all_time_tile_reward"`
}

// RewardConfig defines per-step shaping weights and penalties
type RewardConfig struct {
	LevelW    float64 `yaml:"level_w"`
	HPW       float64 `yaml:"hp_w"`
	XPW       float64 `yaml:"xp_w"`
	MoneyW    float64 `yaml:"money_w"`
	BadgeW    float64 `yaml:"badge_w"`
	BadgeMode string  `yaml:"badge_mode"` // scaled|flat
	BadgeFlat float64 `yaml:"badge_flat"`

	BacktrackPenalty     float64 `yaml:"backtrack_penalty"`
	StallPenalty         float64 `yaml:"stall_penalty"`
	InvalidActionPenalty float64 `yaml:"invalid_action_penalty"`

	OriginTerm   bool    `yaml:"origin_term"`
	OriginWeight float64 `yaml:"origin_weight"`

	HistorySize int `yaml:"history_size"`
}

// BonusConfig defines the end-of-episode bonus
type BonusConfig struct {
	Mode          string  `yaml:"mode"` // gradient|ledger|none
	Scale         float64 `yaml:"scale"`
	BaselineScale float64 `yaml:"baseline_scale"`
	ZeroBaseline  string  `yaml:"zero_baseline"` // skip|absolute

	LedgerGradientW float64 `yaml:"ledger_gradient_w"`
	LedgerRoomsW    float64 `yaml:"ledger_rooms_w"`
	LedgerDistanceW float64 `yaml:"ledger_distance_w"`
	LedgerRewardW   float64 `yaml:"ledger_reward_w"`
}

// WalkerConfig defines the synthetic session used by the train binary
type WalkerConfig struct {
	RoomWidth    int     `yaml:"room_width"`
	RoomHeight   int     `yaml:"room_height"`
	Rooms        int     `yaml:"rooms"`
	BadgeRoom    int     `yaml:"badge_room"`
	BattleChance float64 `yaml:"battle_chance"`
}

// EvalConfig defines parallel session parameters
type EvalConfig struct {
	Sessions int `yaml:"sessions"`
	Workers  int `yaml:"workers"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	EveryEpisode bool   `yaml:"every_episode"`
	CSVPath      string `yaml:"csv_path"`
	JSONPath     string `yaml:"json_path"`
	TracePath    string `yaml:"trace_path"` // empty disables the step trace
	ReplayEvery  int    `yaml:"replay_every"`
	ReplayDir    string `yaml:"replay_dir"`
}

// StoreConfig defines the episode history database
type StoreConfig struct {
	Path   string `yaml:"path"` // empty disables persistence
	Resume bool   `yaml:"resume"`
}

// ObserverConfig defines the diagnostics websocket listener
type ObserverConfig struct {
	Addr string `yaml:"addr"` // empty disables the observer
}

// Load reads a YAML config file and returns a Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates raw YAML against the config schema and decodes it
func Parse(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Keys absent from the document keep their defaults; explicit zeros stay.
	cfg := Default()
	cfg.Walker.BadgeRoom = badgeRoomUnset
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Walker.BadgeRoom == badgeRoomUnset {
		cfg.Walker.BadgeRoom = cfg.Walker.Rooms - 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// badgeRoomUnset marks a document without walker.badge_room; the schema
// rejects negative values.
const badgeRoomUnset = -1

// Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.Episode.RunSpan == 0 {
		cfg.Episode.RunSpan = 1000
	}
	if cfg.Episode.Episodes == 0 {
		cfg.Episode.Episodes = 20
	}
	if len(cfg.Episode.ValidActions) == 0 {
		cfg.Episode.ValidActions = []string{"down", "left", "right", "up", "a", "b", "start"}
	}
	if cfg.Novelty.EpisodeRadius == 0 {
		cfg.Novelty.EpisodeRadius = 1.5
	}
	if cfg.Novelty.AllTimeRadius == 0 {
		cfg.Novelty.AllTimeRadius = 3.5
	}
	if cfg.Novelty.EpisodeRoomReward == 0 {
		cfg.Novelty.EpisodeRoomReward = 5
	}
	if cfg.Novelty.EpisodeTileReward == 0 {
		cfg.Novelty.EpisodeTileReward = 1
	}
	if cfg.Novelty.AllTimeRoomReward == 0 {
		cfg.Novelty.AllTimeRoomReward = 10
	}
	if cfg.Novelty.AllTimeTileReward == 0 {
		cfg.Novelty.AllTimeTileReward = 5
	}
	if cfg.Reward.LevelW == 0 {
		cfg.Reward.LevelW = 0.5
	}
	if cfg.Reward.HPW == 0 {
		cfg.Reward.HPW = 0.5
	}
	if cfg.Reward.XPW == 0 {
		cfg.Reward.XPW = 0.5
	}
	if cfg.Reward.MoneyW == 0 {
		cfg.Reward.MoneyW = 0.5
	}
	if cfg.Reward.BadgeW == 0 {
		cfg.Reward.BadgeW = 0.5
	}
	if cfg.Reward.BadgeMode == "" {
		cfg.Reward.BadgeMode = "scaled"
	}
	if cfg.Reward.BadgeFlat == 0 {
		cfg.Reward.BadgeFlat = 1
	}
	if cfg.Reward.BacktrackPenalty == 0 {
		cfg.Reward.BacktrackPenalty = 1
	}
	if cfg.Reward.StallPenalty == 0 {
		cfg.Reward.StallPenalty = 1
	}
	if cfg.Reward.InvalidActionPenalty == 0 {
		cfg.Reward.InvalidActionPenalty = 10
	}
	if cfg.Reward.OriginWeight == 0 {
		cfg.Reward.OriginWeight = 0.5
	}
	if cfg.Reward.HistorySize == 0 {
		cfg.Reward.HistorySize = 10
	}
	if cfg.Bonus.Mode == "" {
		cfg.Bonus.Mode = "gradient"
	}
	if cfg.Bonus.Scale == 0 {
		cfg.Bonus.Scale = 1000
	}
	if cfg.Bonus.BaselineScale == 0 {
		cfg.Bonus.BaselineScale = 1.1
	}
	if cfg.Bonus.ZeroBaseline == "" {
		cfg.Bonus.ZeroBaseline = "skip"
	}
	if cfg.Bonus.LedgerGradientW == 0 {
		cfg.Bonus.LedgerGradientW = 100
	}
	if cfg.Bonus.LedgerRoomsW == 0 {
		cfg.Bonus.LedgerRoomsW = 200
	}
	if cfg.Bonus.LedgerDistanceW == 0 {
		cfg.Bonus.LedgerDistanceW = 0.5
	}
	if cfg.Bonus.LedgerRewardW == 0 {
		cfg.Bonus.LedgerRewardW = 10
	}
	if cfg.Walker.RoomWidth == 0 {
		cfg.Walker.RoomWidth = 10
	}
	if cfg.Walker.RoomHeight == 0 {
		cfg.Walker.RoomHeight = 9
	}
	if cfg.Walker.Rooms == 0 {
		cfg.Walker.Rooms = 8
	}
	if cfg.Walker.BadgeRoom == 0 {
		cfg.Walker.BadgeRoom = cfg.Walker.Rooms - 1
	}
	if cfg.Walker.BattleChance == 0 {
		cfg.Walker.BattleChance = 0.02
	}
	if cfg.Eval.Sessions == 0 {
		cfg.Eval.Sessions = 1
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/episodes.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/episodes.jsonl"
	}
	if cfg.Logging.ReplayDir == "" {
		cfg.Logging.ReplayDir = "artifacts"
	}
}

// Validate checks value ranges the schema cannot express
func (c *Config) Validate() error {
	if c.Episode.RunSpan < 1 {
		return fmt.Errorf("config: run_span %d: %w", c.Episode.RunSpan, ErrInvalid)
	}
	if c.Episode.Episodes < 1 {
		return fmt.Errorf("config: episodes %d: %w", c.Episode.Episodes, ErrInvalid)
	}
	if len(c.Episode.ValidActions) == 0 {
		return fmt.Errorf("config: empty valid_actions: %w", ErrInvalid)
	}
	for _, name := range c.Episode.ValidActions {
		if _, err := env.ParseAction(name); err != nil {
			return fmt.Errorf("config: valid_actions: %v: %w", err, ErrInvalid)
		}
	}
	if c.Novelty.EpisodeRadius < 0 || c.Novelty.AllTimeRadius < 0 {
		return fmt.Errorf("config: negative novelty radius: %w", ErrInvalid)
	}
	if c.Reward.HistorySize < 3 {
		return fmt.Errorf("config: history_size %d must hold at least 3 positions: %w", c.Reward.HistorySize, ErrInvalid)
	}
	switch c.Reward.BadgeMode {
	case "scaled", "flat":
	default:
		return fmt.Errorf("config: badge_mode %q: %w", c.Reward.BadgeMode, ErrInvalid)
	}
	switch c.Bonus.Mode {
	case "gradient", "ledger", "none":
	default:
		return fmt.Errorf("config: bonus mode %q: %w", c.Bonus.Mode, ErrInvalid)
	}
	switch c.Bonus.ZeroBaseline {
	case "skip", "absolute":
	default:
		return fmt.Errorf("config: zero_baseline %q: %w", c.Bonus.ZeroBaseline, ErrInvalid)
	}
	if c.Walker.BadgeRoom < 0 || c.Walker.BadgeRoom >= c.Walker.Rooms {
		return fmt.Errorf("config: badge_room %d outside %d rooms: %w", c.Walker.BadgeRoom, c.Walker.Rooms, ErrInvalid)
	}
	return nil
}
