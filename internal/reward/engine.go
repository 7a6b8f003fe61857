package reward

import (
	"log"
	"math"

	"github.com/zyedidia/generic/mapset"

	"explorerl/internal/config"
	"explorerl/internal/env"
	"explorerl/internal/episode"
	"explorerl/internal/explore"
	"explorerl/internal/ledger"
	"explorerl/internal/motion"
	"explorerl/internal/progress"
)

// maxDeviation bounds the deviation fed to the bonus curve so the result
// stays finite.
const maxDeviation = 50.0

type bonusMode int

const (
	bonusGradient bonusMode = iota
	bonusLedger
	bonusNone
)

func parseBonusMode(s string) bonusMode {
	switch s {
	case "ledger":
		return bonusLedger
	case "none":
		return bonusNone
	default:
		return bonusGradient
	}
}

// Breakdown splits a step's reward into its sources
type Breakdown struct {
	Stats     float64 `json:"stats"`
	Discovery float64 `json:"discovery"`
	Movement  float64 `json:"movement"`
	Penalty   float64 `json:"penalty"`
	Bonus     float64 `json:"bonus"`
}

// StepResult is what the driver gets back for one observation
type StepResult struct {
	Reward    float64 // step reward, end-of-episode bonus included
	Done      bool
	Truncated bool
	Breakdown Breakdown

	// Summary and Diagnostics are set on the step that ends an episode.
	// Diagnostics is taken before episode state is cleared.
	Summary     *env.EpisodeStats
	Diagnostics *Diagnostics
}

// Engine computes shaped rewards for one session. It is not safe for
// concurrent use; parallel sessions each need their own Engine.
type Engine struct {
	cfg *config.Config

	tracker   *progress.Tracker
	episodic  *explore.Table
	allTime   *explore.Table
	acc       *motion.Accumulator
	gradient  motion.RunningGradient
	ledgers   ledger.Ledgers
	lifecycle *episode.Controller

	valid   mapset.Set[env.Action]
	presses map[env.Action]int

	bonus        bonusMode
	zeroBaseline motion.ZeroBaseline
	ledgerW      ledger.Weights

	session    string
	episode    int
	stepsTaken int
	logger     *log.Logger
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger logs end-of-episode bonuses to l
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSession tags episode summaries with a session id
func WithSession(id string) Option {
	return func(e *Engine) { e.session = id }
}

// NewEngine creates an engine for one session
func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		tracker: progress.NewTracker(progress.Weights{
			Level:     cfg.Reward.LevelW,
			HP:        cfg.Reward.HPW,
			XP:        cfg.Reward.XPW,
			Money:     cfg.Reward.MoneyW,
			Badge:     cfg.Reward.BadgeW,
			BadgeMode: progress.ParseBadgeMode(cfg.Reward.BadgeMode),
			BadgeFlat: cfg.Reward.BadgeFlat,
		}),
		episodic:  explore.NewTable(cfg.Novelty.EpisodeRadius),
		allTime:   explore.NewTable(cfg.Novelty.AllTimeRadius),
		acc:       motion.NewAccumulator(cfg.Reward.HistorySize),
		lifecycle: episode.NewController(cfg.Episode.RunSpan),
		valid:     mapset.New[env.Action](),
		presses:   make(map[env.Action]int),

		bonus:        parseBonusMode(cfg.Bonus.Mode),
		zeroBaseline: motion.ParseZeroBaseline(cfg.Bonus.ZeroBaseline),
		ledgerW: ledger.Weights{
			Gradient: cfg.Bonus.LedgerGradientW,
			Rooms:    cfg.Bonus.LedgerRoomsW,
			Distance: cfg.Bonus.LedgerDistanceW,
			Reward:   cfg.Bonus.LedgerRewardW,
		},
		episode: 1,
	}
	// Names are checked by config.Validate.
	for _, name := range cfg.Episode.ValidActions {
		if a, err := env.ParseAction(name); err == nil {
			e.valid.Put(a)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin starts a new episode from the session's initial stats. Episode
// scoped state is cleared; all-time exploration and baselines are kept.
func (e *Engine) Begin(initial env.StatBlock) {
	e.resetEpisode()
	e.tracker.Seed(initial)
}

// Step scores one observation. After a goal the engine ignores further
// steps until Begin is called.
func (e *Engine) Step(obs env.Observation) StepResult {
	if e.lifecycle.State() == episode.Done {
		reason := e.lifecycle.Reason()
		return StepResult{Done: reason == env.EndGoal, Truncated: reason == env.EndTruncated}
	}

	badgesBefore := e.tracker.Previous().Badges

	var b Breakdown
	b.Stats = e.tracker.Score(obs.Stats)
	b.Discovery = e.discover(obs.Location)
	b.Movement, b.Penalty = e.move(obs)
	if !e.valid.Has(obs.Action) {
		b.Penalty -= e.cfg.Reward.InvalidActionPenalty
	}
	e.presses[obs.Action]++
	e.stepsTaken++

	stepReward := b.Stats + b.Discovery + b.Movement + b.Penalty
	e.acc.AddReward(stepReward)

	out := e.lifecycle.Evaluate(obs.Step, badgesBefore, obs.Stats.Badges)
	res := StepResult{
		Reward:    stepReward,
		Done:      out.Done,
		Truncated: out.Truncated,
	}
	if out.Done || out.Truncated {
		summary := e.summarize(obs)
		if out.Truncated {
			b.Bonus = e.finish(summary)
			summary.Bonus = b.Bonus
			res.Reward += b.Bonus
		}
		diag := e.Diagnostics()
		res.Summary = &summary
		res.Diagnostics = &diag
		if out.Truncated {
			e.resetEpisode()
		}
	}
	res.Breakdown = b
	return res
}

// discover offers pos to both exploration tables
func (e *Engine) discover(pos env.Position) float64 {
	n := e.cfg.Novelty
	r := 0.0
	switch e.episodic.Visit(pos) {
	case explore.DiscoveryRoom:
		r += n.EpisodeRoomReward
	case explore.DiscoveryTile:
		r += n.EpisodeTileReward
	}
	switch e.allTime.Visit(pos) {
	case explore.DiscoveryRoom:
		r += n.AllTimeRoomReward
	case explore.DiscoveryTile:
		r += n.AllTimeTileReward
	}
	return r
}

// move updates the path and returns the origin term and movement penalties
func (e *Engine) move(obs env.Observation) (movement, penalty float64) {
	pos := obs.Location
	rc := e.cfg.Reward

	if e.acc.History.Oscillates(pos) {
		penalty -= rc.BacktrackPenalty
	}
	if obs.Action.IsDirectional() && e.acc.History.Len() > 0 && pos == e.acc.Previous() {
		penalty -= rc.StallPenalty
	}
	e.acc.History.Push(pos)

	_, originDelta := e.acc.Move(pos)
	if rc.OriginTerm {
		movement = originDelta * rc.OriginWeight
	}
	return movement, penalty
}

func (e *Engine) summarize(obs env.Observation) env.EpisodeStats {
	sample, _ := e.acc.Sample()
	return env.EpisodeStats{
		Session:      e.session,
		Episode:      e.episode,
		Steps:        e.stepsTaken,
		Reward:       e.acc.TotalReward,
		Distance:     e.acc.TotalDistance,
		Gradient:     sample,
		EpisodeRooms: e.episodic.Rooms(),
		EpisodeTiles: e.episodic.Tiles(),
		AllTimeRooms: e.allTime.Rooms(),
		AllTimeTiles: e.allTime.Tiles(),
		Badges:       obs.Stats.Badges,
		End:          e.lifecycle.Reason(),
	}
}

// finish folds the episode into the cross-episode baselines and returns the
// end-of-episode bonus.
func (e *Engine) finish(s env.EpisodeStats) float64 {
	sample, moved := e.acc.Sample()
	if moved {
		e.gradient.Update(sample)
	}

	entry := ledger.Entry{
		Gradient: sample,
		Rooms:    float64(s.EpisodeRooms),
		Distance: s.Distance,
		Reward:   s.Reward,
	}

	bonus := 0.0
	switch e.bonus {
	case bonusGradient:
		if !moved {
			break
		}
		p, ok := motion.Deviation(sample, e.gradient.Average, e.cfg.Bonus.BaselineScale, e.zeroBaseline)
		if ok {
			p = math.Max(-maxDeviation, math.Min(maxDeviation, p))
			bonus = e.cfg.Bonus.Scale * motion.Curve(p)
		}
	case bonusLedger:
		bonus = e.ledgers.Bonus(entry, e.ledgerW)
	}
	e.ledgers.Append(entry)

	if e.logger != nil {
		e.logger.Printf("episode %d: bonus=%.2f sample=%.4f baseline=%.4f (n=%d)",
			s.Episode, bonus, sample, e.gradient.Average, e.gradient.Count)
	}
	return bonus
}

// resetEpisode clears episode-scoped state. The step counter is owned by
// the driver.
func (e *Engine) resetEpisode() {
	if e.stepsTaken > 0 {
		e.episode++
	}
	e.stepsTaken = 0
	e.episodic.Reset()
	e.acc.Reset()
	clear(e.presses)
	e.lifecycle.Reset()
}

// Gradient returns the running reward-per-distance baseline
func (e *Engine) Gradient() motion.RunningGradient {
	return e.gradient
}

// Ledgers returns a copy of the per-episode history ledgers
func (e *Engine) Ledgers() ledger.Ledgers {
	var out ledger.Ledgers
	for _, en := range e.ledgers.Entries() {
		out.Append(en)
	}
	return out
}

// Restore loads baselines saved by an earlier run of the same session
func (e *Engine) Restore(g motion.RunningGradient, l ledger.Ledgers, episodes int) {
	e.gradient = g
	e.ledgers = l
	if episodes > 0 && e.stepsTaken == 0 {
		e.episode = episodes + 1
	}
}

// Episode returns the number of the current episode, starting at 1
func (e *Engine) Episode() int {
	return e.episode
}
