package eval

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sync"

	"explorerl/internal/config"
	"explorerl/internal/env"
	"explorerl/internal/motion"
	"explorerl/internal/reward"
)

// EpisodeEvent is delivered once per finished episode
type EpisodeEvent struct {
	Session     string
	Stats       env.EpisodeStats
	Gradient    motion.RunningGradient
	Diagnostics reward.Diagnostics
	ReplayPath  string // set when the episode's trace was saved
}

// StepEvent is delivered once per scored observation
type StepEvent struct {
	Session string
	Episode int
	Obs     env.Observation
	Result  reward.StepResult
}

// Session identifies one independent run
type Session struct {
	ID   string
	Seed uint32
}

// Result holds everything one session produced
type Result struct {
	Session   string
	Episodes  []env.EpisodeStats
	Aggregate env.AggregatedStats
	Gradient  motion.RunningGradient
	Err       error
}

// Runner drives Walker sessions through reward engines. Sessions run in
// parallel, each with its own Engine and Walker; the hooks are serialized.
type Runner struct {
	cfg     *config.Config
	workers int
	logger  *log.Logger

	// Prepare runs before the first episode of a session, e.g. to restore baselines.
	Prepare   func(session string, e *reward.Engine) error
	OnEpisode func(EpisodeEvent) error
	OnStep    func(StepEvent) error

	mu sync.Mutex
}

// NewRunner creates a new runner
func NewRunner(cfg *config.Config, logger *log.Logger) *Runner {
	workers := cfg.Eval.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{cfg: cfg, workers: workers, logger: logger}
}

// Run executes every session and returns results in input order
func (r *Runner) Run(ctx context.Context, sessions []Session) []Result {
	results := make([]Result, len(sessions))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i, s := range sessions {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result{Session: s.ID, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func(i int, s Session) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.RunSession(ctx, s)
		}(i, s)
	}
	wg.Wait()
	return results
}

// RunSession plays cfg.Episode.Episodes episodes of one session with
// uniformly random button presses.
func (r *Runner) RunSession(ctx context.Context, s Session) Result {
	cfg := r.cfg
	res := Result{Session: s.ID}

	walker := env.NewWalker(cfg.Walker.RoomWidth, cfg.Walker.RoomHeight, cfg.Walker.Rooms,
		cfg.Walker.BadgeRoom, cfg.Walker.BattleChance, s.Seed)
	engine := reward.NewEngine(cfg, reward.WithSession(s.ID), reward.WithLogger(r.logger))

	if r.Prepare != nil {
		if err := r.call(func() error { return r.Prepare(s.ID, engine) }); err != nil {
			res.Err = fmt.Errorf("session %s: prepare: %w", s.ID, err)
			return res
		}
	}

	for len(res.Episodes) < cfg.Episode.Episodes {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}

		ep, err := r.playEpisode(s, walker, engine)
		if err != nil {
			res.Err = err
			break
		}
		res.Episodes = append(res.Episodes, ep)
		walker.Reset()
	}

	res.Aggregate = env.Aggregate(res.Episodes)
	res.Gradient = engine.Gradient()
	return res
}

func (r *Runner) playEpisode(s Session, walker *env.Walker, engine *reward.Engine) (env.EpisodeStats, error) {
	cfg := r.cfg
	initial := walker.Stats()
	engine.Begin(initial)
	episode := engine.Episode()

	var replay *env.Replay
	if cfg.Logging.ReplayEvery > 0 && episode%cfg.Logging.ReplayEvery == 0 {
		replay = env.NewReplay(s.Seed, initial, env.ReplayConfig{
			RunSpan:    cfg.Episode.RunSpan,
			RoomWidth:  cfg.Walker.RoomWidth,
			RoomHeight: cfg.Walker.RoomHeight,
			Rooms:      cfg.Walker.Rooms,
		})
	}

	for step := 1; ; step++ {
		action := walker.RandomAction(env.AllActions)
		walker.Step(action)
		obs := walker.Observe(step, action)
		if replay != nil {
			replay.Record(obs)
		}

		out := engine.Step(obs)
		if r.OnStep != nil {
			ev := StepEvent{Session: s.ID, Episode: episode, Obs: obs, Result: out}
			if err := r.call(func() error { return r.OnStep(ev) }); err != nil {
				return env.EpisodeStats{}, err
			}
		}
		if out.Summary == nil {
			continue
		}

		ev := EpisodeEvent{
			Session:     s.ID,
			Stats:       *out.Summary,
			Gradient:    engine.Gradient(),
			Diagnostics: *out.Diagnostics,
		}
		if replay != nil {
			replay.SetFinalStats(*out.Summary)
			path := filepath.Join(cfg.Logging.ReplayDir, fmt.Sprintf("replay_%s_ep%d.json.zst", s.ID, episode))
			if err := replay.Save(path); err != nil {
				return env.EpisodeStats{}, fmt.Errorf("session %s: save replay: %w", s.ID, err)
			}
			ev.ReplayPath = path
		}
		if r.OnEpisode != nil {
			if err := r.call(func() error { return r.OnEpisode(ev) }); err != nil {
				return env.EpisodeStats{}, err
			}
		}
		return *out.Summary, nil
	}
}

func (r *Runner) call(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// Rescore feeds a recorded trace through a fresh engine and returns the
// per-step results.
func Rescore(cfg *config.Config, rp *env.Replay) []reward.StepResult {
	engine := reward.NewEngine(cfg, reward.WithSession(rp.FinalStats.Session))
	engine.Begin(rp.Initial)

	out := make([]reward.StepResult, 0, len(rp.Observations))
	for _, obs := range rp.Observations {
		out = append(out, engine.Step(obs))
	}
	return out
}
