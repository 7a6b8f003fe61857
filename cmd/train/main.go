package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"explorerl/internal/config"
	"explorerl/internal/eval"
	"explorerl/internal/logging"
	"explorerl/internal/observer"
	"explorerl/internal/reward"
	"explorerl/internal/store"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/default.yaml", "path to config file")
	episodes := flag.Int("episodes", 0, "episodes per session (0 = config value)")
	sessions := flag.Int("sessions", 0, "parallel sessions (0 = config value)")
	resume := flag.Bool("resume", false, "resume the latest stored session (overrides store.resume)")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *episodes > 0 {
		cfg.Episode.Episodes = *episodes
	}
	if *sessions > 0 {
		cfg.Eval.Sessions = *sessions
	}
	if *resume {
		cfg.Store.Resume = true
	}

	logger := log.New(os.Stdout, "[train] ", log.LstdFlags|log.Lmicroseconds)

	fmt.Printf("Exploration reward trainer\n")
	fmt.Printf("Config: %s\n", *configPath)
	fmt.Printf("Run span: %d, Episodes: %d, Sessions: %d, Bonus: %s\n",
		cfg.Episode.RunSpan, cfg.Episode.Episodes, cfg.Eval.Sessions, cfg.Bonus.Mode)
	fmt.Printf("World: %d rooms of %dx%d, badge in room %d\n",
		cfg.Walker.Rooms, cfg.Walker.RoomWidth, cfg.Walker.RoomHeight, cfg.Walker.BadgeRoom)
	fmt.Println("---")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional episode history
	var db *store.Store
	if cfg.Store.Path != "" {
		db, err = store.Open(cfg.Store.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	plan, err := planSessions(ctx, cfg, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error planning sessions: %v\n", err)
		os.Exit(1)
	}

	// Optional diagnostics stream
	var obs *observer.Server
	if cfg.Observer.Addr != "" {
		obs = observer.NewServer(log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds))
		go func() {
			if err := obs.ListenAndServe(ctx, cfg.Observer.Addr); err != nil {
				logger.Printf("observer: %v", err)
			}
		}()
	}

	// Create metrics logger
	metrics, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	if err := metrics.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer metrics.Close()
	if !cfg.Logging.EveryEpisode {
		metrics.SetConsole(nil)
	}

	var trace *logging.TraceWriter
	if cfg.Logging.TracePath != "" {
		trace, err = logging.NewTraceWriter(cfg.Logging.TracePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating step trace: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := trace.Close(); err != nil {
				logger.Printf("close trace: %v", err)
			}
		}()
	}

	runner := eval.NewRunner(cfg, logger)
	runner.Prepare = func(session string, e *reward.Engine) error {
		if b, ok := plan.restore[session]; ok {
			e.Restore(b.Gradient, b.Ledgers, b.Episodes)
			logger.Printf("session %s: resumed after episode %d (gradient n=%d avg=%.4f)",
				session, b.Episodes, b.Gradient.Count, b.Gradient.Average)
		}
		return nil
	}
	runner.OnEpisode = func(ev eval.EpisodeEvent) error {
		if err := metrics.LogEpisode(ev.Stats, ev.Gradient); err != nil {
			return err
		}
		if db != nil {
			if err := db.RecordEpisode(ctx, ev.Stats, ev.Gradient); err != nil {
				return err
			}
		}
		if ev.ReplayPath != "" {
			logger.Printf("session %s: saved replay %s", ev.Session, ev.ReplayPath)
		}
		if obs != nil {
			obs.Publish("EPISODE", ev.Stats)
			obs.Publish("DIAGNOSTICS", ev.Diagnostics)
		}
		return nil
	}
	if trace != nil {
		runner.OnStep = func(ev eval.StepEvent) error {
			b := ev.Result.Breakdown
			return trace.Write(logging.StepRecord{
				Session:   ev.Session,
				Episode:   ev.Episode,
				Obs:       ev.Obs,
				Reward:    ev.Result.Reward,
				Stats:     b.Stats,
				Discovery: b.Discovery,
				Movement:  b.Movement,
				Penalty:   b.Penalty,
				Bonus:     b.Bonus,
				Done:      ev.Result.Done,
				Truncated: ev.Result.Truncated,
			})
		}
	}

	startTime := time.Now()
	results := runner.Run(ctx, plan.sessions)

	fmt.Println("---")
	failed := false
	for _, res := range results {
		metrics.LogAggregate(res.Session, res.Aggregate)
		if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Session %s failed: %v\n", res.Session, res.Err)
			failed = true
		}
	}
	fmt.Printf("Training complete in %s\n", time.Since(startTime).Round(time.Millisecond))
	if failed {
		os.Exit(1)
	}
}

type sessionPlan struct {
	sessions []eval.Session
	restore  map[string]store.Baseline
}

// planSessions assigns ids and seeds, reusing the latest stored session
// as the first one when resuming.
func planSessions(ctx context.Context, cfg *config.Config, db *store.Store) (sessionPlan, error) {
	plan := sessionPlan{restore: make(map[string]store.Baseline)}

	if db != nil && cfg.Store.Resume {
		id, err := db.LatestSession(ctx)
		switch {
		case errors.Is(err, store.ErrNoSession):
		case err != nil:
			return plan, err
		default:
			b, err := db.LoadBaseline(ctx, id)
			if err != nil {
				return plan, err
			}
			plan.restore[id] = b
			plan.sessions = append(plan.sessions, eval.Session{ID: id, Seed: uint32(cfg.Seed) + uint32(b.Episodes)})
		}
	}

	for i := len(plan.sessions); i < cfg.Eval.Sessions; i++ {
		plan.sessions = append(plan.sessions, eval.Session{
			ID:   uuid.NewString(),
			Seed: uint32(cfg.Seed + int64(i)),
		})
	}
	return plan, nil
}
