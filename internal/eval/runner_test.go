package eval

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"explorerl/internal/config"
	"explorerl/internal/env"
	"explorerl/internal/reward"
)

func smallConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Episode.RunSpan = 40
	cfg.Episode.Episodes = 3
	cfg.Eval.Workers = 2
	cfg.Walker.BattleChance = 0.2
	cfg.Logging.ReplayDir = filepath.Join(t.TempDir(), "replays")
	return cfg
}

func TestRunParallelSessions(t *testing.T) {
	cfg := smallConfig(t)
	r := NewRunner(cfg, nil)

	seen := map[string]int{}
	r.OnEpisode = func(ev EpisodeEvent) error {
		seen[ev.Session]++
		if ev.Stats.Session != ev.Session {
			t.Errorf("summary session %q, want %q", ev.Stats.Session, ev.Session)
		}
		presses := 0
		for _, n := range ev.Diagnostics.Presses {
			presses += n
		}
		if presses != ev.Stats.Steps || ev.Diagnostics.Steps != ev.Stats.Steps {
			t.Errorf("session %s episode %d: presses=%d diag steps=%d, want %d",
				ev.Session, ev.Stats.Episode, presses, ev.Diagnostics.Steps, ev.Stats.Steps)
		}
		if ev.Diagnostics.Episode != ev.Stats.Episode || ev.Diagnostics.EpisodeRooms != ev.Stats.EpisodeRooms {
			t.Errorf("diagnostics episode=%d rooms=%d, summary episode=%d rooms=%d",
				ev.Diagnostics.Episode, ev.Diagnostics.EpisodeRooms, ev.Stats.Episode, ev.Stats.EpisodeRooms)
		}
		return nil
	}
	steps := 0
	r.OnStep = func(StepEvent) error {
		steps++
		return nil
	}

	results := r.Run(context.Background(), []Session{{ID: "a", Seed: 1}, {ID: "b", Seed: 2}, {ID: "c", Seed: 3}})
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	total := 0
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("session %s: %v", res.Session, res.Err)
		}
		if len(res.Episodes) != 3 || res.Aggregate.NumEpisodes != 3 {
			t.Fatalf("session %s: %d episodes", res.Session, len(res.Episodes))
		}
		for i, ep := range res.Episodes {
			if ep.Episode != i+1 {
				t.Fatalf("session %s: episode %d numbered %d", res.Session, i+1, ep.Episode)
			}
			if ep.Steps < 1 || ep.Steps > cfg.Episode.RunSpan {
				t.Fatalf("session %s: steps = %d", res.Session, ep.Steps)
			}
			total += ep.Steps
		}
		if seen[res.Session] != 3 {
			t.Fatalf("session %s: %d episode events", res.Session, seen[res.Session])
		}
	}
	if steps != total {
		t.Fatalf("step events = %d, want %d", steps, total)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := smallConfig(t)
	a := NewRunner(cfg, nil).RunSession(context.Background(), Session{ID: "s", Seed: 9})
	b := NewRunner(cfg, nil).RunSession(context.Background(), Session{ID: "s", Seed: 9})
	if !reflect.DeepEqual(a.Episodes, b.Episodes) {
		t.Fatalf("same seed diverged:\n%+v\n%+v", a.Episodes, b.Episodes)
	}
}

func TestPrepareErrorStopsSession(t *testing.T) {
	r := NewRunner(smallConfig(t), nil)
	boom := errors.New("boom")
	r.Prepare = func(string, *reward.Engine) error { return boom }

	res := r.RunSession(context.Background(), Session{ID: "s", Seed: 1})
	if !errors.Is(res.Err, boom) || len(res.Episodes) != 0 {
		t.Fatalf("res = %+v", res)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewRunner(smallConfig(t), nil).RunSession(ctx, Session{ID: "s", Seed: 1})
	if !errors.Is(res.Err, context.Canceled) || len(res.Episodes) != 0 {
		t.Fatalf("res = %+v", res)
	}
}

func TestReplayRescoresIdentically(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Logging.ReplayEvery = 1
	r := NewRunner(cfg, nil)

	var first string
	r.OnEpisode = func(ev EpisodeEvent) error {
		if ev.Stats.Episode == 1 {
			first = ev.ReplayPath
		}
		return nil
	}
	res := r.RunSession(context.Background(), Session{ID: "s", Seed: 4})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if first == "" {
		t.Fatal("no replay saved for episode 1")
	}

	rp, err := env.LoadReplay(first)
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	steps := Rescore(cfg, rp)
	if len(steps) != res.Episodes[0].Steps {
		t.Fatalf("rescored %d steps, want %d", len(steps), res.Episodes[0].Steps)
	}
	last := steps[len(steps)-1]
	if last.Summary == nil || *last.Summary != rp.FinalStats {
		t.Fatalf("rescored summary = %+v, want %+v", last.Summary, rp.FinalStats)
	}
}

func TestCancelledRunSkipsQueuedSessions(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Eval.Workers = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sessions := []Session{{ID: "a", Seed: 1}, {ID: "b", Seed: 2}, {ID: "c", Seed: 3}}
	results := NewRunner(cfg, nil).Run(ctx, sessions)
	for i, res := range results {
		if res.Session != sessions[i].ID {
			t.Fatalf("result %d session = %q", i, res.Session)
		}
		if !errors.Is(res.Err, context.Canceled) || len(res.Episodes) != 0 {
			t.Fatalf("session %s: %+v", res.Session, res)
		}
	}
}
