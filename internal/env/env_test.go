package env

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWalkerDoorsAndWalls(t *testing.T) {
	w := NewWalker(4, 3, 2, 1, 0, 1)
	start := w.Location()
	if start != (Position{X: 2, Y: 1, Room: 0}) {
		t.Fatalf("start = %+v", start)
	}

	w.Step(ActionRight)
	w.Step(ActionRight) // door on the middle row
	if got := w.Location(); got != (Position{X: 0, Y: 1, Room: 1}) {
		t.Fatalf("after door: %+v", got)
	}

	w.Step(ActionUp)
	w.Step(ActionUp) // wall
	if got := w.Location(); got != (Position{X: 0, Y: 0, Room: 1}) {
		t.Fatalf("after wall: %+v", got)
	}
	if w.Tick != 4 {
		t.Fatalf("tick = %d", w.Tick)
	}
}

func TestWalkerBadge(t *testing.T) {
	w := NewWalker(4, 3, 2, 1, 0, 1)
	w.Step(ActionA)
	if w.Badges != 0 {
		t.Fatal("badge awarded outside the badge room")
	}
	w.Pos = Position{X: 2, Y: 1, Room: 1}
	w.Step(ActionA)
	w.Step(ActionA)
	if w.Stats().Badges != 1 {
		t.Fatalf("badges = %d, want 1", w.Stats().Badges)
	}
}

func TestWalkerBattlesRaiseProgress(t *testing.T) {
	w := NewWalker(10, 9, 3, 2, 1, 42)
	before := w.Stats()
	for i := 0; i < 50; i++ {
		w.Step(ActionUp)
		w.Step(ActionDown)
	}
	if w.Battles != 100 {
		t.Fatalf("battles = %d, want 100", w.Battles)
	}
	after := w.Stats()
	if after.XP <= before.XP && after.Money == before.Money {
		t.Fatalf("no progress from battles: before=%+v after=%+v", before, after)
	}
}

func TestActionText(t *testing.T) {
	for _, a := range AllActions {
		b, _ := a.MarshalText()
		var back Action
		if err := back.UnmarshalText(b); err != nil || back != a {
			t.Fatalf("%v: back=%v err=%v", a, back, err)
		}
	}
	if _, err := ParseAction("jump"); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if !ActionUp.IsDirectional() || ActionA.IsDirectional() {
		t.Fatal("IsDirectional mismatch")
	}
}

func TestPositionDistance(t *testing.T) {
	p := Position{X: 3, Y: 4, Room: 9}
	if d := p.Distance(Position{}); d != 5 {
		t.Fatalf("distance = %v", d)
	}
	if d := p.OriginDistance(); math.Abs(d-5) > 1e-12 {
		t.Fatalf("origin distance = %v", d)
	}
}

func TestReplaySaveLoadZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ep1.json.zst")
	r := NewReplay(9, StatBlock{Levels: 5, HP: 25}, ReplayConfig{RunSpan: 3})
	r.Record(Observation{Step: 1, Location: Position{X: 1, Y: 2, Room: 3}, Action: ActionLeft})
	r.Record(Observation{Step: 2, Location: Position{X: 0, Y: 2, Room: 3}, Action: ActionSelect})
	r.SetFinalStats(EpisodeStats{Episode: 1, Steps: 2, End: EndTruncated})
	if err := r.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadReplay(path)
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	if len(got.Observations) != 2 || got.Observations[1].Action != ActionSelect {
		t.Fatalf("observations = %+v", got.Observations)
	}
	if got.FinalStats.End != EndTruncated || got.Initial.HP != 25 {
		t.Fatalf("final=%+v initial=%+v", got.FinalStats, got.Initial)
	}
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]EpisodeStats{
		{Reward: 10, Distance: 4, EpisodeRooms: 1, End: EndTruncated},
		{Reward: 20, Distance: 6, EpisodeRooms: 3, End: EndGoal},
	})
	if agg.NumEpisodes != 2 || agg.RewardMean != 15 || agg.RewardStd != 5 {
		t.Fatalf("agg = %+v", agg)
	}
	if agg.DistanceMean != 5 || agg.RoomsMean != 2 {
		t.Fatalf("agg = %+v", agg)
	}
	if agg.EndCounts[EndGoal] != 1 || agg.EndCounts[EndTruncated] != 1 {
		t.Fatalf("end counts = %v", agg.EndCounts)
	}
	if got := agg.RobustnessScore(1); got != 10 {
		t.Fatalf("robustness = %v", got)
	}
	if Aggregate(nil).NumEpisodes != 0 {
		t.Fatal("empty aggregate")
	}
}
