package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"explorerl/internal/config"
	"explorerl/internal/env"
	"explorerl/internal/eval"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "configs/default.yaml", "path to config file")
	replayPath := flag.String("replay", "", "path to a replay file (.json or .json.zst)")
	quiet := flag.Bool("quiet", false, "print only the summary")
	flag.Parse()

	if *replayPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -replay is required")
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	rp, err := env.LoadReplay(*replayPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading replay: %v\n", err)
		os.Exit(1)
	}
	if rp.Config.RunSpan > 0 {
		cfg.Episode.RunSpan = rp.Config.RunSpan
	}

	fmt.Printf("Replay: %s (seed=%d, %d observations)\n", *replayPath, rp.Seed, len(rp.Observations))
	fmt.Printf("Recorded: episode %d, end=%s, reward=%.2f, bonus=%.2f\n",
		rp.FinalStats.Episode, rp.FinalStats.End, rp.FinalStats.Reward, rp.FinalStats.Bonus)
	fmt.Println()

	results := eval.Rescore(cfg, rp)
	total := 0.0
	for i, res := range results {
		total += res.Reward
		if *quiet {
			continue
		}
		obs := rp.Observations[i]
		b := res.Breakdown
		fmt.Printf("%5d %-6s room=%-3d (%2d,%2d) reward=%8.2f [stats=%.1f disc=%.1f move=%.1f pen=%.1f bonus=%.1f]\n",
			obs.Step, obs.Action, obs.Location.Room, obs.Location.X, obs.Location.Y,
			res.Reward, b.Stats, b.Discovery, b.Movement, b.Penalty, b.Bonus)
	}

	fmt.Println()
	fmt.Printf("Rescored %s steps, published reward %s\n",
		humanize.Comma(int64(len(results))), humanize.CommafWithDigits(total, 2))
	if n := len(results); n > 0 && results[n-1].Summary != nil {
		s := results[n-1].Summary
		fmt.Printf("Summary: end=%s reward=%.2f bonus=%.2f distance=%.2f rooms=%d tiles=%d\n",
			s.End, s.Reward, s.Bonus, s.Distance, s.EpisodeRooms, s.EpisodeTiles)
		if s.Reward != rp.FinalStats.Reward {
			fmt.Println("Note: rescored reward differs from the recording (engine state before the episode is not part of the replay)")
		}
	}
}
