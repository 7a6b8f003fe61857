package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"explorerl/internal/env"
	"explorerl/internal/motion"
)

// Logger handles per-episode output: a CSV table, a JSONL stream and a
// console line.
type Logger struct {
	csvPath     string
	jsonPath    string
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	console     io.Writer
	initialized bool
}

// NewLogger creates a new logger
func NewLogger(csvPath, jsonPath string) (*Logger, error) {
	l := &Logger{
		csvPath:  csvPath,
		jsonPath: jsonPath,
		console:  os.Stdout,
	}

	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return nil, err
	}

	return l, nil
}

// SetConsole redirects the console summary (nil silences it)
func (l *Logger) SetConsole(w io.Writer) {
	l.console = w
}

// Init initializes the log files
func (l *Logger) Init() error {
	var err error

	// Open CSV file
	l.csvFile, err = os.Create(l.csvPath)
	if err != nil {
		return err
	}
	l.csvWriter = csv.NewWriter(l.csvFile)

	// Write CSV header
	header := []string{
		"session", "episode", "steps", "end", "reward", "bonus", "distance", "gradient",
		"episode_rooms", "episode_tiles", "all_time_rooms", "all_time_tiles", "badges",
		"baseline_count", "baseline_average",
	}
	if err := l.csvWriter.Write(header); err != nil {
		return err
	}

	// Open JSON file
	l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	l.initialized = true
	return nil
}

// Close closes all log files
func (l *Logger) Close() {
	if l.csvWriter != nil {
		l.csvWriter.Flush()
	}
	if l.csvFile != nil {
		l.csvFile.Close()
	}
	if l.jsonFile != nil {
		l.jsonFile.Close()
	}
}

// EpisodeSummary is one JSONL record
type EpisodeSummary struct {
	env.EpisodeStats
	Baseline motion.RunningGradient `json:"baseline"`
}

// LogEpisode logs a finished episode
func (l *Logger) LogEpisode(ep env.EpisodeStats, baseline motion.RunningGradient) error {
	if !l.initialized {
		return nil
	}

	row := []string{
		ep.Session,
		strconv.Itoa(ep.Episode),
		strconv.Itoa(ep.Steps),
		ep.End.String(),
		fmt.Sprintf("%.2f", ep.Reward),
		fmt.Sprintf("%.2f", ep.Bonus),
		fmt.Sprintf("%.2f", ep.Distance),
		fmt.Sprintf("%.4f", ep.Gradient),
		strconv.Itoa(ep.EpisodeRooms),
		strconv.Itoa(ep.EpisodeTiles),
		strconv.Itoa(ep.AllTimeRooms),
		strconv.Itoa(ep.AllTimeTiles),
		strconv.Itoa(ep.Badges),
		strconv.Itoa(baseline.Count),
		fmt.Sprintf("%.4f", baseline.Average),
	}
	if err := l.csvWriter.Write(row); err != nil {
		return err
	}
	l.csvWriter.Flush()
	if err := l.csvWriter.Error(); err != nil {
		return err
	}

	// Write JSON line
	jsonLine, err := json.Marshal(EpisodeSummary{EpisodeStats: ep, Baseline: baseline})
	if err != nil {
		return err
	}
	if _, err := l.jsonFile.Write(append(jsonLine, '\n')); err != nil {
		return err
	}

	// Print to console
	if l.console != nil {
		fmt.Fprintf(l.console, "Ep %4d | %-9s | Steps: %5s | Reward: %10s | Bonus: %10s | Dist: %8s | Rooms: %d/%d | Tiles: %s\n",
			ep.Episode, ep.End, humanize.Comma(int64(ep.Steps)),
			humanize.CommafWithDigits(ep.Reward, 1), humanize.CommafWithDigits(ep.Bonus, 1),
			humanize.CommafWithDigits(ep.Distance, 1),
			ep.EpisodeRooms, ep.AllTimeRooms, humanize.Comma(int64(ep.AllTimeTiles)))
	}
	return nil
}

// LogAggregate prints the cross-episode summary for one session
func (l *Logger) LogAggregate(session string, agg env.AggregatedStats) {
	if l.console == nil {
		return
	}
	fmt.Fprintf(l.console, "  [Session %s] %d episodes | Reward: %s ± %s | Dist: %s | Rooms: %.2f | Goals: %d\n",
		session, agg.NumEpisodes,
		humanize.CommafWithDigits(agg.RewardMean, 1), humanize.CommafWithDigits(agg.RewardStd, 1),
		humanize.CommafWithDigits(agg.DistanceMean, 1), agg.RoomsMean, agg.EndCounts[env.EndGoal])
}
