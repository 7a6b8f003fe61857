package env

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Replay stores the observation trace of one episode for offline re-scoring
type Replay struct {
	Seed         uint32        `json:"seed"`
	Initial      StatBlock     `json:"initial"`
	Observations []Observation `json:"observations"`
	FinalStats   EpisodeStats  `json:"final_stats"`
	Config       ReplayConfig  `json:"config"`
}

// ReplayConfig stores the session parameters the trace was recorded with
type ReplayConfig struct {
	RunSpan    int `json:"run_span"`
	RoomWidth  int `json:"room_width"`
	RoomHeight int `json:"room_height"`
	Rooms      int `json:"rooms"`
}

// NewReplay creates a new replay recorder
func NewReplay(seed uint32, initial StatBlock, config ReplayConfig) *Replay {
	return &Replay{
		Seed:         seed,
		Initial:      initial,
		Observations: make([]Observation, 0, 256),
		Config:       config,
	}
}

// Record adds an observation to the replay
func (r *Replay) Record(obs Observation) {
	r.Observations = append(r.Observations, obs)
}

// SetFinalStats sets the final episode statistics
func (r *Replay) SetFinalStats(stats EpisodeStats) {
	r.FinalStats = stats
}

// Save writes the replay to a file; a .zst suffix compresses it
func (r *Replay) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !strings.HasSuffix(path, ".zst") {
		return os.WriteFile(path, data, 0o644)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadReplay loads a replay from a file written by Save
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		if data, err = io.ReadAll(dec); err != nil {
			return nil, err
		}
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
