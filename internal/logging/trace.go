package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"explorerl/internal/env"
)

// StepRecord is one line of the step trace
type StepRecord struct {
	Session   string          `json:"session,omitempty"`
	Episode   int             `json:"episode"`
	Obs       env.Observation `json:"obs"`
	Reward    float64         `json:"reward"`
	Stats     float64         `json:"r_stats"`
	Discovery float64         `json:"r_discovery"`
	Movement  float64         `json:"r_movement"`
	Penalty   float64         `json:"r_penalty"`
	Bonus     float64         `json:"r_bonus"`
	Done      bool            `json:"done,omitempty"`
	Truncated bool            `json:"truncated,omitempty"`
}

// TraceWriter writes zstd-compressed JSONL, one record per step
type TraceWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewTraceWriter creates (truncating) the trace file at path
func NewTraceWriter(path string) (*TraceWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &TraceWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Write appends one record
func (t *TraceWriter) Write(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

// Close flushes and closes the trace
func (t *TraceWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err1 error
	if t.w != nil {
		err1 = t.w.Flush()
		t.w = nil
	}
	if t.enc != nil {
		if err := t.enc.Close(); err1 == nil {
			err1 = err
		}
		t.enc = nil
	}
	if t.f != nil {
		if err := t.f.Close(); err1 == nil {
			err1 = err
		}
		t.f = nil
	}
	return err1
}

// ReadTrace decodes every record of a trace written by TraceWriter
func ReadTrace(path string) ([]StepRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []StepRecord
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var r StepRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, sc.Err()
}
