package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"explorerl/internal/env"
	"explorerl/internal/ledger"
	"explorerl/internal/motion"
)

// ErrNoSession is returned when the database holds no episodes for a session
var ErrNoSession = errors.New("store: no such session")

// Store persists episode summaries and running baselines so a training
// session can resume its cross-episode state after a restart.
type Store struct {
	db *sql.DB
}

// Baseline is everything needed to restore an engine's cross-episode state
type Baseline struct {
	Session  string
	Gradient motion.RunningGradient
	Ledgers  ledger.Ledgers
	Episodes int // highest recorded episode number
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			session TEXT NOT NULL,
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			reward REAL NOT NULL,
			bonus REAL NOT NULL,
			distance REAL NOT NULL,
			gradient REAL NOT NULL,
			episode_rooms INTEGER NOT NULL,
			episode_tiles INTEGER NOT NULL,
			all_time_rooms INTEGER NOT NULL,
			all_time_tiles INTEGER NOT NULL,
			badges INTEGER NOT NULL,
			end_reason TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session, episode)
		);`,
		`CREATE TABLE IF NOT EXISTS baselines (
			session TEXT PRIMARY KEY,
			gradient_count INTEGER NOT NULL,
			gradient_average REAL NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_baselines_updated ON baselines(updated_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordEpisode stores one episode summary together with the running
// gradient as it stood after that episode.
func (s *Store) RecordEpisode(ctx context.Context, ep env.EpisodeStats, g motion.RunningGradient) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO episodes(session,episode,steps,reward,bonus,distance,gradient,episode_rooms,episode_tiles,all_time_rooms,all_time_tiles,badges,end_reason,recorded_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ep.Session, ep.Episode, ep.Steps, ep.Reward, ep.Bonus, ep.Distance, ep.Gradient,
		ep.EpisodeRooms, ep.EpisodeTiles, ep.AllTimeRooms, ep.AllTimeTiles, ep.Badges,
		ep.End.String(), now,
	); err != nil {
		return fmt.Errorf("store: insert episode: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO baselines(session,gradient_count,gradient_average,updated_at) VALUES(?,?,?,?)`,
		ep.Session, g.Count, g.Average, now,
	); err != nil {
		return fmt.Errorf("store: upsert baseline: %w", err)
	}
	return tx.Commit()
}

// LatestSession returns the session whose baseline was updated last
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT session FROM baselines ORDER BY updated_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	return id, err
}

// LoadBaseline rebuilds a session's running gradient and history ledgers.
// Only truncated episodes feed the ledgers, matching the engine.
func (s *Store) LoadBaseline(ctx context.Context, session string) (Baseline, error) {
	b := Baseline{Session: session}

	err := s.db.QueryRowContext(ctx,
		`SELECT gradient_count, gradient_average FROM baselines WHERE session=?`, session,
	).Scan(&b.Gradient.Count, &b.Gradient.Average)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNoSession
	}
	if err != nil {
		return b, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(episode), 0) FROM episodes WHERE session=?`, session,
	).Scan(&b.Episodes); err != nil {
		return b, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT gradient, episode_rooms, distance, reward FROM episodes
		 WHERE session=? AND end_reason=? ORDER BY episode`, session, env.EndTruncated.String())
	if err != nil {
		return b, err
	}
	defer rows.Close()
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.Gradient, &e.Rooms, &e.Distance, &e.Reward); err != nil {
			return b, err
		}
		b.Ledgers.Append(e)
	}
	return b, rows.Err()
}

// Episodes returns every stored summary for a session in episode order
func (s *Store) Episodes(ctx context.Context, session string) ([]env.EpisodeStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode,steps,reward,bonus,distance,gradient,episode_rooms,episode_tiles,all_time_rooms,all_time_tiles,badges,end_reason
		 FROM episodes WHERE session=? ORDER BY episode`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []env.EpisodeStats
	for rows.Next() {
		ep := env.EpisodeStats{Session: session}
		var end string
		if err := rows.Scan(&ep.Episode, &ep.Steps, &ep.Reward, &ep.Bonus, &ep.Distance, &ep.Gradient,
			&ep.EpisodeRooms, &ep.EpisodeTiles, &ep.AllTimeRooms, &ep.AllTimeTiles, &ep.Badges, &end); err != nil {
			return nil, err
		}
		_ = ep.End.UnmarshalText([]byte(end))
		out = append(out, ep)
	}
	return out, rows.Err()
}
