// Package history keeps the outcome of every executed fixture in a sqlite
// file so fixtures that flip between passing and failing can be reported.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const recentRuns = 10

// Fixture summarises the recorded runs of one fixture.
type Fixture struct {
	Path        string    `json:"path" yaml:"path"`
	Runs        int       `json:"runs" yaml:"runs"`
	Passed      int       `json:"passed" yaml:"passed"`
	Failed      int       `json:"failed" yaml:"failed"`
	FailureRate float64   `json:"failureRate" yaml:"failure_rate"`
	Recent      []bool    `json:"recent" yaml:"recent"`
	FirstRun    time.Time `json:"firstRun" yaml:"first_run"`
	LastRun     time.Time `json:"lastRun" yaml:"last_run"`
}

type Store struct {
	conn   *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the history file at path.
func Open(logger *zap.Logger, path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result history: %w", err)
	}
	// sqlite serialises writers and fixtures record in parallel.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to prepare result history %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS fixture_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fixture TEXT NOT NULL,
		passed BOOLEAN NOT NULL,
		run_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fixture_runs ON fixture_runs(fixture, run_at DESC);
	`)
	return err
}

// RecordResult stores one run of the fixture.
func (s *Store) RecordResult(ctx context.Context, fixture string, passed bool) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO fixture_runs (fixture, passed, run_at) VALUES (?, ?, ?)`,
		fixture, passed, s.now().UnixNano())
	return err
}

// Flaky returns the fixtures that both passed and failed at least once and
// whose failure rate reaches threshold, most flaky first.
func (s *Store) Flaky(ctx context.Context, threshold float64) ([]*Fixture, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT fixture, COUNT(*), SUM(CASE WHEN passed THEN 1 ELSE 0 END), MIN(run_at), MAX(run_at)
		FROM fixture_runs
		GROUP BY fixture`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flaky []*Fixture
	for rows.Next() {
		var (
			f           Fixture
			first, last int64
		)
		if err := rows.Scan(&f.Path, &f.Runs, &f.Passed, &first, &last); err != nil {
			return nil, err
		}
		f.FirstRun, f.LastRun = time.Unix(0, first).UTC(), time.Unix(0, last).UTC()
		f.Failed = f.Runs - f.Passed
		if f.Passed == 0 || f.Failed == 0 {
			continue
		}
		f.FailureRate = float64(f.Failed) / float64(f.Runs)
		if f.FailureRate < threshold {
			continue
		}
		flaky = append(flaky, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, f := range flaky {
		recent, err := s.recent(ctx, f.Path)
		if err != nil {
			s.logger.Warn("failed to read recent runs", zap.String("fixture", f.Path), zap.Error(err))
		}
		f.Recent = recent
	}
	sort.SliceStable(flaky, func(i, j int) bool {
		if flaky[i].FailureRate != flaky[j].FailureRate {
			return flaky[i].FailureRate > flaky[j].FailureRate
		}
		return flaky[i].Path < flaky[j].Path
	})
	return flaky, nil
}

func (s *Store) recent(ctx context.Context, fixture string) ([]bool, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT passed FROM fixture_runs WHERE fixture = ? ORDER BY run_at DESC, id DESC LIMIT ?`,
		fixture, recentRuns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recent []bool
	for rows.Next() {
		var passed bool
		if err := rows.Scan(&passed); err != nil {
			return nil, err
		}
		recent = append(recent, passed)
	}
	return recent, rows.Err()
}

func (s *Store) Close() error {
	return s.conn.Close()
}
