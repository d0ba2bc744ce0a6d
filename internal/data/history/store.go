package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	// Fixed-width so that ORDER BY ts_utc is chronological.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Run is one recorded analysis.
type Run struct {
	ID         string
	Timestamp  time.Time
	Roots      []string
	FileCount  int
	EdgeCount  int
	CycleCount int
	Cycles     [][]string
}

// Recurrence is how many recorded runs reported a file inside a cycle.
type Recurrence struct {
	Path string
	Runs int
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when watch-mode runs overlap a reader.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun stores the run with its roots and cycles in one transaction.
func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	return s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if err := insertRun(tx, run); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func insertRun(tx *sql.Tx, run Run) error {
	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, ts_utc, file_count, edge_count, cycle_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.Timestamp.UTC().Format(timestampLayout),
		run.FileCount,
		run.EdgeCount,
		len(run.Cycles),
	); err != nil {
		return err
	}
	for i, root := range run.Roots {
		if _, err := tx.Exec(`INSERT INTO run_roots (run_id, position, path) VALUES (?, ?, ?)`, run.ID, i, root); err != nil {
			return err
		}
	}
	for ci, cycle := range run.Cycles {
		for mi, path := range cycle {
			if _, err := tx.Exec(
				`INSERT INTO cycle_members (run_id, cycle_index, member_index, path) VALUES (?, ?, ?, ?)`,
				run.ID, ci, mi, path,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadRuns returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) LoadRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT run_id, ts_utc, file_count, edge_count, cycle_count FROM runs ORDER BY ts_utc DESC, run_id ASC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var runs []Run
	err := s.withRetry("load runs", func() error {
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		runs = runs[:0]
		for rows.Next() {
			var (
				run   Run
				tsRaw string
			)
			if err := rows.Scan(&run.ID, &tsRaw, &run.FileCount, &run.EdgeCount, &run.CycleCount); err != nil {
				return fmt.Errorf("scan run row: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, tsRaw)
			if err != nil {
				return fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
			}
			run.Timestamp = ts.UTC()
			runs = append(runs, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.loadDetails(&runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) loadDetails(run *Run) error {
	return s.withRetry("load run details", func() error {
		roots, err := s.db.Query(`SELECT path FROM run_roots WHERE run_id = ? ORDER BY position`, run.ID)
		if err != nil {
			return err
		}
		run.Roots = nil
		for roots.Next() {
			var path string
			if err := roots.Scan(&path); err != nil {
				roots.Close()
				return fmt.Errorf("scan root row: %w", err)
			}
			run.Roots = append(run.Roots, path)
		}
		roots.Close()
		if err := roots.Err(); err != nil {
			return err
		}

		members, err := s.db.Query(
			`SELECT cycle_index, path FROM cycle_members WHERE run_id = ? ORDER BY cycle_index, member_index`,
			run.ID,
		)
		if err != nil {
			return err
		}
		defer members.Close()

		run.Cycles = nil
		for members.Next() {
			var (
				idx  int
				path string
			)
			if err := members.Scan(&idx, &path); err != nil {
				return fmt.Errorf("scan cycle row: %w", err)
			}
			for len(run.Cycles) <= idx {
				run.Cycles = append(run.Cycles, nil)
			}
			run.Cycles[idx] = append(run.Cycles[idx], path)
		}
		return members.Err()
	})
}

// CycleOccurrences counts the recorded runs in which path was part of a reported cycle.
func (s *Store) CycleOccurrences(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.withRetry("count cycle occurrences", func() error {
		return s.db.QueryRow(`SELECT COUNT(DISTINCT run_id) FROM cycle_members WHERE path = ?`, path).Scan(&count)
	})
	return count, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
