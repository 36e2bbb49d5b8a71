package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	// Fixed-width UTC timestamps keep ts_utc ordering lexical.
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
	now  func() time.Time
}

// Open creates or opens the sqlite database at path. busyTimeout <= 0 uses 2s.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
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

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	// busy_timeout + WAL reduce lock conflicts when watch mode and an MCP
	// session write at the same time.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cleanPath, busyTimeout.Milliseconds())
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

	return &Store{path: cleanPath, db: db, now: time.Now}, nil
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

// SaveReview inserts r and returns it with ID, ProjectKey and Timestamp filled in.
func (s *Store) SaveReview(ctx context.Context, r Review) (Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ProjectKey = normalizeProject(r.ProjectKey)
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now()
	}
	r.Timestamp = r.Timestamp.UTC()
	r.RuleFailures = dedupeSorted(r.RuleFailures)

	failures, err := json.Marshal(r.RuleFailures)
	if err != nil {
		return Review{}, fmt.Errorf("encode rule failures: %w", err)
	}

	const query = `
INSERT INTO reviews (
  id, project_key, path, ts_utc, score, concern_count, finding_count, rule_failures, docs_version
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	err = s.withRetry(ctx, "save review", func() error {
		_, err := s.db.ExecContext(ctx, query,
			r.ID,
			r.ProjectKey,
			r.Path,
			r.Timestamp.Format(tsLayout),
			r.Score,
			r.ConcernCount,
			r.FindingCount,
			string(failures),
			r.DocsVersion,
		)
		return err
	})
	if err != nil {
		return Review{}, err
	}
	return r, nil
}

// LoadReviews returns matching reviews, newest first.
func (s *Store) LoadReviews(ctx context.Context, q Query) ([]Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT id, project_key, path, ts_utc, score, concern_count, finding_count, rule_failures, docs_version
FROM reviews
WHERE project_key = ?`
	args := []any{normalizeProject(q.ProjectKey)}
	if p := strings.TrimSpace(q.Path); p != "" {
		base += " AND path = ?"
		args = append(args, p)
	}
	if !q.Since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, q.Since.UTC().Format(tsLayout))
	}
	base += " ORDER BY ts_utc DESC, id ASC LIMIT ?"
	args = append(args, clampLimit(q.Limit))

	var rows *sql.Rows
	err := s.withRetry(ctx, "load reviews", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Review, 0)
	for rows.Next() {
		var (
			r           Review
			tsRaw       string
			failuresRaw string
		)
		if err := rows.Scan(&r.ID, &r.ProjectKey, &r.Path, &tsRaw, &r.Score,
			&r.ConcernCount, &r.FindingCount, &failuresRaw, &r.DocsVersion); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		ts, err := time.Parse(tsLayout, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse review timestamp %q: %w", tsRaw, err)
		}
		r.Timestamp = ts.UTC()
		if err := json.Unmarshal([]byte(failuresRaw), &r.RuleFailures); err != nil {
			return nil, fmt.Errorf("decode rule failures for %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return out, nil
}

func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
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
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
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

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func normalizeProject(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	return key
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func dedupeSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
