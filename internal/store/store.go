// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/typetrace/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrSessionNotFound is returned when no session matches the requested id.
var ErrSessionNotFound = errors.New("session not found")

// createdAtLayout keeps fractional seconds at fixed width so stored values sort as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			duration INTEGER NOT NULL,
			impulsivity REAL NOT NULL,
			deliberation REAL NOT NULL,
			cognitive_load REAL NOT NULL,
			resilience REAL NOT NULL,
			anxiety REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_error_words (
			session_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			word TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (session_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS session_speed_samples (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			after_error INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS session_recovery_events (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			error_timestamp_ms INTEGER NOT NULL,
			recovery_duration_ms INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS session_pauses (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			word TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_created ON sessions(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_error_words_word ON session_error_words(word);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSession stores a completed session with its error words and time series.
// Saving a record whose ID already exists is a no-op, so callers may retry freely.
func (s *Store) SaveSession(ctx context.Context, rec model.SessionRecord) (err error) {
	if rec.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	sum := rec.Summary
	metrics := sum.PsychologicalMetrics
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uuid, user_id, created_at, wpm, accuracy, errors, duration,
			impulsivity, deliberation, cognitive_load, resilience, anxiety)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uuid) DO NOTHING`,
		rec.ID,
		rec.UserID,
		rec.CreatedAt.UTC().Format(createdAtLayout),
		sum.WPM,
		sum.Accuracy,
		sum.Errors,
		sum.Duration,
		metrics.ImpulsivityScore,
		metrics.DeliberationScore,
		metrics.CognitiveLoadScore,
		metrics.ResilienceScore,
		metrics.AnxietyScore,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tx.Commit()
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err = insertRows(ctx, tx,
		`INSERT INTO session_error_words (session_id, position, word, count) VALUES (?, ?, ?, ?)`,
		len(sum.ErrorWords), func(i int) []any {
			w := sum.ErrorWords[i]
			return []any{id, i, w.Word, w.Count}
		}); err != nil {
		return err
	}
	samples := sum.TypingPatterns.SpeedVariations
	if err = insertRows(ctx, tx,
		`INSERT INTO session_speed_samples (session_id, seq, timestamp_ms, wpm, after_error) VALUES (?, ?, ?, ?, ?)`,
		len(samples), func(i int) []any {
			sm := samples[i]
			return []any{id, i, sm.Timestamp, sm.WPM, sm.AfterError}
		}); err != nil {
		return err
	}
	recoveries := sum.TypingPatterns.RecoveryTimes
	if err = insertRows(ctx, tx,
		`INSERT INTO session_recovery_events (session_id, seq, error_timestamp_ms, recovery_duration_ms) VALUES (?, ?, ?, ?)`,
		len(recoveries), func(i int) []any {
			ev := recoveries[i]
			return []any{id, i, ev.ErrorTimestamp, ev.RecoveryDurationMs}
		}); err != nil {
		return err
	}
	pauses := sum.TypingPatterns.PausesBefore
	if err = insertRows(ctx, tx,
		`INSERT INTO session_pauses (session_id, seq, word, duration_ms) VALUES (?, ?, ?, ?)`,
		len(pauses), func(i int) []any {
			p := pauses[i]
			return []any{id, i, p.Word, p.DurationMs}
		}); err != nil {
		return err
	}

	return tx.Commit()
}

func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

const sessionColumns = `uuid, user_id, created_at, wpm, accuracy, errors, duration,
	impulsivity, deliberation, cognitive_load, resilience, anxiety`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.SessionRecord, error) {
	var rec model.SessionRecord
	var createdAt string
	m := &rec.Summary.PsychologicalMetrics
	if err := row.Scan(&rec.ID, &rec.UserID, &createdAt,
		&rec.Summary.WPM, &rec.Summary.Accuracy, &rec.Summary.Errors, &rec.Summary.Duration,
		&m.ImpulsivityScore, &m.DeliberationScore, &m.CognitiveLoadScore, &m.ResilienceScore, &m.AnxietyScore,
	); err != nil {
		return model.SessionRecord{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.SessionRecord{}, err
	}
	rec.CreatedAt = parsed
	return rec, nil
}

// ListSessions returns session summaries filtered by stats config, oldest first.
// Error words and time series are not loaded; use GetSession for a full record.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, cfg.UserID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, cfg.Since.UTC().Format(createdAtLayout))
	}
	query := fmt.Sprintf(`SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY created_at ASC, id ASC`, sessionColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession loads one session with its error words and time series.
func (s *Store) GetSession(ctx context.Context, id string) (model.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, %s FROM sessions WHERE uuid = ?`, sessionColumns), id)
	var rowID int64
	rec, err := scanSession(prefixScanner{row: row, first: &rowID})
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionRecord{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return model.SessionRecord{}, err
	}

	sum := &rec.Summary
	sum.ErrorWords = []model.ErrorWord{}
	if err := s.queryEach(ctx,
		`SELECT word, count FROM session_error_words WHERE session_id = ? ORDER BY position`, rowID,
		func(r rowScanner) error {
			var w model.ErrorWord
			if err := r.Scan(&w.Word, &w.Count); err != nil {
				return err
			}
			sum.ErrorWords = append(sum.ErrorWords, w)
			return nil
		}); err != nil {
		return model.SessionRecord{}, err
	}

	sum.TypingPatterns.SpeedVariations = []model.SpeedSample{}
	if err := s.queryEach(ctx,
		`SELECT timestamp_ms, wpm, after_error FROM session_speed_samples WHERE session_id = ? ORDER BY seq`, rowID,
		func(r rowScanner) error {
			var sm model.SpeedSample
			if err := r.Scan(&sm.Timestamp, &sm.WPM, &sm.AfterError); err != nil {
				return err
			}
			sum.TypingPatterns.SpeedVariations = append(sum.TypingPatterns.SpeedVariations, sm)
			return nil
		}); err != nil {
		return model.SessionRecord{}, err
	}

	sum.TypingPatterns.RecoveryTimes = []model.RecoveryEvent{}
	if err := s.queryEach(ctx,
		`SELECT error_timestamp_ms, recovery_duration_ms FROM session_recovery_events WHERE session_id = ? ORDER BY seq`, rowID,
		func(r rowScanner) error {
			var ev model.RecoveryEvent
			if err := r.Scan(&ev.ErrorTimestamp, &ev.RecoveryDurationMs); err != nil {
				return err
			}
			sum.TypingPatterns.RecoveryTimes = append(sum.TypingPatterns.RecoveryTimes, ev)
			return nil
		}); err != nil {
		return model.SessionRecord{}, err
	}

	sum.TypingPatterns.PausesBefore = []model.Pause{}
	if err := s.queryEach(ctx,
		`SELECT word, duration_ms FROM session_pauses WHERE session_id = ? ORDER BY seq`, rowID,
		func(r rowScanner) error {
			var p model.Pause
			if err := r.Scan(&p.Word, &p.DurationMs); err != nil {
				return err
			}
			sum.TypingPatterns.PausesBefore = append(sum.TypingPatterns.PausesBefore, p)
			return nil
		}); err != nil {
		return model.SessionRecord{}, err
	}
	return rec, nil
}

// prefixScanner scans the leading internal row id before the session columns.
type prefixScanner struct {
	row   *sql.Row
	first *int64
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.row.Scan(append([]any{p.first}, dest...)...)
}

func (s *Store) queryEach(ctx context.Context, query string, arg any, fn func(rowScanner) error) error {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ErrorPatterns returns the most frequently mistyped words across a user's sessions.
// An empty userID aggregates over every user.
func (s *Store) ErrorPatterns(ctx context.Context, userID string, limit int) ([]model.ErrorPattern, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT w.word, SUM(w.count) AS total
		FROM session_error_words w
		JOIN sessions s ON s.id = w.session_id
		WHERE (? = '' OR s.user_id = ?)
		GROUP BY w.word
		ORDER BY total DESC, w.word ASC
		LIMIT ?`, userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ErrorPattern
	for rows.Next() {
		var p model.ErrorPattern
		if err := rows.Scan(&p.Word, &p.TotalErrors); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// PsychologicalAverages averages the five metrics over a user's sessions.
func (s *Store) PsychologicalAverages(ctx context.Context, userID string) (model.PsychologicalAverages, error) {
	var avg model.PsychologicalAverages
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(AVG(impulsivity), 0),
			COALESCE(AVG(deliberation), 0),
			COALESCE(AVG(cognitive_load), 0),
			COALESCE(AVG(resilience), 0),
			COALESCE(AVG(anxiety), 0)
		FROM sessions
		WHERE (? = '' OR user_id = ?)`, userID, userID).Scan(
		&avg.Sessions,
		&avg.AvgImpulsivity,
		&avg.AvgDeliberation,
		&avg.AvgCognitiveLoad,
		&avg.AvgResilience,
		&avg.AvgAnxiety,
	)
	if err != nil {
		return model.PsychologicalAverages{}, err
	}
	return avg, nil
}
