// Package store handles SQLite persistence of the raw study records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const metaVacationStartedAt = "vacation_started_at"

// Store wraps SQLite access for review and assignment records.
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
		`CREATE TABLE IF NOT EXISTS reviews (
			reviewed_at_ms INTEGER NOT NULL,
			subject_id INTEGER NOT NULL,
			srs_stage INTEGER NOT NULL,
			incorrect_meaning INTEGER NOT NULL,
			incorrect_reading INTEGER NOT NULL,
			PRIMARY KEY (reviewed_at_ms, subject_id)
		);`,
		`CREATE TABLE IF NOT EXISTS assignments (
			subject_id INTEGER PRIMARY KEY,
			subject_type TEXT NOT NULL,
			level INTEGER NOT NULL,
			unlocked_at_ms INTEGER,
			started_at_ms INTEGER,
			available_at_ms INTEGER,
			srs_stage INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_started_at ON assignments(started_at_ms);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertReviews stores reviews, ignoring ones already cached. It returns the
// number of new rows.
func (s *Store) InsertReviews(ctx context.Context, reviews []model.ReviewRecord) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO reviews (reviewed_at_ms, subject_id, srs_stage, incorrect_meaning, incorrect_reading)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, r := range reviews {
		res, err := stmt.ExecContext(ctx, r.Timestamp.UnixMilli(), r.SubjectID, r.SRSStage, r.IncorrectMeaning, r.IncorrectReading)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		n += int(affected)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// UpsertAssignments stores assignments, replacing the state of known subjects.
func (s *Store) UpsertAssignments(ctx context.Context, assignments []model.AssignmentRecord) (err error) {
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

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO assignments (subject_id, subject_type, level, unlocked_at_ms, started_at_ms, available_at_ms, srs_stage)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subject_id) DO UPDATE SET
			subject_type = excluded.subject_type,
			level = excluded.level,
			unlocked_at_ms = excluded.unlocked_at_ms,
			started_at_ms = excluded.started_at_ms,
			available_at_ms = excluded.available_at_ms,
			srs_stage = excluded.srs_stage`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, a := range assignments {
		var unlocked *time.Time
		if !a.UnlockedAt.IsZero() {
			unlocked = &a.UnlockedAt
		}
		if _, err := stmt.ExecContext(ctx, a.SubjectID, a.SubjectType, a.Level,
			nullMillis(unlocked), nullMillis(a.StartedAt), nullMillis(a.AvailableAt), a.SRSStage); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetVacationStartedAt records when the current vacation began; nil clears it.
func (s *Store) SetVacationStartedAt(ctx context.Context, at *time.Time) error {
	if at == nil {
		_, err := s.db.ExecContext(ctx, `DELETE FROM user_meta WHERE key = ?`, metaVacationStartedAt)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaVacationStartedAt, at.UTC().Format(time.RFC3339Nano))
	return err
}

// VacationStartedAt returns the recorded vacation start, if any.
func (s *Store) VacationStartedAt(ctx context.Context) (*time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM user_meta WHERE key = ?`, metaVacationStartedAt).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vacation start %q: %w", raw, err)
	}
	return &at, nil
}

// ListReviews returns every cached review in chronological order.
func (s *Store) ListReviews(ctx context.Context) ([]model.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reviewed_at_ms, subject_id, srs_stage, incorrect_meaning, incorrect_reading
		 FROM reviews ORDER BY reviewed_at_ms, subject_id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ReviewRecord
	for rows.Next() {
		var r model.ReviewRecord
		var ms int64
		if err := rows.Scan(&ms, &r.SubjectID, &r.SRSStage, &r.IncorrectMeaning, &r.IncorrectReading); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(ms)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAssignments returns every cached assignment ordered by start time, with
// unstarted ones last.
func (s *Store) ListAssignments(ctx context.Context) ([]model.AssignmentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_id, subject_type, level, unlocked_at_ms, started_at_ms, available_at_ms, srs_stage
		 FROM assignments
		 ORDER BY started_at_ms IS NULL, started_at_ms, subject_id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AssignmentRecord
	for rows.Next() {
		var a model.AssignmentRecord
		var unlocked, started, available sql.NullInt64
		if err := rows.Scan(&a.SubjectID, &a.SubjectType, &a.Level, &unlocked, &started, &available, &a.SRSStage); err != nil {
			return nil, err
		}
		if t := fromNullMillis(unlocked); t != nil {
			a.UnlockedAt = *t
		}
		a.StartedAt = fromNullMillis(started)
		a.AvailableAt = fromNullMillis(available)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LoadInputs returns every raw record the engine needs for a recompute.
func (s *Store) LoadInputs(ctx context.Context) (model.Inputs, error) {
	reviews, err := s.ListReviews(ctx)
	if err != nil {
		return model.Inputs{}, fmt.Errorf("failed to list reviews: %w", err)
	}
	assignments, err := s.ListAssignments(ctx)
	if err != nil {
		return model.Inputs{}, fmt.Errorf("failed to list assignments: %w", err)
	}
	vacation, err := s.VacationStartedAt(ctx)
	if err != nil {
		return model.Inputs{}, fmt.Errorf("failed to read vacation start: %w", err)
	}
	return model.Inputs{
		Reviews:           reviews,
		Assignments:       assignments,
		VacationStartedAt: vacation,
	}, nil
}

// ClearReviews drops the review cache so the next import starts from scratch.
func (s *Store) ClearReviews(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}
