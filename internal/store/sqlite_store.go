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

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/scanvault/api/internal/model"
)

// Fixed-width UTC layout so timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const jobColumns = `id, source_name, title, status, submitted_at, updated_at, completed_at,
	model_url, thumbnail_url, error_message, calculate_type, file_format`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id             TEXT PRIMARY KEY,
		source_name    TEXT NOT NULL DEFAULT '',
		title          TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL,
		submitted_at   TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		completed_at   TEXT,
		model_url      TEXT NOT NULL DEFAULT '',
		thumbnail_url  TEXT NOT NULL DEFAULT '',
		error_message  TEXT NOT NULL DEFAULT '',
		calculate_type INTEGER NOT NULL DEFAULT 0,
		file_format    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_submitted_at ON jobs(submitted_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
}

// SQLiteJobStore keeps job records in a single SQLite table. It uses one
// connection so every statement is serialized.
type SQLiteJobStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLiteJobStore opens (or creates) the database at path and applies the schema.
func OpenSQLiteJobStore(path string, logger *zap.Logger) (*SQLiteJobStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	for _, stmt := range sqliteSchema {
		if _, execErr := db.Exec(stmt); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", execErr)
		}
	}

	return &SQLiteJobStore{
		db:     db,
		path:   path,
		logger: logger.Named("sqlite_store"),
		now:    time.Now,
	}, nil
}

func (s *SQLiteJobStore) Upsert(ctx context.Context, id string, fields model.JobFields, defaults model.JobDefaults) (*model.JobRecord, error) {
	now := s.now()
	insert := model.NewJobRecord(id, fields, defaults, now)
	status, completedAt, modelURL, thumbURL, errMsg := updateArgs(fields)

	var out *model.JobRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (`+jobColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status        = COALESCE(?, status),
				completed_at  = COALESCE(?, completed_at),
				model_url     = COALESCE(NULLIF(?, ''), model_url),
				thumbnail_url = COALESCE(NULLIF(?, ''), thumbnail_url),
				error_message = COALESCE(?, error_message),
				updated_at    = ?`,
			insert.ID,
			insert.SourceName,
			insert.Title,
			string(insert.Status),
			formatTime(insert.SubmittedAt),
			formatTime(insert.UpdatedAt),
			nullableTime(insert.CompletedAt),
			insert.ModelURL,
			insert.ThumbnailURL,
			insert.ErrorMessage,
			insert.CalculateType,
			insert.FileFormat,
			status, completedAt, modelURL, thumbURL, errMsg,
			formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("upsert job: %w", err)
		}

		out, err = s.getTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteJobStore) UpdateIfActive(ctx context.Context, id string, fields model.JobFields) (*model.JobRecord, bool, error) {
	status, completedAt, modelURL, thumbURL, errMsg := updateArgs(fields)

	var (
		out     *model.JobRecord
		applied bool
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET
				status        = COALESCE(?, status),
				completed_at  = COALESCE(?, completed_at),
				model_url     = COALESCE(NULLIF(?, ''), model_url),
				thumbnail_url = COALESCE(NULLIF(?, ''), thumbnail_url),
				error_message = COALESCE(?, error_message),
				updated_at    = ?
			WHERE id = ? AND status IN (?, ?, ?)`,
			status, completedAt, modelURL, thumbURL, errMsg,
			formatTime(s.now()),
			id,
			string(model.JobStatusUploading),
			string(model.JobStatusQueuing),
			string(model.JobStatusProcessing),
		)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		applied = n > 0

		out, err = s.getTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, applied, nil
}

func (s *SQLiteJobStore) GetByID(ctx context.Context, id string) (*model.JobRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	r, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return r, nil
}

func (s *SQLiteJobStore) ListAll(ctx context.Context) ([]model.JobRecord, error) {
	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY submitted_at DESC, id`)
}

func (s *SQLiteJobStore) ListActive(ctx context.Context) ([]model.JobRecord, error) {
	return s.list(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (?, ?, ?) ORDER BY submitted_at DESC, id`,
		string(model.JobStatusUploading),
		string(model.JobStatusQueuing),
		string(model.JobStatusProcessing),
	)
}

func (s *SQLiteJobStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLiteJobStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteJobStore) list(ctx context.Context, query string, args ...any) ([]model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	records := make([]model.JobRecord, 0)
	for rows.Next() {
		r, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return records, nil
}

func (s *SQLiteJobStore) getTx(ctx context.Context, tx *sql.Tx, id string) (*model.JobRecord, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	r, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return r, nil
}

func (s *SQLiteJobStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.JobRecord, error) {
	var (
		r           model.JobRecord
		status      string
		submittedAt string
		updatedAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(
		&r.ID,
		&r.SourceName,
		&r.Title,
		&status,
		&submittedAt,
		&updatedAt,
		&completedAt,
		&r.ModelURL,
		&r.ThumbnailURL,
		&r.ErrorMessage,
		&r.CalculateType,
		&r.FileFormat,
	); err != nil {
		return nil, err
	}

	r.Status = model.JobStatus(status)
	var err error
	if r.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid && completedAt.String != "" {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		r.CompletedAt = &t
	}
	return &r, nil
}

// updateArgs turns a partial update into nullable SQL arguments.
func updateArgs(f model.JobFields) (status, completedAt, modelURL, thumbURL, errMsg any) {
	if f.Status != nil {
		status = string(*f.Status)
	}
	if f.CompletedAt != nil {
		completedAt = formatTime(*f.CompletedAt)
	}
	if f.ModelURL != nil {
		modelURL = *f.ModelURL
	}
	if f.ThumbnailURL != nil {
		thumbURL = *f.ThumbnailURL
	}
	if f.ErrorMessage != nil {
		errMsg = *f.ErrorMessage
	}
	return
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
