// Package repository stores accepted feedback records in SQLite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	// Pure Go driver, no CGO.
	_ "modernc.org/sqlite"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Record statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// ErrInvalidStatus is returned by UpdateStatus for unknown statuses.
var ErrInvalidStatus = errors.New("invalid status")

// SQLiteRepository encapsulates the SQL database connection.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dbPath and ensures the schema exists. Use
// ":memory:" for a throwaway database.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// WAL lets readers proceed while a submission is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return repo, nil
}

func (r *SQLiteRepository) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		api_key TEXT NOT NULL,
		version TEXT,
		date DATETIME,

		consent BOOLEAN DEFAULT FALSE,
		url TEXT,

		-- Display and platform, flattened for listing
		screen_width INTEGER,
		screen_height INTEGER,
		pixel_ratio REAL,
		user_agent TEXT,
		platform TEXT,
		language TEXT,
		private_mode BOOLEAN DEFAULT FALSE,

		-- Screenshot: inline base64 or an object key
		screenshot TEXT,
		screenshot_key TEXT,

		-- JSON documents
		data TEXT NOT NULL,
		cookies TEXT,
		navigator TEXT,
		logs TEXT,
		service_workers TEXT,

		status TEXT DEFAULT 'open',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_api_key ON feedback(api_key);
	CREATE INDEX IF NOT EXISTS idx_feedback_status ON feedback(status);
	CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
	`
	_, err := r.db.Exec(query)
	return err
}

const columns = `
		id, api_key, version, date, consent, url,
		screen_width, screen_height, pixel_ratio,
		user_agent, platform, language, private_mode,
		screenshot, screenshot_key,
		data, cookies, navigator, logs, service_workers,
		status, created_at, updated_at`

// Create inserts rec. Timestamps are always set server-side.
func (r *SQLiteRepository) Create(ctx context.Context, rec *model.Record) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = StatusOpen
	}
	if len(rec.Data) == 0 {
		rec.Data = json.RawMessage("[]")
	}

	query := `INSERT INTO feedback (` + columns + `
	) VALUES (
		?, ?, ?, ?, ?, ?,
		?, ?, ?,
		?, ?, ?, ?,
		?, ?,
		?, ?, ?, ?, ?,
		?, ?, ?
	)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.APIKey, rec.Version, rec.Date.UTC(), rec.Consent, rec.URL,
		rec.ScreenWidth, rec.ScreenHeight, rec.PixelRatio,
		rec.UserAgent, rec.Platform, rec.Language, rec.PrivateMode,
		rec.Screenshot, rec.ScreenshotKey,
		string(rec.Data), string(rec.Cookies), string(rec.Navigator), string(rec.Logs), string(rec.ServiceWorkers),
		rec.Status, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert feedback")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*model.Record, error) {
	rec := &model.Record{}
	var (
		version, url, userAgent, platform, language sql.NullString
		screenshot, screenshotKey                   sql.NullString
		data, cookies, navigator, logs, workers     sql.NullString
		screenWidth, screenHeight                   sql.NullInt64
		pixelRatio                                  sql.NullFloat64
	)
	err := row.Scan(
		&rec.ID, &rec.APIKey, &version, &rec.Date, &rec.Consent, &url,
		&screenWidth, &screenHeight, &pixelRatio,
		&userAgent, &platform, &language, &rec.PrivateMode,
		&screenshot, &screenshotKey,
		&data, &cookies, &navigator, &logs, &workers,
		&rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Version = version.String
	rec.URL = url.String
	rec.ScreenWidth = int(screenWidth.Int64)
	rec.ScreenHeight = int(screenHeight.Int64)
	rec.PixelRatio = pixelRatio.Float64
	rec.UserAgent = userAgent.String
	rec.Platform = platform.String
	rec.Language = language.String
	rec.Screenshot = screenshot.String
	rec.ScreenshotKey = screenshotKey.String
	rec.Data = raw(data)
	rec.Cookies = raw(cookies)
	rec.Navigator = raw(navigator)
	rec.Logs = raw(logs)
	rec.ServiceWorkers = raw(workers)
	return rec, nil
}

func raw(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.RawMessage(s.String)
}

// GetByID returns the record, or nil when there is none.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*model.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM feedback WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get feedback %s", id)
	}
	return rec, nil
}

// ListOptions filters and pages List.
type ListOptions struct {
	APIKey string // empty lists every key
	Limit  int
	Offset int
}

// List returns records newest first.
func (r *SQLiteRepository) List(ctx context.Context, opts ListOptions) ([]*model.Record, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := `SELECT ` + columns + ` FROM feedback`
	args := []any{}
	if opts.APIKey != "" {
		query += ` WHERE api_key = ?`
		args = append(args, opts.APIKey)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list feedback")
	}
	defer rows.Close()

	records := make([]*model.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan feedback")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateStatus moves a record through the triage workflow. It reports false
// when the record does not exist.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id, status string) (bool, error) {
	switch status {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
	default:
		return false, errors.Wrapf(ErrInvalidStatus, "%q", status)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE feedback SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return false, errors.Wrap(err, "update status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "update status")
	}
	return n > 0, nil
}

// Close terminates the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
