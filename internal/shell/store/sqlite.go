package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	sqlite "github.com/mattn/go-sqlite3"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStoreError("NewSQLiteStore", "", "", "failed to create database directory", ErrConnectionFailed)
		}
	}

	// Open database connection
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Deployment Operations
// =============================================================================

// deploymentRow represents a deployment row in the database.
type deploymentRow struct {
	ID            string  `db:"id"`
	Status        string  `db:"status"`
	Stage         string  `db:"stage"`
	Kind          string  `db:"kind"`
	Language      string  `db:"language"`
	WorkspaceDir  string  `db:"workspace_dir"`
	ImageRef      string  `db:"image_ref"`
	ImageDigest   string  `db:"image_digest"`
	RepositoryURL string  `db:"repository_url"`
	ErrorMessage  string  `db:"error_message"`
	StartedAt     string  `db:"started_at"`
	FinishedAt    *string `db:"finished_at"`
}

func (s *SQLiteStore) CreateDeployment(ctx context.Context, result deployment.Result) error {
	query := `
		INSERT INTO deployments (
			id, status, stage, kind, language, workspace_dir, image_ref,
			image_digest, repository_url, error_message, started_at, finished_at
		) VALUES (
			:id, :status, :stage, :kind, :language, :workspace_dir, :image_ref,
			:image_digest, :repository_url, :error_message, :started_at, :finished_at
		)`

	_, err := s.db.NamedExecContext(ctx, query, resultToRow(result))
	if err != nil {
		if isUniqueViolation(err) {
			return NewStoreError("CreateDeployment", "deployment", result.ID, "deployment already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateDeployment", "deployment", result.ID, err.Error(), err)
	}
	return nil
}

func (s *SQLiteStore) GetDeployment(ctx context.Context, id string) (deployment.Result, error) {
	query := `SELECT * FROM deployments WHERE id = ?`

	var row deploymentRow
	err := s.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deployment.Result{}, NewStoreError("GetDeployment", "deployment", id, "deployment not found", ErrNotFound)
		}
		return deployment.Result{}, NewStoreError("GetDeployment", "deployment", id, err.Error(), err)
	}

	return rowToResult(&row)
}

func (s *SQLiteStore) UpdateDeployment(ctx context.Context, result deployment.Result) error {
	query := `
		UPDATE deployments SET
			status = :status, stage = :stage, kind = :kind, language = :language,
			workspace_dir = :workspace_dir, image_ref = :image_ref,
			image_digest = :image_digest, repository_url = :repository_url,
			error_message = :error_message, finished_at = :finished_at
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, resultToRow(result))
	if err != nil {
		return NewStoreError("UpdateDeployment", "deployment", result.ID, err.Error(), err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return NewStoreError("UpdateDeployment", "deployment", result.ID, err.Error(), err)
	}
	if rows == 0 {
		return NewStoreError("UpdateDeployment", "deployment", result.ID, "deployment not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListDeployments(ctx context.Context, opts ListOptions) ([]deployment.Result, error) {
	opts = opts.Normalize()

	where, args := statusFilter(opts.Status)
	query := `SELECT * FROM deployments` + where
	query += ` ORDER BY started_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	var rows []deploymentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListDeployments", "deployment", "", err.Error(), err)
	}

	results := make([]deployment.Result, 0, len(rows))
	for i := range rows {
		r, err := rowToResult(&rows[i])
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// CountDeployments returns the number of stored deployments with status, or
// of all deployments when status is empty.
func (s *SQLiteStore) CountDeployments(ctx context.Context, status deployment.Status) (int, error) {
	where, args := statusFilter(status)

	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM deployments`+where, args...); err != nil {
		return 0, NewStoreError("CountDeployments", "deployment", "", err.Error(), err)
	}
	return n, nil
}

func statusFilter(status deployment.Status) (string, []any) {
	var (
		where []string
		args  []any
	)
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, string(status))
	}
	if len(where) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(where, " AND "), args
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// RecordStarted stores the initial running record of a deployment.
func (s *SQLiteStore) RecordStarted(ctx context.Context, result deployment.Result) error {
	return s.CreateDeployment(ctx, result)
}

// RecordFinished stores the terminal outcome of a deployment, creating the
// record when the start was never recorded.
func (s *SQLiteStore) RecordFinished(ctx context.Context, result deployment.Result) error {
	err := s.UpdateDeployment(ctx, result)
	if errors.Is(err, ErrNotFound) {
		return s.CreateDeployment(ctx, result)
	}
	return err
}

// =============================================================================
// Row Conversion
// =============================================================================

func resultToRow(r deployment.Result) deploymentRow {
	row := deploymentRow{
		ID:            r.ID,
		Status:        string(r.Status),
		Stage:         string(r.Stage),
		Kind:          string(r.Kind),
		Language:      r.Language,
		WorkspaceDir:  r.WorkspaceDir,
		ImageRef:      r.ImageRef,
		ImageDigest:   r.ImageDigest,
		RepositoryURL: r.RepositoryURL,
		ErrorMessage:  r.Error,
		StartedAt:     r.StartedAt.UTC().Format(timeLayout),
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt.UTC().Format(timeLayout)
		row.FinishedAt = &finished
	}
	return row
}

func rowToResult(row *deploymentRow) (deployment.Result, error) {
	startedAt, err := time.Parse(timeLayout, row.StartedAt)
	if err != nil {
		return deployment.Result{}, NewStoreError("rowToResult", "deployment", row.ID, "invalid started_at", ErrInvalidData)
	}

	r := deployment.Result{
		ID:            row.ID,
		Status:        deployment.Status(row.Status),
		Stage:         deployment.Stage(row.Stage),
		Kind:          deployment.Kind(row.Kind),
		Language:      row.Language,
		WorkspaceDir:  row.WorkspaceDir,
		ImageRef:      row.ImageRef,
		ImageDigest:   row.ImageDigest,
		RepositoryURL: row.RepositoryURL,
		Error:         row.ErrorMessage,
		StartedAt:     startedAt,
	}

	if row.FinishedAt != nil {
		finishedAt, err := time.Parse(timeLayout, *row.FinishedAt)
		if err != nil {
			return deployment.Result{}, NewStoreError("rowToResult", "deployment", row.ID, "invalid finished_at", ErrInvalidData)
		}
		r.FinishedAt = finishedAt
	}
	return r, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite.ErrConstraintUnique
	}
	return false
}
