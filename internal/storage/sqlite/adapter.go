package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dfmart/github-repo-metrics/internal/domain"
	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
	"github.com/dfmart/github-repo-metrics/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewPersistenceError(dbPath, err)
	}

	s := &sqliteStorage{db: db, path: dbPath}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema when it does not exist yet
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		url TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		stars INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		age_days INTEGER NOT NULL,
		merged_pull_requests INTEGER NOT NULL,
		total_releases INTEGER NOT NULL,
		days_since_last_update INTEGER NOT NULL,
		primary_language TEXT NOT NULL,
		total_issues INTEGER NOT NULL,
		closed_issues INTEGER NOT NULL,
		closed_issues_percentage REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_repositories_stars ON repositories(stars);
	CREATE INDEX IF NOT EXISTS idx_repositories_language ON repositories(primary_language);

	CREATE TABLE IF NOT EXISTS collection_runs (
		id TEXT PRIMARY KEY,
		target INTEGER NOT NULL,
		min_stars INTEGER NOT NULL,
		pages_fetched INTEGER NOT NULL,
		records_collected INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_collection_runs_started_at ON collection_runs(started_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewPersistenceError(s.path, err)
	}
	return nil
}

// SaveRecords upserts the record set keyed by url
func (s *sqliteStorage) SaveRecords(ctx context.Context, records []*domain.RepoRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistenceError(s.path, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO repositories (
			url, name, owner, stars, created_at, updated_at, age_days,
			merged_pull_requests, total_releases, days_since_last_update,
			primary_language, total_issues, closed_issues, closed_issues_percentage
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.NewPersistenceError(s.path, err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.URL, r.Name, r.Owner, r.Stars, r.CreatedAt, r.UpdatedAt, r.AgeDays,
			r.MergedPullRequests, r.TotalReleases, r.DaysSinceLastUpdate,
			r.PrimaryLanguage, r.TotalIssues, r.ClosedIssues, r.ClosedIssuesPercentage,
		)
		if err != nil {
			return apperrors.NewPersistenceError(s.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewPersistenceError(s.path, err)
	}
	return nil
}

// LoadRecords returns the mirrored record set sorted by star count
func (s *sqliteStorage) LoadRecords(ctx context.Context) ([]*domain.RepoRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, name, owner, stars, created_at, updated_at, age_days,
		       merged_pull_requests, total_releases, days_since_last_update,
		       primary_language, total_issues, closed_issues, closed_issues_percentage
		FROM repositories
		ORDER BY stars DESC
	`)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.path, err)
	}
	defer rows.Close()

	var records []*domain.RepoRecord
	for rows.Next() {
		r := &domain.RepoRecord{}
		err := rows.Scan(
			&r.URL, &r.Name, &r.Owner, &r.Stars, &r.CreatedAt, &r.UpdatedAt, &r.AgeDays,
			&r.MergedPullRequests, &r.TotalReleases, &r.DaysSinceLastUpdate,
			&r.PrimaryLanguage, &r.TotalIssues, &r.ClosedIssues, &r.ClosedIssuesPercentage,
		)
		if err != nil {
			return nil, apperrors.NewPersistenceError(s.path, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError(s.path, err)
	}
	return records, nil
}

// SaveRun upserts one collection run by id
func (s *sqliteStorage) SaveRun(ctx context.Context, run *domain.CollectionRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO collection_runs (
			id, target, min_stars, pages_fetched, records_collected,
			status, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Target, run.MinStars, run.PagesFetched, run.RecordsCollected,
		string(run.Status), run.StartedAt, run.FinishedAt)
	if err != nil {
		return apperrors.NewPersistenceError(s.path, err)
	}
	return nil
}

// ListRuns returns the run history, most recent first
func (s *sqliteStorage) ListRuns(ctx context.Context) ([]*domain.CollectionRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, min_stars, pages_fetched, records_collected,
		       status, started_at, finished_at
		FROM collection_runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.path, err)
	}
	defer rows.Close()

	var runs []*domain.CollectionRun
	for rows.Next() {
		run := &domain.CollectionRun{}
		var status string
		var finishedAt sql.NullTime
		err := rows.Scan(&run.ID, &run.Target, &run.MinStars, &run.PagesFetched,
			&run.RecordsCollected, &status, &run.StartedAt, &finishedAt)
		if err != nil {
			return nil, apperrors.NewPersistenceError(s.path, err)
		}
		run.Status = domain.RunStatus(status)
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError(s.path, err)
	}
	return runs, nil
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
