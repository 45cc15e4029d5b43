package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/dfmart/github-repo-metrics/internal/domain"
	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
	"github.com/dfmart/github-repo-metrics/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(url string) (storage.Storage, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, apperrors.NewPersistenceError("postgres", err)
	}
	if err := db.Ping(); err != nil {
		return nil, apperrors.NewPersistenceError("postgres", err)
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema when it does not exist yet
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		url TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		stars BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		age_days INTEGER NOT NULL,
		merged_pull_requests INTEGER NOT NULL,
		total_releases INTEGER NOT NULL,
		days_since_last_update INTEGER NOT NULL,
		primary_language TEXT NOT NULL,
		total_issues INTEGER NOT NULL,
		closed_issues INTEGER NOT NULL,
		closed_issues_percentage DOUBLE PRECISION NOT NULL
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
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_collection_runs_started_at ON collection_runs(started_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewPersistenceError("postgres", err)
	}
	return nil
}

// SaveRecords upserts the record set keyed by url
func (s *postgresStorage) SaveRecords(ctx context.Context, records []*domain.RepoRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistenceError("postgres", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO repositories (
			url, name, owner, stars, created_at, updated_at, age_days,
			merged_pull_requests, total_releases, days_since_last_update,
			primary_language, total_issues, closed_issues, closed_issues_percentage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			owner = EXCLUDED.owner,
			stars = EXCLUDED.stars,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			age_days = EXCLUDED.age_days,
			merged_pull_requests = EXCLUDED.merged_pull_requests,
			total_releases = EXCLUDED.total_releases,
			days_since_last_update = EXCLUDED.days_since_last_update,
			primary_language = EXCLUDED.primary_language,
			total_issues = EXCLUDED.total_issues,
			closed_issues = EXCLUDED.closed_issues,
			closed_issues_percentage = EXCLUDED.closed_issues_percentage
	`)
	if err != nil {
		return apperrors.NewPersistenceError("postgres", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.URL, r.Name, r.Owner, r.Stars, r.CreatedAt, r.UpdatedAt, r.AgeDays,
			r.MergedPullRequests, r.TotalReleases, r.DaysSinceLastUpdate,
			r.PrimaryLanguage, r.TotalIssues, r.ClosedIssues, r.ClosedIssuesPercentage,
		)
		if err != nil {
			return apperrors.NewPersistenceError("postgres", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewPersistenceError("postgres", err)
	}
	return nil
}

// LoadRecords returns the mirrored record set sorted by star count
func (s *postgresStorage) LoadRecords(ctx context.Context) ([]*domain.RepoRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, name, owner, stars, created_at, updated_at, age_days,
		       merged_pull_requests, total_releases, days_since_last_update,
		       primary_language, total_issues, closed_issues, closed_issues_percentage
		FROM repositories
		ORDER BY stars DESC
	`)
	if err != nil {
		return nil, apperrors.NewPersistenceError("postgres", err)
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
			return nil, apperrors.NewPersistenceError("postgres", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("postgres", err)
	}
	return records, nil
}

// SaveRun upserts one collection run by id
func (s *postgresStorage) SaveRun(ctx context.Context, run *domain.CollectionRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collection_runs (
			id, target, min_stars, pages_fetched, records_collected,
			status, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			pages_fetched = EXCLUDED.pages_fetched,
			records_collected = EXCLUDED.records_collected,
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at
	`, run.ID, run.Target, run.MinStars, run.PagesFetched, run.RecordsCollected,
		string(run.Status), run.StartedAt, run.FinishedAt)
	if err != nil {
		return apperrors.NewPersistenceError("postgres", err)
	}
	return nil
}

// ListRuns returns the run history, most recent first
func (s *postgresStorage) ListRuns(ctx context.Context) ([]*domain.CollectionRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, min_stars, pages_fetched, records_collected,
		       status, started_at, finished_at
		FROM collection_runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, apperrors.NewPersistenceError("postgres", err)
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
			return nil, apperrors.NewPersistenceError("postgres", err)
		}
		run.Status = domain.RunStatus(status)
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("postgres", err)
	}
	return runs, nil
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
