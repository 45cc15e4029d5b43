package storage

import (
	"context"

	"github.com/dfmart/github-repo-metrics/internal/domain"
)

// Storage is the abstract interface for the optional database mirror of
// the collected record set. The CSV file remains the canonical durable
// output; the mirror backs the read-only API and keeps run history.
type Storage interface {
	// Record operations; SaveRecords upserts by URL.
	SaveRecords(ctx context.Context, records []*domain.RepoRecord) error
	LoadRecords(ctx context.Context) ([]*domain.RepoRecord, error)

	// Run history
	SaveRun(ctx context.Context, run *domain.CollectionRun) error
	ListRuns(ctx context.Context) ([]*domain.CollectionRun, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
