package collector

import (
	"context"

	"github.com/dfmart/github-repo-metrics/internal/domain"
)

// PageFetcher retrieves one page of repository search results. cursor is
// the opaque continuation token from the previous page, empty for the
// first page. Implementations may return a non-nil page together with a
// source error when the response carried partial data.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string, pageSize int) (*domain.Page, error)
}

// Pacer inserts scheduling pauses between page fetches to respect the
// source's rate limits. page is the number of fetch attempts so far.
type Pacer interface {
	Pace(ctx context.Context, page int) error
}

// Checkpointer persists a mid-run snapshot of the accumulated records so
// an interrupted run loses at most one checkpoint interval of work.
type Checkpointer interface {
	Checkpoint(ctx context.Context, records []*domain.RepoRecord) error
}
