package collector

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dfmart/github-repo-metrics/internal/domain"
	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
	"github.com/dfmart/github-repo-metrics/internal/metrics"
)

// state enumerates the controller's run states.
type state int

const (
	stateIdle state = iota
	stateFetching
	stateProcessing
	stateDone
	stateAborted
)

// maxConsecutiveFailures bounds retry-from-last-cursor so a persistently
// failing source cannot spin the loop forever. Reaching the bound ends
// the run with whatever was accumulated.
const maxConsecutiveFailures = 3

// Controller drives repeated page fetches until the target record count
// is reached or the source is exhausted. It owns the accumulated record
// set for the duration of one run and tolerates per-page and per-record
// failures as long as progress is possible.
type Controller struct {
	fetcher  PageFetcher
	pacer    Pacer
	logger   *log.Logger
	target   int
	pageSize int

	// Checkpointer, when set, receives a best-effort snapshot of the
	// accumulated records every CheckpointEvery pages.
	Checkpointer    Checkpointer
	CheckpointEvery int

	// now is swappable for tests.
	now func() time.Time
}

// Result reports the outcome of one collection run.
type Result struct {
	Records          []*domain.RepoRecord
	PagesFetched     int
	RecordsFetched   int
	RecordsProcessed int
	Interrupted      bool
}

// NewController creates a controller for one collection run.
func NewController(fetcher PageFetcher, pacer Pacer, target, pageSize int, logger *log.Logger) *Controller {
	return &Controller{
		fetcher:         fetcher,
		pacer:           pacer,
		logger:          logger,
		target:          target,
		pageSize:        pageSize,
		CheckpointEvery: 5,
		now:             time.Now,
	}
}

// Collect runs the fetch loop. baseline is the previously persisted record
// set when the caller elected to resume; it becomes the accumulation
// starting point and fetched records already present in it (by URL) are
// discarded. Collect never accumulates past the target.
//
// The only fatal outcome is a transport failure before any page has been
// fetched; every later failure is logged and the loop retries from the
// last good cursor. Context cancellation ends the run early with
// everything accumulated so far intact.
func (c *Controller) Collect(ctx context.Context, baseline []*domain.RepoRecord) (*Result, error) {
	accumulated := make([]*domain.RepoRecord, 0, c.target)
	seen := make(map[string]bool)
	for _, rec := range baseline {
		if seen[rec.URL] {
			continue
		}
		seen[rec.URL] = true
		accumulated = append(accumulated, rec)
	}

	res := &Result{Records: accumulated}
	if len(accumulated) >= c.target {
		c.logger.Info("baseline already meets target, nothing to fetch",
			"baseline", len(accumulated), "target", c.target)
		return res, nil
	}

	var (
		st       = stateIdle
		cursor   = ""
		hasNext  = true
		failures = 0
	)

	for st != stateDone && st != stateAborted {
		if ctx.Err() != nil {
			res.Interrupted = true
			c.logger.Warn("interrupted, keeping accumulated records", "records", len(res.Records))
			break
		}

		st = stateFetching
		page, err := c.fetcher.FetchPage(ctx, cursor, c.nextPageSize(len(res.Records)))
		res.PagesFetched++

		if err != nil {
			switch {
			case ctx.Err() != nil:
				res.Interrupted = true
				c.logger.Warn("interrupted during fetch, keeping accumulated records",
					"records", len(res.Records))
				return res, nil

			case apperrors.IsEmptyPage(err):
				// End of stream even if the source claimed more pages.
				c.logger.Info("empty page, treating as end of stream", "page", res.PagesFetched)
				st = stateDone
				continue

			case apperrors.IsSource(err) && page != nil:
				// Application-level failure; partial data is still usable.
				c.logger.Warn("source reported errors, ingesting partial page",
					"page", res.PagesFetched, "err", err)

			default:
				if cursor == "" && res.RecordsFetched == 0 {
					// Nothing to retry from: the run cannot start.
					st = stateAborted
					return nil, err
				}
				failures++
				c.logger.Warn("page fetch failed, retrying from last cursor",
					"page", res.PagesFetched, "attempt", failures, "err", err)
				if failures >= maxConsecutiveFailures {
					c.logger.Error("giving up after repeated fetch failures",
						"failures", failures, "records", len(res.Records))
					st = stateDone
					continue
				}
				// Page 0 is always a pacing multiple: back off before retrying.
				if perr := c.pacer.Pace(ctx, 0); perr != nil {
					res.Interrupted = true
					return res, nil
				}
				continue
			}
		}
		failures = 0

		st = stateProcessing
		fetched, processed := c.ingest(page, seen, res)
		c.logger.Info("page processed",
			"page", res.PagesFetched, "fetched", fetched, "processed", processed,
			"accumulated", len(res.Records), "target", c.target)

		if page.EndCursor != "" {
			cursor = page.EndCursor
		}
		hasNext = page.HasNext

		switch {
		case len(res.Records) >= c.target:
			c.logger.Info("target reached", "records", len(res.Records))
			st = stateDone
		case fetched == 0:
			c.logger.Info("page carried no records, treating as end of stream", "page", res.PagesFetched)
			st = stateDone
		case !hasNext:
			c.logger.Info("source exhausted", "records", len(res.Records))
			st = stateDone
		default:
			c.checkpoint(ctx, res)
			if perr := c.pacer.Pace(ctx, res.PagesFetched); perr != nil {
				res.Interrupted = true
				return res, nil
			}
		}
	}

	return res, nil
}

// ingest merges one page into the accumulated set: known URLs are
// discarded, each new record is derived individually, and a record that
// fails derivation is skipped without affecting the rest of the page.
func (c *Controller) ingest(page *domain.Page, seen map[string]bool, res *Result) (fetched, processed int) {
	if page == nil {
		return 0, 0
	}
	now := c.now()
	fetched = len(page.Records)
	res.RecordsFetched += fetched

	for _, raw := range page.Records {
		if seen[raw.URL] {
			continue
		}
		if len(res.Records) >= c.target {
			break
		}
		rec, err := metrics.Derive(raw, now)
		if err != nil {
			c.logger.Warn("skipping record", "url", raw.URL, "err", err)
			continue
		}
		seen[raw.URL] = true
		res.Records = append(res.Records, rec)
		processed++
	}
	res.RecordsProcessed += processed
	return fetched, processed
}

// nextPageSize never requests more records than the remaining shortfall.
func (c *Controller) nextPageSize(accumulated int) int {
	remaining := c.target - accumulated
	if remaining < c.pageSize {
		return remaining
	}
	return c.pageSize
}

func (c *Controller) checkpoint(ctx context.Context, res *Result) {
	if c.Checkpointer == nil || c.CheckpointEvery <= 0 || res.PagesFetched%c.CheckpointEvery != 0 {
		return
	}
	if err := c.Checkpointer.Checkpoint(ctx, res.Records); err != nil {
		c.logger.Warn("checkpoint failed", "page", res.PagesFetched, "err", err)
		return
	}
	c.logger.Info("checkpoint written", "page", res.PagesFetched, "records", len(res.Records))
}
