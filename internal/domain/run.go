package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a collection run
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusInterrupted RunStatus = "interrupted"
	RunStatusAborted     RunStatus = "aborted"
)

// CollectionRun represents one collection run of the crawler
type CollectionRun struct {
	ID               string     `json:"id"`
	Target           int        `json:"target"`
	MinStars         int        `json:"min_stars"`
	PagesFetched     int        `json:"pages_fetched"`
	RecordsCollected int        `json:"records_collected"`
	Status           RunStatus  `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// NewCollectionRun creates a run in the running state with a fresh id
func NewCollectionRun(target, minStars int) *CollectionRun {
	return &CollectionRun{
		ID:        uuid.New().String(),
		Target:    target,
		MinStars:  minStars,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Finish marks the run finished with the given status and counters
func (r *CollectionRun) Finish(status RunStatus, pages, records int) {
	now := time.Now()
	r.Status = status
	r.PagesFetched = pages
	r.RecordsCollected = records
	r.FinishedAt = &now
}
