package domain

import "time"

// RawRepository represents one repository node as returned by the GitHub
// search API. Timestamps are kept as the wire strings so that a malformed
// value surfaces during derivation for that record alone, not for the
// whole page.
type RawRepository struct {
	Name            string
	Owner           string
	URL             string
	CreatedAt       string
	UpdatedAt       string
	Stars           int
	PrimaryLanguage string // empty when GitHub reports no primary language
	MergedPRs       int
	Releases        int
	TotalIssues     int
	ClosedIssues    int
}

// RepoRecord is the derived metric record for one repository, keyed by URL.
// Produced once and never mutated.
type RepoRecord struct {
	Name                   string    `json:"name"`
	Owner                  string    `json:"owner"`
	URL                    string    `json:"url"`
	Stars                  int       `json:"stars"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
	AgeDays                int       `json:"age_days"`
	MergedPullRequests     int       `json:"merged_pull_requests"`
	TotalReleases          int       `json:"total_releases"`
	DaysSinceLastUpdate    int       `json:"days_since_last_update"`
	PrimaryLanguage        string    `json:"primary_language"`
	TotalIssues            int       `json:"total_issues"`
	ClosedIssues           int       `json:"closed_issues"`
	ClosedIssuesPercentage float64   `json:"closed_issues_percentage"`
}

// Page is one page of search results plus its continuation state.
type Page struct {
	Records   []*RawRepository
	EndCursor string
	HasNext   bool
}
