// Package csvfile writes the collected record set to the primary CSV file
// and a timestamped backup copy, and reads a previously written file back
// as the baseline for a resumed run.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dfmart/github-repo-metrics/internal/domain"
	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
)

// Header is the fixed column order of the durable record file.
var Header = []string{
	"name", "owner", "url", "stars", "created_at", "updated_at",
	"age_days", "merged_pull_requests", "total_releases",
	"days_since_last_update", "primary_language",
	"total_issues", "closed_issues", "closed_issues_percentage",
}

// PersistResult reports which of the two writes succeeded.
type PersistResult struct {
	PrimaryPath string
	BackupPath  string
	PrimaryErr  error
	BackupErr   error
}

// Ok reports whether at least one durable copy was written.
func (r *PersistResult) Ok() bool {
	return r.PrimaryErr == nil || r.BackupErr == nil
}

// Writer persists record sets to a primary path plus timestamped backups.
type Writer struct {
	path string

	// now is swappable for tests.
	now func() time.Time
}

// NewWriter creates a writer for the given primary path.
func NewWriter(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

// Save writes the primary file and then a timestamped backup alongside it.
// A primary failure degrades to backup-only; only when both writes fail is
// an error returned, leaving whatever was durable before untouched.
func (w *Writer) Save(records []*domain.RepoRecord) (*PersistResult, error) {
	res := &PersistResult{
		PrimaryPath: w.path,
		BackupPath:  w.backupPath(),
	}

	res.PrimaryErr = writeFile(res.PrimaryPath, records)
	res.BackupErr = writeFile(res.BackupPath, records)

	if !res.Ok() {
		return res, apperrors.NewPersistenceError(w.path, res.PrimaryErr)
	}
	return res, nil
}

// Checkpoint rewrites the primary file only, bounding data loss mid-run.
func (w *Writer) Checkpoint(_ context.Context, records []*domain.RepoRecord) error {
	if err := writeFile(w.path, records); err != nil {
		return apperrors.NewPersistenceError(w.path, err)
	}
	return nil
}

func (w *Writer) backupPath() string {
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext)
	return fmt.Sprintf("%s_%s%s", base, w.now().Format("20060102_150405"), ext)
}

func writeFile(path string, records []*domain.RepoRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(toRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

func toRow(r *domain.RepoRecord) []string {
	return []string{
		r.Name,
		r.Owner,
		r.URL,
		strconv.Itoa(r.Stars),
		r.CreatedAt.Format(time.RFC3339),
		r.UpdatedAt.Format(time.RFC3339),
		strconv.Itoa(r.AgeDays),
		strconv.Itoa(r.MergedPullRequests),
		strconv.Itoa(r.TotalReleases),
		strconv.Itoa(r.DaysSinceLastUpdate),
		r.PrimaryLanguage,
		strconv.Itoa(r.TotalIssues),
		strconv.Itoa(r.ClosedIssues),
		strconv.FormatFloat(r.ClosedIssuesPercentage, 'f', 2, 64),
	}
}

// Load reads a previously written record file back. Any malformed row
// aborts the load for the whole file so a resumed run never starts from a
// half-trusted baseline; the caller falls back to an empty baseline.
func Load(path string) ([]*domain.RepoRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewPersistenceError(path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.NewPersistenceError(path, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewPersistenceError(path, fmt.Errorf("missing header row"))
	}
	if len(rows[0]) != len(Header) {
		return nil, apperrors.NewPersistenceError(path, fmt.Errorf("unexpected header %v", rows[0]))
	}

	records := make([]*domain.RepoRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := fromRow(row)
		if err != nil {
			return nil, apperrors.NewPersistenceError(path, fmt.Errorf("row %d: %w", i+2, err))
		}
		records = append(records, rec)
	}
	return records, nil
}

func fromRow(row []string) (*domain.RepoRecord, error) {
	if len(row) != len(Header) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(Header), len(row))
	}

	stars, err := strconv.Atoi(row[3])
	if err != nil {
		return nil, fmt.Errorf("stars: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, row[4])
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row[5])
	if err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	ageDays, err := strconv.Atoi(row[6])
	if err != nil {
		return nil, fmt.Errorf("age_days: %w", err)
	}
	mergedPRs, err := strconv.Atoi(row[7])
	if err != nil {
		return nil, fmt.Errorf("merged_pull_requests: %w", err)
	}
	releases, err := strconv.Atoi(row[8])
	if err != nil {
		return nil, fmt.Errorf("total_releases: %w", err)
	}
	updateDays, err := strconv.Atoi(row[9])
	if err != nil {
		return nil, fmt.Errorf("days_since_last_update: %w", err)
	}
	totalIssues, err := strconv.Atoi(row[11])
	if err != nil {
		return nil, fmt.Errorf("total_issues: %w", err)
	}
	closedIssues, err := strconv.Atoi(row[12])
	if err != nil {
		return nil, fmt.Errorf("closed_issues: %w", err)
	}
	closedPct, err := strconv.ParseFloat(row[13], 64)
	if err != nil {
		return nil, fmt.Errorf("closed_issues_percentage: %w", err)
	}

	return &domain.RepoRecord{
		Name:                   row[0],
		Owner:                  row[1],
		URL:                    row[2],
		Stars:                  stars,
		CreatedAt:              createdAt,
		UpdatedAt:              updatedAt,
		AgeDays:                ageDays,
		MergedPullRequests:     mergedPRs,
		TotalReleases:          releases,
		DaysSinceLastUpdate:    updateDays,
		PrimaryLanguage:        row[10],
		TotalIssues:            totalIssues,
		ClosedIssues:           closedIssues,
		ClosedIssuesPercentage: closedPct,
	}, nil
}
