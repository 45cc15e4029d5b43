package metrics

import (
	"testing"
	"time"

	"github.com/dfmart/github-repo-metrics/internal/domain"
	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
)

func rawFixture() *domain.RawRepository {
	return &domain.RawRepository{
		Name:            "example",
		Owner:           "octocat",
		URL:             "https://github.com/octocat/example",
		CreatedAt:       "2020-01-01T00:00:00Z",
		UpdatedAt:       "2024-01-01T00:00:00Z",
		Stars:           12345,
		PrimaryLanguage: "Go",
		MergedPRs:       42,
		Releases:        7,
		TotalIssues:     10,
		ClosedIssues:    4,
	}
}

func TestDerive(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	rec, err := Derive(rawFixture(), now)
	if err != nil {
		t.Fatalf("Derive() unexpected error: %v", err)
	}

	if rec.URL != "https://github.com/octocat/example" {
		t.Errorf("URL = %q", rec.URL)
	}
	wantAge := int(now.Sub(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24)
	if rec.AgeDays != wantAge {
		t.Errorf("AgeDays = %d, want %d", rec.AgeDays, wantAge)
	}
	if rec.DaysSinceLastUpdate != 152 {
		t.Errorf("DaysSinceLastUpdate = %d, want 152", rec.DaysSinceLastUpdate)
	}
	if rec.AgeDays < 0 || rec.DaysSinceLastUpdate < 0 {
		t.Error("day counts must never be negative")
	}
	if rec.DaysSinceLastUpdate > rec.AgeDays {
		t.Errorf("DaysSinceLastUpdate (%d) > AgeDays (%d)", rec.DaysSinceLastUpdate, rec.AgeDays)
	}
	if rec.ClosedIssuesPercentage != 40.0 {
		t.Errorf("ClosedIssuesPercentage = %v, want 40.0", rec.ClosedIssuesPercentage)
	}
	if rec.PrimaryLanguage != "Go" {
		t.Errorf("PrimaryLanguage = %q, want Go", rec.PrimaryLanguage)
	}
}

func TestDeriveClosedIssuesPercentage(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		total  int
		closed int
		want   float64
	}{
		{"all closed", 10, 10, 100.0},
		{"no issues", 0, 0, 0},
		{"rounded to two decimals", 3, 1, 33.33},
		{"two thirds", 3, 2, 66.67},
		{"none closed", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawFixture()
			raw.TotalIssues = tt.total
			raw.ClosedIssues = tt.closed

			rec, err := Derive(raw, now)
			if err != nil {
				t.Fatalf("Derive() unexpected error: %v", err)
			}
			if rec.ClosedIssuesPercentage != tt.want {
				t.Errorf("ClosedIssuesPercentage = %v, want %v", rec.ClosedIssuesPercentage, tt.want)
			}
			if rec.ClosedIssuesPercentage < 0 || rec.ClosedIssuesPercentage > 100 {
				t.Errorf("ClosedIssuesPercentage = %v outside [0,100]", rec.ClosedIssuesPercentage)
			}
		})
	}
}

func TestDeriveUnknownLanguage(t *testing.T) {
	raw := rawFixture()
	raw.PrimaryLanguage = ""

	rec, err := Derive(raw, time.Now())
	if err != nil {
		t.Fatalf("Derive() unexpected error: %v", err)
	}
	if rec.PrimaryLanguage != UnknownLanguage {
		t.Errorf("PrimaryLanguage = %q, want %q", rec.PrimaryLanguage, UnknownLanguage)
	}
}

func TestDeriveMalformedTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RawRepository)
	}{
		{"bad created_at", func(r *domain.RawRepository) { r.CreatedAt = "yesterday" }},
		{"bad updated_at", func(r *domain.RawRepository) { r.UpdatedAt = "2024-13-99" }},
		{"empty created_at", func(r *domain.RawRepository) { r.CreatedAt = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawFixture()
			tt.mutate(raw)

			_, err := Derive(raw, time.Now())
			if err == nil {
				t.Fatal("Derive() expected error, got nil")
			}
			if !apperrors.IsDerivation(err) {
				t.Errorf("Derive() error = %v, want derivation error", err)
			}
		})
	}
}

func TestDeriveFutureTimestampClamped(t *testing.T) {
	raw := rawFixture()
	now := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC) // before CreatedAt

	rec, err := Derive(raw, now)
	if err != nil {
		t.Fatalf("Derive() unexpected error: %v", err)
	}
	if rec.AgeDays != 0 {
		t.Errorf("AgeDays = %d, want 0 for future timestamp", rec.AgeDays)
	}
}

func TestDeriveTimezoneAware(t *testing.T) {
	raw := rawFixture()
	raw.CreatedAt = "2024-01-01T00:00:00+09:00"
	raw.UpdatedAt = "2024-01-01T00:00:00+09:00"
	// 2024-01-02T00:00:00+09:00 is exactly one day later.
	now := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)

	rec, err := Derive(raw, now)
	if err != nil {
		t.Fatalf("Derive() unexpected error: %v", err)
	}
	if rec.AgeDays != 1 {
		t.Errorf("AgeDays = %d, want 1", rec.AgeDays)
	}
}
