package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dfmart/github-repo-metrics/internal/domain"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"odd length", []float64{9, 1, 5}, 5},
		// Even lengths take the lower central element, not the average.
		{"even length lower middle", []float64{1, 2, 3, 4}, 2},
		{"even length unsorted", []float64{40, 10, 30, 20}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.want {
				t.Errorf("Median(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("Median mutated its input: %v", values)
	}
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("Mean = %v, want 2.5", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMode float64
		wantOK   bool
	}{
		{"empty", nil, 0, false},
		{"unique mode", []float64{1, 2, 2, 3}, 2, true},
		{"tie has no unique mode", []float64{1, 1, 2, 2}, 0, false},
		{"all same", []float64{5, 5, 5}, 5, true},
		{"all distinct is a tie", []float64{1, 2, 3}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, ok := Mode(tt.values)
			if ok != tt.wantOK {
				t.Fatalf("Mode(%v) ok = %v, want %v", tt.values, ok, tt.wantOK)
			}
			if ok && mode != tt.wantMode {
				t.Errorf("Mode(%v) = %v, want %v", tt.values, mode, tt.wantMode)
			}
		})
	}
}

func record(lang string, releases, updateDays int, closedPct float64) *domain.RepoRecord {
	return &domain.RepoRecord{
		PrimaryLanguage:        lang,
		TotalReleases:          releases,
		DaysSinceLastUpdate:    updateDays,
		ClosedIssuesPercentage: closedPct,
	}
}

func TestSummarizeCounts(t *testing.T) {
	records := []*domain.RepoRecord{
		record("Go", 0, 10, 100),
		record("Go", 3, 31, 50),
		record("Python", 0, 30, 100),
		record("TypeScript", 1, 400, 0),
	}

	s := Summarize(records)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.ZeroReleaseCount != 2 {
		t.Errorf("ZeroReleaseCount = %d, want 2", s.ZeroReleaseCount)
	}
	if s.RecentlyUpdatedCount != 2 {
		t.Errorf("RecentlyUpdatedCount = %d, want 2 (30-day window is inclusive)", s.RecentlyUpdatedCount)
	}
	if s.FullyClosedCount != 2 {
		t.Errorf("FullyClosedCount = %d, want 2", s.FullyClosedCount)
	}

	if len(s.Languages) != 3 {
		t.Fatalf("Languages = %v, want 3 entries", s.Languages)
	}
	if s.Languages[0].Language != "Go" || s.Languages[0].Count != 2 {
		t.Errorf("top language = %+v, want Go/2", s.Languages[0])
	}
	// Equal counts fall back to name order for a stable table.
	if s.Languages[1].Language != "Python" || s.Languages[2].Language != "TypeScript" {
		t.Errorf("language tie order = %v, %v", s.Languages[1], s.Languages[2])
	}
}

func TestSummarizeLanguageTableLimit(t *testing.T) {
	langs := []string{"Go", "Python", "C", "Rust", "Java", "Ruby", "Zig"}
	var records []*domain.RepoRecord
	for _, l := range langs {
		records = append(records, record(l, 1, 1, 0))
	}

	s := Summarize(records)
	if len(s.Languages) != TopLanguages {
		t.Errorf("Languages length = %d, want %d", len(s.Languages), TopLanguages)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 {
		t.Errorf("Total = %d, want 0", s.Total)
	}
	if s.Age.HasMode {
		t.Error("empty set must not report a mode")
	}
}

func TestPrintSummaryNoUniqueMode(t *testing.T) {
	records := []*domain.RepoRecord{
		record("Go", 1, 5, 10),
		record("Python", 2, 6, 20),
	}

	var buf bytes.Buffer
	PrintSummary(&buf, Summarize(records))
	out := buf.String()

	if !strings.Contains(out, "no unique mode") {
		t.Error("report should state when no unique mode exists")
	}
	for _, section := range []string{"RQ01", "RQ02", "RQ03", "RQ04", "RQ05", "RQ06"} {
		if !strings.Contains(out, section) {
			t.Errorf("report missing section %s", section)
		}
	}
	if !strings.Contains(out, "Collected repositories: 2") {
		t.Error("report missing the record count")
	}
}
