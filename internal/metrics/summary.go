package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/dfmart/github-repo-metrics/internal/domain"
)

// RecentUpdateDays is the window used to count recently maintained repositories.
const RecentUpdateDays = 30

// TopLanguages is the number of entries in the language frequency table.
const TopLanguages = 5

// Stats holds the descriptive statistics for one metric. Mode is only
// meaningful when HasMode is true; ties between equally frequent values
// are reported as "no unique mode".
type Stats struct {
	Median  float64 `json:"median"`
	Mean    float64 `json:"mean"`
	Mode    float64 `json:"mode"`
	HasMode bool    `json:"has_mode"`
}

// LanguageCount is one row of the primary-language frequency table.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// Summary holds the full descriptive report over a record set.
type Summary struct {
	Total                int             `json:"total"`
	Age                  Stats           `json:"age_days"`
	MergedPullRequests   Stats           `json:"merged_pull_requests"`
	Releases             Stats           `json:"total_releases"`
	UpdateRecency        Stats           `json:"days_since_last_update"`
	ClosedIssuesPct      Stats           `json:"closed_issues_percentage"`
	ZeroReleaseCount     int             `json:"zero_release_count"`
	RecentlyUpdatedCount int             `json:"recently_updated_count"`
	FullyClosedCount     int             `json:"fully_closed_count"`
	Languages            []LanguageCount `json:"languages"`
}

// Median returns the element at the middle index of the sorted values.
// For even lengths the lower of the two central elements is used; this
// tie-break is deliberate and must not be changed to an average.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Mode returns the single most frequent value. ok is false when the
// maximum frequency is shared by more than one value.
func Mode(values []float64) (mode float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	counts := make(map[float64]int)
	for _, v := range values {
		counts[v]++
	}
	best, bestCount, unique := 0.0, 0, false
	for v, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount, unique = v, n, true
		case n == bestCount:
			unique = false
		}
	}
	return best, unique
}

// Describe computes the Stats triple for one metric.
func Describe(values []float64) Stats {
	mode, ok := Mode(values)
	return Stats{
		Median:  Median(values),
		Mean:    Mean(values),
		Mode:    mode,
		HasMode: ok,
	}
}

// Summarize computes the descriptive report over the record set.
func Summarize(records []*domain.RepoRecord) *Summary {
	ages := make([]float64, 0, len(records))
	prs := make([]float64, 0, len(records))
	releases := make([]float64, 0, len(records))
	updates := make([]float64, 0, len(records))
	closedPct := make([]float64, 0, len(records))
	languages := make(map[string]int)

	s := &Summary{Total: len(records)}
	for _, r := range records {
		ages = append(ages, float64(r.AgeDays))
		prs = append(prs, float64(r.MergedPullRequests))
		releases = append(releases, float64(r.TotalReleases))
		updates = append(updates, float64(r.DaysSinceLastUpdate))
		closedPct = append(closedPct, r.ClosedIssuesPercentage)
		languages[r.PrimaryLanguage]++

		if r.TotalReleases == 0 {
			s.ZeroReleaseCount++
		}
		if r.DaysSinceLastUpdate <= RecentUpdateDays {
			s.RecentlyUpdatedCount++
		}
		if r.ClosedIssuesPercentage == 100 {
			s.FullyClosedCount++
		}
	}

	s.Age = Describe(ages)
	s.MergedPullRequests = Describe(prs)
	s.Releases = Describe(releases)
	s.UpdateRecency = Describe(updates)
	s.ClosedIssuesPct = Describe(closedPct)
	s.Languages = topLanguages(languages, TopLanguages)
	return s
}

// topLanguages sorts the frequency map by count descending, name ascending
// for ties, and keeps the first limit entries.
func topLanguages(counts map[string]int, limit int) []LanguageCount {
	out := make([]LanguageCount, 0, len(counts))
	for lang, n := range counts {
		out = append(out, LanguageCount{Language: lang, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PrintSummary renders the report for the terminal, one section per
// research question.
func PrintSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\nCollected repositories: %d\n", s.Total)

	sections := []struct {
		title string
		unit  string
		stats Stats
	}{
		{"RQ01 - Repository age", "days", s.Age},
		{"RQ02 - Merged pull requests", "", s.MergedPullRequests},
		{"RQ03 - Total releases", "", s.Releases},
		{"RQ04 - Days since last update", "days", s.UpdateRecency},
		{"RQ06 - Closed issues percentage", "%", s.ClosedIssuesPct},
	}

	for _, sec := range sections {
		fmt.Fprintf(w, "\n%s\n", sec.title)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Statistic", "Value"})
		table.Append([]string{"Median", formatValue(sec.stats.Median, sec.unit)})
		table.Append([]string{"Mean", formatValue(sec.stats.Mean, sec.unit)})
		if sec.stats.HasMode {
			table.Append([]string{"Mode", formatValue(sec.stats.Mode, sec.unit)})
		} else {
			table.Append([]string{"Mode", "no unique mode"})
		}
		table.Render()
	}

	fmt.Fprintf(w, "\nRQ05 - Primary languages (top %d)\n", TopLanguages)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Language", "Repositories"})
	for _, lc := range s.Languages {
		table.Append([]string{lc.Language, fmt.Sprintf("%d", lc.Count)})
	}
	table.Render()

	fmt.Fprintf(w, "\nRepositories without releases: %d\n", s.ZeroReleaseCount)
	fmt.Fprintf(w, "Updated within the last %d days: %d\n", RecentUpdateDays, s.RecentlyUpdatedCount)
	fmt.Fprintf(w, "With 100%% of issues closed: %d\n", s.FullyClosedCount)
}

func formatValue(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}
