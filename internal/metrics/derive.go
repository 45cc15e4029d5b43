// Package metrics turns raw repository data into the fixed set of derived
// metrics (RQ01-RQ06) and computes the descriptive statistics reported for
// them: repository age, merged pull requests, release count, update
// recency, primary language distribution and closed-issue ratio.
package metrics

import (
	"math"
	"time"

	"github.com/dfmart/github-repo-metrics/internal/domain"
	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
)

// UnknownLanguage is the sentinel used when GitHub reports no primary language.
const UnknownLanguage = "Unknown"

// Derive computes the metric record for one raw repository. now is the
// reference instant; day counts are whole days, floored, evaluated in the
// timestamp's own zone. A malformed timestamp yields a derivation error
// for this record only.
func Derive(raw *domain.RawRepository, now time.Time) (*domain.RepoRecord, error) {
	created, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return nil, apperrors.NewDerivationError(raw.URL, err)
	}
	updated, err := time.Parse(time.RFC3339, raw.UpdatedAt)
	if err != nil {
		return nil, apperrors.NewDerivationError(raw.URL, err)
	}

	language := raw.PrimaryLanguage
	if language == "" {
		language = UnknownLanguage
	}

	return &domain.RepoRecord{
		Name:                   raw.Name,
		Owner:                  raw.Owner,
		URL:                    raw.URL,
		Stars:                  raw.Stars,
		CreatedAt:              created,
		UpdatedAt:              updated,
		AgeDays:                daysSince(created, now),
		MergedPullRequests:     raw.MergedPRs,
		TotalReleases:          raw.Releases,
		DaysSinceLastUpdate:    daysSince(updated, now),
		PrimaryLanguage:        language,
		TotalIssues:            raw.TotalIssues,
		ClosedIssues:           raw.ClosedIssues,
		ClosedIssuesPercentage: closedPercentage(raw.ClosedIssues, raw.TotalIssues),
	}, nil
}

// daysSince returns the number of whole days between t and now, evaluated
// in t's zone and never negative.
func daysSince(t, now time.Time) int {
	days := int(now.In(t.Location()).Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// closedPercentage returns 100*closed/total rounded to two decimal places,
// and 0 when total is zero.
func closedPercentage(closed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(closed)/float64(total)*100*100) / 100
}
