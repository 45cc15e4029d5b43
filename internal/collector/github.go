package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/dfmart/github-repo-metrics/internal/config"
	"github.com/dfmart/github-repo-metrics/internal/domain"
	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
)

// GitHubFetcher implements PageFetcher against the GitHub GraphQL search
// endpoint, authenticated with an oauth2 static token.
type GitHubFetcher struct {
	httpClient *http.Client
	rest       *github.Client
	endpoint   string
	minStars   int
	logger     *log.Logger
}

// NewGitHubFetcher creates a fetcher from the loaded configuration.
func NewGitHubFetcher(cfg *config.Config, logger *log.Logger) *GitHubFetcher {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHubToken},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = 30 * time.Second

	return &GitHubFetcher{
		httpClient: tc,
		rest:       github.NewClient(tc),
		endpoint:   cfg.GraphQLURL,
		minStars:   cfg.MinStars,
		logger:     logger,
	}
}

// Preflight verifies the credential before any collection traffic and
// logs the remaining REST quota for the run.
func (f *GitHubFetcher) Preflight(ctx context.Context) error {
	user, resp, err := f.rest.Users.Get(ctx, "")
	if err != nil {
		return apperrors.NewTransportError("credential check failed", err)
	}
	f.logger.Info("authenticated", "login", user.GetLogin(), "rate_remaining", resp.Rate.Remaining)
	return nil
}

// BuildSearchQuery builds the GraphQL search query for popular
// repositories: minimum star filter, descending star order, pageSize
// items (clamped to the API maximum), continuing from cursor when one is
// given.
func BuildSearchQuery(minStars, pageSize int, cursor string) string {
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}
	if pageSize < 1 {
		pageSize = 1
	}
	after := ""
	if cursor != "" {
		after = fmt.Sprintf(`, after: "%s"`, cursor)
	}

	return fmt.Sprintf(`
	query {
	  search(query: "stars:>%d sort:stars-desc", type: REPOSITORY, first: %d%s) {
	    edges {
	      node {
	        ... on Repository {
	          name
	          owner {
	            login
	          }
	          createdAt
	          updatedAt
	          stargazerCount
	          primaryLanguage {
	            name
	          }
	          pullRequests(states: MERGED) {
	            totalCount
	          }
	          releases {
	            totalCount
	          }
	          issues {
	            totalCount
	          }
	          closedIssues: issues(states: CLOSED) {
	            totalCount
	          }
	          url
	        }
	      }
	    }
	    pageInfo {
	      endCursor
	      hasNextPage
	    }
	  }
	}`, minStars, pageSize, after)
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type repoNode struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
	StargazerCount  int    `json:"stargazerCount"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	PullRequests struct {
		TotalCount int `json:"totalCount"`
	} `json:"pullRequests"`
	Releases struct {
		TotalCount int `json:"totalCount"`
	} `json:"releases"`
	Issues struct {
		TotalCount int `json:"totalCount"`
	} `json:"issues"`
	ClosedIssues struct {
		TotalCount int `json:"totalCount"`
	} `json:"closedIssues"`
	URL string `json:"url"`
}

type searchResponse struct {
	Data struct {
		Search struct {
			Edges []struct {
				Node repoNode `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				EndCursor   string `json:"endCursor"`
				HasNextPage bool   `json:"hasNextPage"`
			} `json:"pageInfo"`
		} `json:"search"`
	} `json:"data"`
	Errors []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchPage performs one search round-trip. A response that carries both
// records and a GraphQL error payload returns the partial page together
// with a source error so the caller can ingest what arrived.
func (f *GitHubFetcher) FetchPage(ctx context.Context, cursor string, pageSize int) (*domain.Page, error) {
	body, err := json.Marshal(graphQLRequest{Query: BuildSearchQuery(f.minStars, pageSize, cursor)})
	if err != nil {
		return nil, apperrors.NewTransportError("cannot encode query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewTransportError("cannot build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		reset := resp.Header.Get("X-RateLimit-Reset")
		return nil, apperrors.NewRateLimitedError(fmt.Sprintf("rate limit exhausted, reset at %s", reset))
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewTransportError(
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewTransportError("cannot decode response body", err)
	}

	page := &domain.Page{
		Records:   make([]*domain.RawRepository, 0, len(parsed.Data.Search.Edges)),
		EndCursor: parsed.Data.Search.PageInfo.EndCursor,
		HasNext:   parsed.Data.Search.PageInfo.HasNextPage,
	}
	for _, edge := range parsed.Data.Search.Edges {
		page.Records = append(page.Records, toRawRepository(edge.Node))
	}

	if len(parsed.Errors) > 0 {
		messages := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			messages = append(messages, e.Message)
		}
		// Partial data, if any, rides along with the error.
		return page, apperrors.NewSourceError(strings.Join(messages, "; "))
	}

	if len(page.Records) == 0 {
		return nil, apperrors.NewEmptyPageError()
	}
	return page, nil
}

func toRawRepository(node repoNode) *domain.RawRepository {
	raw := &domain.RawRepository{
		Name:         node.Name,
		Owner:        node.Owner.Login,
		URL:          node.URL,
		CreatedAt:    node.CreatedAt,
		UpdatedAt:    node.UpdatedAt,
		Stars:        node.StargazerCount,
		MergedPRs:    node.PullRequests.TotalCount,
		Releases:     node.Releases.TotalCount,
		TotalIssues:  node.Issues.TotalCount,
		ClosedIssues: node.ClosedIssues.TotalCount,
	}
	if node.PrimaryLanguage != nil {
		raw.PrimaryLanguage = node.PrimaryLanguage.Name
	}
	return raw
}
