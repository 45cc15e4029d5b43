package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dfmart/github-repo-metrics/internal/domain"
	"github.com/dfmart/github-repo-metrics/internal/metrics"
)

// Client is the API client for github-repo-metrics
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetRepositories retrieves the collected record set
func (c *Client) GetRepositories() ([]*domain.RepoRecord, error) {
	var response struct {
		Data  []*domain.RepoRecord `json:"data"`
		Count int                  `json:"count"`
	}
	if err := c.get("/api/v1/repositories", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSummary retrieves the descriptive statistics over the record set
func (c *Client) GetSummary() (*metrics.Summary, error) {
	var response struct {
		Data *metrics.Summary `json:"data"`
	}
	if err := c.get("/api/v1/repositories/summary", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRuns retrieves the collection run history
func (c *Client) GetRuns() ([]*domain.CollectionRun, error) {
	var response struct {
		Data []*domain.CollectionRun `json:"data"`
	}
	if err := c.get("/api/v1/runs", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
