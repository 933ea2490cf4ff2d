package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"pr-reminder/internal/config"
	"pr-reminder/pkg/models"
)

const (
	pageSize          = 50
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// Client fetches open pull requests from the GitHub GraphQL API.
type Client struct {
	Config     config.GitHub
	Client     *http.Client
	RetryDelay time.Duration
}

// NewClient creates a new GitHub client
func NewClient(cfg config.GitHub) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		Config:     cfg,
		Client:     &http.Client{Timeout: timeout},
		RetryDelay: initialRetryDelay,
	}
}

// statusError is a non-2xx response. 5xx and 429 are retried.
type statusError struct {
	status int
	body   string
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("github request failed: %d %s (URL: %s, Body: %s)", e.status, http.StatusText(e.status), e.url, e.body)
}

func (e *statusError) retryable() bool {
	return e.status >= 500 || e.status == http.StatusTooManyRequests
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var ge graphQLErrors
	if errors.As(err, &ge) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) apiURL() string {
	return strings.TrimRight(c.Config.APIURL, "/")
}

// graphQLURL maps the REST base to the GraphQL endpoint; GitHub Enterprise serves it under /api/graphql.
func (c *Client) graphQLURL() string {
	base := c.apiURL()
	if strings.HasSuffix(base, "/api/v3") {
		return strings.TrimSuffix(base, "/v3") + "/graphql"
	}
	return base + "/graphql"
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.Token)
		slog.Debug("Bearer token header set for GitHub request")
	}
}

// retryWithBackoff runs fn with exponential backoff, retrying only transient failures.
func (c *Client) retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	attempts := c.Config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(c.RetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(c.RetryDelay/4+1),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retry attempt", "component", "github", "operation", operation, "attempt", n+1, "max_attempts", attempts, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

// TestConnection checks that the API is reachable and the token is accepted.
func (c *Client) TestConnection(ctx context.Context) error {
	url := c.apiURL() + "/rate_limit"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating test request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("error connecting to GitHub: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub connection test failed: %w", &statusError{status: resp.StatusCode, body: string(body), url: url})
	}
	return nil
}

// ListOpenPRs fetches every open pull request of repo, newest first.
func (c *Client) ListOpenPRs(ctx context.Context, repo config.Repository) ([]models.PullRequest, error) {
	var prs []models.PullRequest
	var cursor *string

	for {
		page, err := c.fetchPage(ctx, repo, cursor)
		if err != nil {
			return nil, err
		}
		for _, node := range page.Nodes {
			prs = append(prs, node.toModel(repo.Slug))
		}
		if !page.PageInfo.HasNextPage || page.PageInfo.EndCursor == "" {
			break
		}
		next := page.PageInfo.EndCursor
		cursor = &next
	}

	slog.Debug("Fetched open PRs", "repo", repo.Slug, "total", len(prs))
	return prs, nil
}

func (c *Client) fetchPage(ctx context.Context, repo config.Repository, cursor *string) (*pullRequestConnection, error) {
	payload, err := json.Marshal(graphQLRequest{
		Query: openPullRequestsQuery,
		Variables: map[string]any{
			"owner":  repo.Owner(),
			"name":   repo.Name(),
			"first":  pageSize,
			"cursor": cursor,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	url := c.graphQLURL()
	var result pullRequestsResponse
	err = c.retryWithBackoff(ctx, "list open PRs "+repo.Slug, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to create GraphQL request: %w", err))
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.Client.Do(req)
		if err != nil {
			return fmt.Errorf("graphql request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return &statusError{status: resp.StatusCode, body: string(body), url: url}
		}

		result = pullRequestsResponse{}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("failed to decode GraphQL response: %w", err)
		}
		if len(result.Errors) > 0 {
			return result.Errors
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Data.Repository == nil {
		return nil, fmt.Errorf("repository %s not found", repo.Slug)
	}
	return &result.Data.Repository.PullRequests, nil
}
