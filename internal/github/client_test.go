package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pr-reminder/internal/config"
)

var remixProject = config.Repository{Slug: "ethereum/remix-project", Title: "remix-project"}

func newTestClient(server *httptest.Server, attempts int) *Client {
	c := NewClient(config.GitHub{
		APIURL:        server.URL,
		Token:         "ghp_test",
		RetryAttempts: attempts,
	})
	c.Client = server.Client()
	c.RetryDelay = time.Millisecond
	return c
}

const page1 = `{"data":{"repository":{"pullRequests":{
  "pageInfo":{"hasNextPage":true,"endCursor":"c1"},
  "nodes":[{
    "number":12,"title":"Add tabs","url":"https://github.com/ethereum/remix-project/pull/12",
    "createdAt":"2024-02-01T10:00:00Z","isDraft":false,
    "author":{"login":"yann300"},
    "labels":{"nodes":[{"name":"WIP"},{"name":"ui"}]},
    "projectItems":{"totalCount":1},
    "reviewRequests":{"totalCount":2,"nodes":[
      {"requestedReviewer":{"login":"bunsenstraat"}},
      {"requestedReviewer":{"slug":"remix-core"}}
    ]},
    "reviews":{"totalCount":0}
  }]}}}}`

const page2 = `{"data":{"repository":{"pullRequests":{
  "pageInfo":{"hasNextPage":false,"endCursor":"c2"},
  "nodes":[{
    "number":9,"title":"Fix terminal","url":"https://github.com/ethereum/remix-project/pull/9",
    "createdAt":"2024-01-01T00:00:00Z","isDraft":true,
    "author":null,
    "labels":{"nodes":[]},
    "projectItems":{"totalCount":0},
    "reviewRequests":{"totalCount":0,"nodes":[]},
    "reviews":{"totalCount":3}
  }]}}}}`

func TestListOpenPRs_Paginates(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/graphql", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))

		var req graphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ethereum", req.Variables["owner"])
		assert.Equal(t, "remix-project", req.Variables["name"])

		if req.Variables["cursor"] == nil {
			w.Write([]byte(page1))
			return
		}
		assert.Equal(t, "c1", req.Variables["cursor"])
		w.Write([]byte(page2))
	}))
	defer server.Close()

	prs, err := newTestClient(server, 1).ListOpenPRs(context.Background(), remixProject)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, prs, 2)

	first := prs[0]
	assert.Equal(t, "ethereum/remix-project", first.Repository)
	assert.Equal(t, 12, first.Number)
	assert.Equal(t, "Add tabs", first.Title)
	assert.Equal(t, "yann300", first.Author)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), first.CreatedAt.UTC())
	assert.Equal(t, []string{"WIP", "ui"}, first.Labels)
	assert.Equal(t, []string{"bunsenstraat", "remix-core"}, first.RequestedReviewers)
	assert.Equal(t, 1, first.ProjectCards)
	assert.Equal(t, 2, first.ReviewRequests)

	second := prs[1]
	assert.True(t, second.Draft)
	assert.Empty(t, second.Author)
	assert.Empty(t, second.Labels)
	assert.Empty(t, second.RequestedReviewers)
	assert.Equal(t, 3, second.Reviews)
}

func TestListOpenPRs_LongLabelAndReviewerLists(t *testing.T) {
	var labels, reviewers []string
	for i := 1; i <= 24; i++ {
		labels = append(labels, fmt.Sprintf(`{"name":"area-%d"}`, i))
	}
	labels = append(labels, `{"name":"WIP"}`)
	for i := 1; i <= 25; i++ {
		reviewers = append(reviewers, fmt.Sprintf(`{"requestedReviewer":{"login":"reviewer-%d"}}`, i))
	}
	body := fmt.Sprintf(`{"data":{"repository":{"pullRequests":{
  "pageInfo":{"hasNextPage":false,"endCursor":""},
  "nodes":[{
    "number":30,"title":"Big refactor","url":"https://github.com/ethereum/remix-project/pull/30",
    "createdAt":"2024-02-01T10:00:00Z","isDraft":false,
    "author":{"login":"yann300"},
    "labels":{"nodes":[%s]},
    "projectItems":{"totalCount":1},
    "reviewRequests":{"totalCount":25,"nodes":[%s]},
    "reviews":{"totalCount":0}
  }]}}}}`, strings.Join(labels, ","), strings.Join(reviewers, ","))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "labels(first: 100)")
		assert.Contains(t, req.Query, "reviewRequests(first: 100)")
		w.Write([]byte(body))
	}))
	defer server.Close()

	prs, err := newTestClient(server, 1).ListOpenPRs(context.Background(), remixProject)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Len(t, prs[0].Labels, 25)
	assert.True(t, prs[0].HasLabel("WIP"))
	assert.Len(t, prs[0].RequestedReviewers, 25)
	assert.Equal(t, "reviewer-25", prs[0].RequestedReviewers[24])
}

func TestListOpenPRs_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(page2))
	}))
	defer server.Close()

	prs, err := newTestClient(server, 3).ListOpenPRs(context.Background(), remixProject)
	require.NoError(t, err)
	assert.Len(t, prs, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListOpenPRs_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server, 5).ListOpenPRs(context.Background(), remixProject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Bad credentials")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListOpenPRs_GraphQLErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a Repository"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server, 3).ListOpenPRs(context.Background(), remixProject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not resolve to a Repository")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListOpenPRs_RepositoryNull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"repository":null}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server, 1).ListOpenPRs(context.Background(), remixProject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListOpenPRs_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page2))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server, 3).ListOpenPRs(ctx, remixProject)
	assert.Error(t, err)
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate_limit" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer ghp_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"resources":{}}`))
	}))
	defer server.Close()

	c := newTestClient(server, 1)
	assert.NoError(t, c.TestConnection(context.Background()))

	c.Config.Token = "wrong"
	err := c.TestConnection(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
}

func TestGraphQLURL(t *testing.T) {
	tests := []struct {
		api      string
		expected string
	}{
		{"https://api.github.com", "https://api.github.com/graphql"},
		{"https://api.github.com/", "https://api.github.com/graphql"},
		{"https://github.example.com/api/v3", "https://github.example.com/api/graphql"},
	}

	for _, tt := range tests {
		c := NewClient(config.GitHub{APIURL: tt.api})
		assert.Equal(t, tt.expected, c.graphQLURL())
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(config.GitHub{})
	assert.Equal(t, 15*time.Second, c.Client.Timeout)

	c = NewClient(config.GitHub{TimeoutSeconds: 3})
	assert.Equal(t, 3*time.Second, c.Client.Timeout)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&statusError{status: 500}))
	assert.True(t, isRetryable(&statusError{status: 429}))
	assert.False(t, isRetryable(&statusError{status: 404}))
	assert.False(t, isRetryable(graphQLErrors{{Message: "boom"}}))
	assert.False(t, isRetryable(context.Canceled))
	assert.True(t, isRetryable(assert.AnError))
}
