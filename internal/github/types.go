package github

import (
	"strings"
	"time"

	"pr-reminder/pkg/models"
)

const openPullRequestsQuery = `query($owner: String!, $name: String!, $first: Int!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(states: OPEN, first: $first, after: $cursor, orderBy: {field: CREATED_AT, direction: DESC}) {
      pageInfo { hasNextPage endCursor }
      nodes {
        number
        title
        url
        createdAt
        isDraft
        author { login }
        labels(first: 100) { nodes { name } }
        projectItems(first: 1) { totalCount }
        reviewRequests(first: 100) {
          totalCount
          nodes {
            requestedReviewer {
              ... on User { login }
              ... on Team { slug }
            }
          }
        }
        reviews(first: 1) { totalCount }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// graphQLErrors is the errors array of a 200 response; it is not retried.
type graphQLErrors []graphQLError

func (e graphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Message)
	}
	return "graphql errors: " + strings.Join(msgs, "; ")
}

type pullRequestsResponse struct {
	Data struct {
		Repository *struct {
			PullRequests pullRequestConnection `json:"pullRequests"`
		} `json:"repository"`
	} `json:"data"`
	Errors graphQLErrors `json:"errors"`
}

type pullRequestConnection struct {
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
	Nodes []pullRequestNode `json:"nodes"`
}

type totalCount struct {
	TotalCount int `json:"totalCount"`
}

type pullRequestNode struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	IsDraft   bool      `json:"isDraft"`
	Author    *struct {
		Login string `json:"login"`
	} `json:"author"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	ProjectItems   totalCount `json:"projectItems"`
	ReviewRequests struct {
		TotalCount int `json:"totalCount"`
		Nodes      []struct {
			RequestedReviewer *struct {
				Login string `json:"login"`
				Slug  string `json:"slug"`
			} `json:"requestedReviewer"`
		} `json:"nodes"`
	} `json:"reviewRequests"`
	Reviews totalCount `json:"reviews"`
}

// toModel maps the wire record into the reminder core's value type.
func (n pullRequestNode) toModel(repo string) models.PullRequest {
	pr := models.PullRequest{
		Repository:     repo,
		Number:         n.Number,
		Title:          n.Title,
		URL:            n.URL,
		CreatedAt:      n.CreatedAt,
		Draft:          n.IsDraft,
		ProjectCards:   n.ProjectItems.TotalCount,
		ReviewRequests: n.ReviewRequests.TotalCount,
		Reviews:        n.Reviews.TotalCount,
	}
	// author is null for deleted accounts
	if n.Author != nil {
		pr.Author = n.Author.Login
	}
	for _, l := range n.Labels.Nodes {
		pr.Labels = append(pr.Labels, l.Name)
	}
	for _, rr := range n.ReviewRequests.Nodes {
		if rr.RequestedReviewer == nil {
			continue
		}
		switch {
		case rr.RequestedReviewer.Login != "":
			pr.RequestedReviewers = append(pr.RequestedReviewers, rr.RequestedReviewer.Login)
		case rr.RequestedReviewer.Slug != "":
			pr.RequestedReviewers = append(pr.RequestedReviewers, rr.RequestedReviewer.Slug)
		}
	}
	return pr
}
