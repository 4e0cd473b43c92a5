// Package github adapts the GitHub API for the registry: repository search
// with rotating queries, and content fetching (README, manifest, sampled
// source files) for the review pipeline.
package github

import (
	"context"

	gh "github.com/google/go-github/v57/github"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client used by the search adapter and fetcher.
type Client struct {
	client *gh.Client
}

// NewClient creates a GitHub client. An empty token falls back to
// unauthenticated access with its much lower rate limits.
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		logger.G(ctx).Warn("no GitHub token provided, API rate limits will be restricted")
		return &Client{client: gh.NewClient(nil)}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{client: gh.NewClient(oauth2.NewClient(ctx, ts))}
}

// NewClientFromGitHub wraps an existing go-github client, mainly for tests
// pointed at a stub server.
func NewClientFromGitHub(client *gh.Client) *Client {
	return &Client{client: client}
}
