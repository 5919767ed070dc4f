// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"showcase-sync/internal/apperrors"
	"showcase-sync/internal/model"
)

const (
	userAgent      = "showcase-sync/1.0"
	perPage        = 100
	requestTimeout = 30 * time.Second
)

// Client is a wrapper around the go-github client. Every call records the
// rate-limit headers of its response on the shared tracker, success or not.
type Client struct {
	gh     *github.Client
	rates  *RateTracker
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. An empty token
// yields an unauthenticated client subject to the low anonymous quota.
func NewClient(token string, rates *RateTracker, logger *slog.Logger) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{Source: ts}
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = userAgent

	return &Client{
		gh:     gh,
		rates:  rates,
		logger: logger,
	}
}

// OverrideBaseURL points the client at an alternate API base URL. Intended
// for tests that stand in for the GitHub API.
func (c *Client) OverrideBaseURL(baseURL string) error {
	gh, err := github.NewClient(c.gh.Client()).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return err
	}
	gh.UserAgent = userAgent
	c.gh = gh
	return nil
}

// trackRate captures rate-limit headers from any API response.
func (c *Client) trackRate(ctx context.Context, resp *github.Response) {
	if c.rates == nil || resp == nil || resp.Rate.Limit == 0 {
		return
	}
	c.rates.Observe(ctx, model.RateLimit{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Used:      resp.Rate.Limit - resp.Rate.Remaining,
		ResetAt:   resp.Rate.Reset.Time,
		UpdatedAt: time.Now(),
	})
}

// translate maps go-github errors onto the local error taxonomy.
func translate(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &apperrors.APIError{Status: ghErr.Response.StatusCode}
	}
	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		return &apperrors.APIError{Status: http.StatusForbidden}
	}
	return &apperrors.TransportError{Err: err}
}

// ListOrgRepositories pages through the organization's public repositories
// and returns them in API order. A page shorter than perPage means the
// listing is exhausted. Any page failure fails the whole listing: partial
// results are never returned.
func (c *Client) ListOrgRepositories(ctx context.Context, org string) ([]model.RemoteRepository, error) {
	var all []model.RemoteRepository

	opts := &github.RepositoryListByOrgOptions{
		Type:        "public",
		ListOptions: github.ListOptions{PerPage: perPage, Page: 1},
	}

	for {
		c.logger.Debug("Fetching repository page", "org", org, "page", opts.Page)

		repos, resp, err := c.gh.Repositories.ListByOrg(ctx, org, opts)
		c.trackRate(ctx, resp)
		if err != nil {
			return nil, translate(err)
		}

		for _, r := range repos {
			all = append(all, toRemoteRepository(r))
		}

		if len(repos) < perPage {
			break
		}
		opts.Page++
	}

	return all, nil
}

// GetRepository fetches a single repository's details.
func (c *Client) GetRepository(ctx context.Context, org, name string) (*model.RemoteRepository, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, org, name)
	c.trackRate(ctx, resp)
	if err != nil {
		return nil, translate(err)
	}
	r := toRemoteRepository(repo)
	return &r, nil
}

// GetTopics returns the repository's topics. Topics are best-effort: any
// failure yields an empty set, never an error.
func (c *Client) GetTopics(ctx context.Context, org, name string) []string {
	topics, resp, err := c.gh.Repositories.ListAllTopics(ctx, org, name)
	c.trackRate(ctx, resp)
	if err != nil {
		c.logger.Debug("Failed to fetch topics", "repo", name, "error", err)
		return nil
	}
	return topics
}

// GetLatestRelease returns the latest published release, or nil when the
// repository has none or the request fails.
func (c *Client) GetLatestRelease(ctx context.Context, org, name string) *model.Release {
	rel, resp, err := c.gh.Repositories.GetLatestRelease(ctx, org, name)
	c.trackRate(ctx, resp)
	if err != nil {
		c.logger.Debug("No latest release", "repo", name, "error", err)
		return nil
	}

	displayName := rel.GetName()
	if displayName == "" {
		displayName = rel.GetTagName()
	}

	return &model.Release{
		TagName:     rel.GetTagName(),
		Name:        displayName,
		PublishedAt: rel.GetPublishedAt().Time,
		DownloadURL: rel.GetZipballURL(),
		HTMLURL:     rel.GetHTMLURL(),
		Body:        rel.GetBody(),
	}
}

// GetContributors returns up to limit contributors ranked by contribution
// count, or an empty slice on failure.
func (c *Client) GetContributors(ctx context.Context, org, name string, limit int) []model.Contributor {
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	}

	contributors, resp, err := c.gh.Repositories.ListContributors(ctx, org, name, opts)
	c.trackRate(ctx, resp)
	if err != nil {
		c.logger.Debug("Failed to fetch contributors", "repo", name, "error", err)
		return nil
	}

	if len(contributors) > limit {
		contributors = contributors[:limit]
	}

	result := make([]model.Contributor, 0, len(contributors))
	for _, contrib := range contributors {
		result = append(result, model.Contributor{
			Login:         contrib.GetLogin(),
			AvatarURL:     contrib.GetAvatarURL(),
			ProfileURL:    contrib.GetHTMLURL(),
			Contributions: contrib.GetContributions(),
		})
	}
	return result
}

// RenderMarkdown renders markdown through the GitHub markdown endpoint in
// GFM mode.
func (c *Client) RenderMarkdown(ctx context.Context, text string) (string, error) {
	html, resp, err := c.gh.Markdown.Render(ctx, text, &github.MarkdownOptions{Mode: "gfm"})
	c.trackRate(ctx, resp)
	if err != nil {
		return "", translate(err)
	}
	return html, nil
}

// TestToken performs an authenticated identity check with the given token
// and reports the result together with a freshly fetched quota.
func (c *Client) TestToken(ctx context.Context, token string) model.TokenTestResult {
	probe := github.NewClient(&http.Client{Timeout: 15 * time.Second}).WithAuthToken(token)
	probe.UserAgent = userAgent
	probe.BaseURL = c.gh.BaseURL

	user, resp, err := probe.Users.Get(ctx, "")
	c.trackRate(ctx, resp)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil {
			if ghErr.Response.StatusCode == http.StatusUnauthorized {
				return model.TokenTestResult{Valid: false, Message: "Invalid token. Please check and try again."}
			}
			return model.TokenTestResult{Valid: false, Message: "GitHub API error: " + ghErr.Message}
		}
		return model.TokenTestResult{Valid: false, Message: err.Error()}
	}

	result := model.TokenTestResult{
		Valid:   true,
		Login:   user.GetLogin(),
		Message: "Token valid. Authenticated as " + user.GetLogin() + ".",
	}

	if limits, rlResp, rlErr := probe.RateLimit.Get(ctx); rlErr == nil {
		c.trackRate(ctx, rlResp)
		result.Remaining = limits.GetCore().Remaining
		result.Limit = limits.GetCore().Limit
	}

	return result
}

func toRemoteRepository(r *github.Repository) model.RemoteRepository {
	return model.RemoteRepository{
		FullName:        r.GetFullName(),
		Name:            r.GetName(),
		Description:     r.Description,
		HTMLURL:         r.GetHTMLURL(),
		Language:        r.Language,
		Fork:            r.GetFork(),
		Archived:        r.GetArchived(),
		StarsCount:      r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		UpdatedAt:       r.GetUpdatedAt().Time,
	}
}
