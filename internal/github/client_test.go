// internal/github/client_test.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showcase-sync/internal/apperrors"
)

// setupTestClient creates a httptest server and a client pointing to it.
// The enterprise URL rewrite prefixes every path with /api/v3.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := NewClient("", NewRateTracker(nil, logger), logger)
	require.NoError(t, client.OverrideBaseURL(server.URL))

	return client, server
}

// repoPage renders a listing page of n stub repositories.
func repoPage(t *testing.T, w http.ResponseWriter, page, n int) {
	t.Helper()
	repos := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("repo-%d-%d", page, i)
		repos[i] = map[string]any{
			"name":      name,
			"full_name": "acme/" + name,
			"html_url":  "https://github.com/acme/" + name,
		}
	}
	w.WriteHeader(http.StatusOK)
	require.NoError(t, json.NewEncoder(w).Encode(repos))
}

func TestClient_ListOrgRepositories_Pagination(t *testing.T) {
	t.Run("full pages keep paginating until a short page", func(t *testing.T) {
		pageSizes := map[string]int{"1": 100, "2": 100, "3": 100, "4": 37}
		var requests int32

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			assert.Equal(t, "/api/v3/orgs/acme/repos", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "public", r.URL.Query().Get("type"))
			repoPage(t, w, 0, pageSizes[r.URL.Query().Get("page")])
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.ListOrgRepositories(context.Background(), "acme")

		require.NoError(t, err)
		assert.Len(t, repos, 337)
		assert.Equal(t, int32(4), atomic.LoadInt32(&requests))
	})

	t.Run("stops on an empty page", func(t *testing.T) {
		pageSizes := map[string]int{"1": 100, "2": 100, "3": 0}
		var requests int32

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			repoPage(t, w, 0, pageSizes[r.URL.Query().Get("page")])
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.ListOrgRepositories(context.Background(), "acme")

		require.NoError(t, err)
		assert.Len(t, repos, 200)
		assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
	})

	t.Run("a mid-pagination failure returns no partial results", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "2" {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			repoPage(t, w, 0, 100)
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.ListOrgRepositories(context.Background(), "acme")

		require.Error(t, err)
		assert.Nil(t, repos)
		var apiErr *apperrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	})
}

func TestClient_GetRepository(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/repos/acme/widget", r.URL.Path)
		fmt.Fprintln(w, `{
			"name": "widget", "full_name": "acme/widget", "fork": true, "archived": false,
			"stargazers_count": 42, "forks_count": 7, "open_issues_count": 3,
			"language": "PHP", "description": "A widget",
			"html_url": "https://github.com/acme/widget"
		}`)
	})
	client, _ := setupTestClient(t, handler)

	repo, err := client.GetRepository(context.Background(), "acme", "widget")

	require.NoError(t, err)
	assert.Equal(t, "acme/widget", repo.FullName)
	assert.True(t, repo.Fork)
	assert.Equal(t, 42, repo.StarsCount)
	require.NotNil(t, repo.Language)
	assert.Equal(t, "PHP", *repo.Language)
}

func TestClient_GetTopics_SoftFails(t *testing.T) {
	t.Run("returns topic names", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/repos/acme/widget/topics", r.URL.Path)
			fmt.Fprintln(w, `{"names": ["wordpress", "blocks"]}`)
		})
		client, _ := setupTestClient(t, handler)

		assert.Equal(t, []string{"wordpress", "blocks"}, client.GetTopics(context.Background(), "acme", "widget"))
	})

	t.Run("returns empty on failure", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		client, _ := setupTestClient(t, handler)

		assert.Empty(t, client.GetTopics(context.Background(), "acme", "widget"))
	})
}

func TestClient_GetLatestRelease(t *testing.T) {
	t.Run("display name falls back to tag", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{
				"tag_name": "v1.2.0", "name": "",
				"published_at": "2024-03-01T10:00:00Z",
				"zipball_url": "https://api.github.com/repos/acme/widget/zipball/v1.2.0",
				"html_url": "https://github.com/acme/widget/releases/tag/v1.2.0",
				"body": "Fixes"
			}`)
		})
		client, _ := setupTestClient(t, handler)

		rel := client.GetLatestRelease(context.Background(), "acme", "widget")

		require.NotNil(t, rel)
		assert.Equal(t, "v1.2.0", rel.TagName)
		assert.Equal(t, "v1.2.0", rel.Name)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), rel.PublishedAt)
	})

	t.Run("nil when no release exists", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		client, _ := setupTestClient(t, handler)

		assert.Nil(t, client.GetLatestRelease(context.Background(), "acme", "widget"))
	})
}

func TestClient_GetContributors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		fmt.Fprintln(w, `[
			{"login": "alice", "avatar_url": "https://a", "html_url": "https://github.com/alice", "contributions": 120},
			{"login": "bob", "avatar_url": "https://b", "html_url": "https://github.com/bob", "contributions": 15}
		]`)
	})
	client, _ := setupTestClient(t, handler)

	contributors := client.GetContributors(context.Background(), "acme", "widget", 10)

	require.Len(t, contributors, 2)
	assert.Equal(t, "alice", contributors[0].Login)
	assert.Equal(t, 120, contributors[0].Contributions)
}

func TestClient_RateLimitTracking(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Unix()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4321")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset))
		// The business call fails, yet the headers must still be recorded.
		w.WriteHeader(http.StatusNotFound)
	})
	client, _ := setupTestClient(t, handler)

	_, err := client.GetRepository(context.Background(), "acme", "gone")
	require.Error(t, err)

	rl := client.rates.Current()
	assert.Equal(t, 5000, rl.Limit)
	assert.Equal(t, 4321, rl.Remaining)
	assert.Equal(t, 679, rl.Used)
}

func TestClient_FetchRateLimit(t *testing.T) {
	t.Run("returns fresh quota", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/rate_limit", r.URL.Path)
			fmt.Fprintln(w, `{"resources": {"core": {"limit": 5000, "remaining": 4000, "reset": 1893456000}}}`)
		})
		client, _ := setupTestClient(t, handler)

		rl := client.FetchRateLimit(context.Background())

		assert.Equal(t, 5000, rl.Limit)
		assert.Equal(t, 4000, rl.Remaining)
		assert.Equal(t, 1000, rl.Used)
	})

	t.Run("falls back to last known state on failure", func(t *testing.T) {
		var failing atomic.Bool
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if failing.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "59")
			w.Header().Set("X-RateLimit-Reset", "1893456000")
			fmt.Fprintln(w, `{"names": []}`)
		})
		client, _ := setupTestClient(t, handler)

		// Seed the tracker from a normal response, then break the API.
		client.GetTopics(context.Background(), "acme", "widget")
		failing.Store(true)

		rl := client.FetchRateLimit(context.Background())

		assert.Equal(t, 60, rl.Limit)
		assert.Equal(t, 59, rl.Remaining)
	})
}

func TestClient_TestToken(t *testing.T) {
	t.Run("valid token reports identity and quota", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/v3/user":
				assert.Equal(t, "Bearer sekret", r.Header.Get("Authorization"))
				fmt.Fprintln(w, `{"login": "octocat"}`)
			case "/api/v3/rate_limit":
				fmt.Fprintln(w, `{"resources": {"core": {"limit": 5000, "remaining": 4999, "reset": 1893456000}}}`)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		})
		client, _ := setupTestClient(t, handler)

		result := client.TestToken(context.Background(), "sekret")

		assert.True(t, result.Valid)
		assert.Equal(t, "octocat", result.Login)
		assert.Equal(t, 4999, result.Remaining)
		assert.Equal(t, 5000, result.Limit)
	})

	t.Run("401 reports invalid credential", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"message": "Bad credentials"}`)
		})
		client, _ := setupTestClient(t, handler)

		result := client.TestToken(context.Background(), "bad")

		assert.False(t, result.Valid)
		assert.Contains(t, result.Message, "Invalid token")
	})

	t.Run("other statuses relay the API message", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "SAML enforcement"}`)
		})
		client, _ := setupTestClient(t, handler)

		result := client.TestToken(context.Background(), "sso")

		assert.False(t, result.Valid)
		assert.Contains(t, result.Message, "SAML enforcement")
	})
}
