// internal/model/models.go
package model

import "time"

// RemoteRepository is the internal view of a GitHub repository, combining
// the listing/detail payload with the enrichments fetched per repo before
// reconciliation.
type RemoteRepository struct {
	FullName        string
	Name            string
	Description     *string
	HTMLURL         string
	Language        *string
	Fork            bool
	Archived        bool
	StarsCount      int
	ForksCount      int
	OpenIssuesCount int
	UpdatedAt       time.Time

	// Enrichments attached by the syncer.
	Topics        []string
	LatestRelease *Release
	Contributors  []Contributor
	Screenshots   []Screenshot
	Requirements  map[string]string
}

// Release describes the latest published release of a repository.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
	DownloadURL string    `json:"download_url"`
	HTMLURL     string    `json:"html_url"`
	Body        string    `json:"body"`
}

// Contributor is a ranked repository contributor.
type Contributor struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	ProfileURL    string `json:"profile_url"`
	Contributions int    `json:"contributions"`
}

// Screenshot is an image file found in one of the screenshot directories.
type Screenshot struct {
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
	RepoPath    string `json:"repo_path"`
}

// CatalogEntry is a synced repository as stored in the local catalog.
// ViewCount is owned by the read side and never written during sync.
type CatalogEntry struct {
	ID              int64             `json:"id"`
	FullName        string            `json:"full_name"`
	Title           string            `json:"title"`
	Summary         string            `json:"summary"`
	ReadmeHTML      string            `json:"readme_html,omitempty"`
	HTMLURL         string            `json:"html_url"`
	Language        string            `json:"language"`
	StarsCount      int               `json:"stars"`
	ForksCount      int               `json:"forks"`
	OpenIssuesCount int               `json:"open_issues"`
	RepoUpdatedAt   time.Time         `json:"repo_updated_at"`
	LatestRelease   *Release          `json:"latest_release,omitempty"`
	Contributors    []Contributor     `json:"contributors,omitempty"`
	Screenshots     []Screenshot      `json:"screenshots,omitempty"`
	Requirements    map[string]string `json:"requirements,omitempty"`
	Tags            []string          `json:"tags"`
	ViewCount       int64             `json:"view_count"`
	LastSyncedAt    time.Time         `json:"last_synced_at"`
}

// SyncResult aggregates the outcome of one sync run.
type SyncResult struct {
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// RateLimit is the GitHub rate limit snapshot, updated opportunistically
// from response headers and persisted between runs.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	ResetAt   time.Time `json:"reset_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenTestResult reports the outcome of a credential check.
type TokenTestResult struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	Login     string `json:"login,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}
