// internal/database/models.go
package database

import "time"

// Entry is a row of the entries table. The jsonb columns hold the release,
// contributor, screenshot and requirement payloads as stored.
type Entry struct {
	ID              int64
	FullName        string
	Title           string
	Description     string
	ReadmeHTML      string
	HTMLURL         string
	Language        string
	StarsCount      int32
	ForksCount      int32
	OpenIssuesCount int32
	RepoUpdatedAt   time.Time
	Release         []byte
	Contributors    []byte
	Screenshots     []byte
	Requirements    []byte
	ViewCount       int64
	LastSyncedAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Tag is a row of the tags table. Slug is the case-normalized topic; Name
// is the display name chosen at creation time.
type Tag struct {
	ID   int64
	Slug string
	Name string
}
