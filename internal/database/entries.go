// internal/database/entries.go
package database

import (
	"context"
	"time"
)

const entryColumns = `id, full_name, title, description, readme_html, html_url, language,
	stars_count, forks_count, open_issues_count, repo_updated_at,
	release, contributors, screenshots, requirements,
	view_count, last_synced_at, created_at, updated_at`

func scanEntry(row interface{ Scan(dest ...any) error }) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.FullName, &e.Title, &e.Description, &e.ReadmeHTML, &e.HTMLURL, &e.Language,
		&e.StarsCount, &e.ForksCount, &e.OpenIssuesCount, &e.RepoUpdatedAt,
		&e.Release, &e.Contributors, &e.Screenshots, &e.Requirements,
		&e.ViewCount, &e.LastSyncedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

const getEntryByFullName = `
SELECT ` + entryColumns + `
FROM entries
WHERE full_name = $1
`

func (q *Queries) GetEntryByFullName(ctx context.Context, fullName string) (Entry, error) {
	return scanEntry(q.db.QueryRow(ctx, getEntryByFullName, fullName))
}

type CreateEntryParams struct {
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
}

const createEntry = `
INSERT INTO entries (
	full_name, title, description, readme_html, html_url, language,
	stars_count, forks_count, open_issues_count, repo_updated_at,
	release, contributors, screenshots, requirements,
	view_count, last_synced_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0, now())
RETURNING ` + entryColumns + `
`

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (Entry, error) {
	return scanEntry(q.db.QueryRow(ctx, createEntry,
		arg.FullName, arg.Title, arg.Description, arg.ReadmeHTML, arg.HTMLURL, arg.Language,
		arg.StarsCount, arg.ForksCount, arg.OpenIssuesCount, arg.RepoUpdatedAt,
		arg.Release, arg.Contributors, arg.Screenshots, arg.Requirements,
	))
}

type UpdateEntryParams struct {
	ID              int64
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
}

// updateEntry deliberately leaves view_count untouched: the counter is
// owned by the read side and must survive every sync.
const updateEntry = `
UPDATE entries SET
	title = $2, description = $3, readme_html = $4, html_url = $5, language = $6,
	stars_count = $7, forks_count = $8, open_issues_count = $9, repo_updated_at = $10,
	release = $11, contributors = $12, screenshots = $13, requirements = $14,
	last_synced_at = now(), updated_at = now()
WHERE id = $1
RETURNING ` + entryColumns + `
`

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (Entry, error) {
	return scanEntry(q.db.QueryRow(ctx, updateEntry,
		arg.ID, arg.Title, arg.Description, arg.ReadmeHTML, arg.HTMLURL, arg.Language,
		arg.StarsCount, arg.ForksCount, arg.OpenIssuesCount, arg.RepoUpdatedAt,
		arg.Release, arg.Contributors, arg.Screenshots, arg.Requirements,
	))
}

const deleteAllEntries = `
DELETE FROM entries
`

func (q *Queries) DeleteAllEntries(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteAllEntries)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const incrementEntryViews = `
UPDATE entries SET view_count = view_count + 1
WHERE id = $1
RETURNING view_count
`

func (q *Queries) IncrementEntryViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := q.db.QueryRow(ctx, incrementEntryViews, id).Scan(&views)
	return views, err
}

type ListEntriesParams struct {
	Search  string
	TagSlug string
	Limit   int32
	Offset  int32
}

// listEntries filters with ILIKE on title/description when a search term is
// given, and with a tag-slug join when a tag is given. Empty params match
// everything.
const listEntries = `
SELECT ` + entryColumns + `
FROM entries e
WHERE ($1 = '' OR e.title ILIKE '%' || $1 || '%' OR e.description ILIKE '%' || $1 || '%')
  AND ($2 = '' OR EXISTS (
	SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id
	WHERE et.entry_id = e.id AND t.slug = $2
  ))
ORDER BY e.stars_count DESC, e.full_name
LIMIT $3 OFFSET $4
`

func (q *Queries) ListEntries(ctx context.Context, arg ListEntriesParams) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntries, arg.Search, arg.TagSlug, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type CountEntriesParams struct {
	Search  string
	TagSlug string
}

const countEntries = `
SELECT count(*)
FROM entries e
WHERE ($1 = '' OR e.title ILIKE '%' || $1 || '%' OR e.description ILIKE '%' || $1 || '%')
  AND ($2 = '' OR EXISTS (
	SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id
	WHERE et.entry_id = e.id AND t.slug = $2
  ))
`

func (q *Queries) CountEntries(ctx context.Context, arg CountEntriesParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countEntries, arg.Search, arg.TagSlug).Scan(&count)
	return count, err
}
