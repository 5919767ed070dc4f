// internal/catalog/repository.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"showcase-sync/internal/apperrors"
	"showcase-sync/internal/database"
	"showcase-sync/internal/model"
)

// Repository reconciles remote repositories into catalog entries. One entry
// exists per full_name; renames are updates, never new entries.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a catalog repository over the given pool.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

// Upsert creates or updates the entry for the remote repository inside a
// single transaction, so the field update and the tag reconciliation commit
// or roll back together. The entry's view counter is never written here.
func (r *Repository) Upsert(ctx context.Context, repo *model.RemoteRepository, readmeHTML string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, &apperrors.StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx) // no-op once committed

	id, err := r.upsert(ctx, database.New(tx), repo, readmeHTML)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &apperrors.StorageError{Op: "commit", Err: err}
	}
	return id, nil
}

func (r *Repository) upsert(ctx context.Context, q database.Querier, repo *model.RemoteRepository, readmeHTML string) (int64, error) {
	existing, err := q.GetEntryByFullName(ctx, repo.FullName)

	var entry database.Entry
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		r.logger.Info("Creating catalog entry", "repo", repo.FullName)
		entry, err = q.CreateEntry(ctx, database.CreateEntryParams{
			FullName:        repo.FullName,
			Title:           repo.Name,
			Description:     deref(repo.Description),
			ReadmeHTML:      readmeHTML,
			HTMLURL:         repo.HTMLURL,
			Language:        deref(repo.Language),
			StarsCount:      int32(repo.StarsCount),
			ForksCount:      int32(repo.ForksCount),
			OpenIssuesCount: int32(repo.OpenIssuesCount),
			RepoUpdatedAt:   repo.UpdatedAt,
			Release:         marshalRelease(repo.LatestRelease),
			Contributors:    marshalSlice(repo.Contributors),
			Screenshots:     marshalSlice(repo.Screenshots),
			Requirements:    marshalMap(repo.Requirements),
		})
		if err != nil {
			return 0, &apperrors.StorageError{Op: "create", Err: err}
		}
	case err != nil:
		return 0, &apperrors.StorageError{Op: "lookup", Err: err}
	default:
		r.logger.Debug("Updating catalog entry", "repo", repo.FullName, "entry_id", existing.ID)
		entry, err = q.UpdateEntry(ctx, database.UpdateEntryParams{
			ID:              existing.ID,
			Title:           repo.Name,
			Description:     deref(repo.Description),
			ReadmeHTML:      readmeHTML,
			HTMLURL:         repo.HTMLURL,
			Language:        deref(repo.Language),
			StarsCount:      int32(repo.StarsCount),
			ForksCount:      int32(repo.ForksCount),
			OpenIssuesCount: int32(repo.OpenIssuesCount),
			RepoUpdatedAt:   repo.UpdatedAt,
			Release:         marshalRelease(repo.LatestRelease),
			Contributors:    marshalSlice(repo.Contributors),
			Screenshots:     marshalSlice(repo.Screenshots),
			Requirements:    marshalMap(repo.Requirements),
		})
		if err != nil {
			return 0, &apperrors.StorageError{Op: "update", Err: err}
		}
	}

	if err := r.reconcileTags(ctx, q, entry.ID, repo.Topics); err != nil {
		return 0, err
	}

	return entry.ID, nil
}

// reconcileTags makes the entry's tag set exactly match the current topics:
// find-or-create each topic's tag, then replace the link set. Existing tags
// keep the display name chosen when they were created.
func (r *Repository) reconcileTags(ctx context.Context, q database.Querier, entryID int64, topics []string) error {
	tagIDs := make([]int64, 0, len(topics))

	for _, topic := range topics {
		slug := strings.ToLower(strings.TrimSpace(topic))
		if slug == "" {
			continue
		}

		tag, err := q.GetTagBySlug(ctx, slug)
		if errors.Is(err, pgx.ErrNoRows) {
			tag, err = q.CreateTag(ctx, database.CreateTagParams{Slug: slug, Name: titleCase(topic)})
		}
		if err != nil {
			return &apperrors.StorageError{Op: "tag", Err: err}
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	if err := q.DeleteEntryTags(ctx, entryID); err != nil {
		return &apperrors.StorageError{Op: "tag", Err: err}
	}
	for _, tagID := range tagIDs {
		if err := q.AddEntryTag(ctx, database.AddEntryTagParams{EntryID: entryID, TagID: tagID}); err != nil {
			return &apperrors.StorageError{Op: "tag", Err: err}
		}
	}

	return nil
}

// FindByFullName returns the entry with its tags, or nil when absent.
func (r *Repository) FindByFullName(ctx context.Context, fullName string) (*model.CatalogEntry, error) {
	q := database.New(r.pool)

	row, err := q.GetEntryByFullName(ctx, fullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.StorageError{Op: "lookup", Err: err}
	}

	tags, err := q.ListEntryTagNames(ctx, row.ID)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "tags", Err: err}
	}

	entry := toCatalogEntry(row, tags)
	return &entry, nil
}

// IncrementViews bumps the view counter. This is a read-side concern; the
// sync path never calls it.
func (r *Repository) IncrementViews(ctx context.Context, entryID int64) (int64, error) {
	views, err := database.New(r.pool).IncrementEntryViews(ctx, entryID)
	if err != nil {
		return 0, &apperrors.StorageError{Op: "views", Err: err}
	}
	return views, nil
}

// DeleteAll removes every catalog entry and reports how many were deleted.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	count, err := database.New(r.pool).DeleteAllEntries(ctx)
	if err != nil {
		return 0, &apperrors.StorageError{Op: "delete", Err: err}
	}
	return count, nil
}

// ListParams filters and paginates the catalog.
type ListParams struct {
	Search  string
	Tag     string
	Page    int
	PerPage int
}

// ListResult is one page of catalog entries.
type ListResult struct {
	Entries    []model.CatalogEntry `json:"entries"`
	Total      int64                `json:"total"`
	TotalPages int64                `json:"total_pages"`
}

// List returns a page of entries matching the search term and tag filter.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.PerPage <= 0 {
		params.PerPage = 12
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	q := database.New(r.pool)
	tagSlug := strings.ToLower(strings.TrimSpace(params.Tag))

	rows, err := q.ListEntries(ctx, database.ListEntriesParams{
		Search:  params.Search,
		TagSlug: tagSlug,
		Limit:   int32(params.PerPage),
		Offset:  int32((params.Page - 1) * params.PerPage),
	})
	if err != nil {
		return nil, &apperrors.StorageError{Op: "list", Err: err}
	}

	total, err := q.CountEntries(ctx, database.CountEntriesParams{Search: params.Search, TagSlug: tagSlug})
	if err != nil {
		return nil, &apperrors.StorageError{Op: "count", Err: err}
	}

	result := &ListResult{
		Entries:    make([]model.CatalogEntry, 0, len(rows)),
		Total:      total,
		TotalPages: (total + int64(params.PerPage) - 1) / int64(params.PerPage),
	}
	for _, row := range rows {
		tags, err := q.ListEntryTagNames(ctx, row.ID)
		if err != nil {
			return nil, &apperrors.StorageError{Op: "tags", Err: err}
		}
		entry := toCatalogEntry(row, tags)
		entry.ReadmeHTML = "" // omit the readme body from listings
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

func toCatalogEntry(row database.Entry, tags []string) model.CatalogEntry {
	entry := model.CatalogEntry{
		ID:              row.ID,
		FullName:        row.FullName,
		Title:           row.Title,
		Summary:         row.Description,
		ReadmeHTML:      row.ReadmeHTML,
		HTMLURL:         row.HTMLURL,
		Language:        row.Language,
		StarsCount:      int(row.StarsCount),
		ForksCount:      int(row.ForksCount),
		OpenIssuesCount: int(row.OpenIssuesCount),
		RepoUpdatedAt:   row.RepoUpdatedAt,
		Tags:            tags,
		ViewCount:       row.ViewCount,
		LastSyncedAt:    row.LastSyncedAt,
	}

	if len(row.Release) > 0 {
		var release model.Release
		if json.Unmarshal(row.Release, &release) == nil {
			entry.LatestRelease = &release
		}
	}
	if len(row.Contributors) > 0 {
		_ = json.Unmarshal(row.Contributors, &entry.Contributors)
	}
	if len(row.Screenshots) > 0 {
		_ = json.Unmarshal(row.Screenshots, &entry.Screenshots)
	}
	if len(row.Requirements) > 0 {
		_ = json.Unmarshal(row.Requirements, &entry.Requirements)
	}

	return entry
}

// titleCase upper-cases the first letter only, matching how tags were named
// historically. Existing tags are never renamed.
func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func marshalRelease(rel *model.Release) []byte {
	if rel == nil {
		return nil
	}
	b, err := json.Marshal(rel)
	if err != nil {
		return nil
	}
	return b
}

func marshalSlice[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return b
}

func marshalMap(m map[string]string) []byte {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return b
}
