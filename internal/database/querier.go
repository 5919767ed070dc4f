// internal/database/querier.go
package database

import "context"

// Querier is the full query surface. Consumers depend on this interface so
// tests can substitute a mock.
type Querier interface {
	GetEntryByFullName(ctx context.Context, fullName string) (Entry, error)
	CreateEntry(ctx context.Context, arg CreateEntryParams) (Entry, error)
	UpdateEntry(ctx context.Context, arg UpdateEntryParams) (Entry, error)
	DeleteAllEntries(ctx context.Context) (int64, error)
	IncrementEntryViews(ctx context.Context, id int64) (int64, error)
	ListEntries(ctx context.Context, arg ListEntriesParams) ([]Entry, error)
	CountEntries(ctx context.Context, arg CountEntriesParams) (int64, error)

	GetTagBySlug(ctx context.Context, slug string) (Tag, error)
	CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error)
	DeleteEntryTags(ctx context.Context, entryID int64) error
	AddEntryTag(ctx context.Context, arg AddEntryTagParams) error
	ListEntryTagNames(ctx context.Context, entryID int64) ([]string, error)

	GetSetting(ctx context.Context, key string) (string, error)
	UpsertSetting(ctx context.Context, arg UpsertSettingParams) error
}

var _ Querier = (*Queries)(nil)
