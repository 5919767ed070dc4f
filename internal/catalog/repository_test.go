// internal/catalog/repository_test.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"showcase-sync/internal/apperrors"
	"showcase-sync/internal/database"
	"showcase-sync/internal/model"
)

// MockQuerier is a mock implementation of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) GetEntryByFullName(ctx context.Context, fullName string) (database.Entry, error) {
	args := m.Called(ctx, fullName)
	return args.Get(0).(database.Entry), args.Error(1)
}

func (m *MockQuerier) CreateEntry(ctx context.Context, arg database.CreateEntryParams) (database.Entry, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Entry), args.Error(1)
}

func (m *MockQuerier) UpdateEntry(ctx context.Context, arg database.UpdateEntryParams) (database.Entry, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Entry), args.Error(1)
}

func (m *MockQuerier) DeleteAllEntries(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) IncrementEntryViews(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) ListEntries(ctx context.Context, arg database.ListEntriesParams) ([]database.Entry, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Entry), args.Error(1)
}

func (m *MockQuerier) CountEntries(ctx context.Context, arg database.CountEntriesParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) GetTagBySlug(ctx context.Context, slug string) (database.Tag, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(database.Tag), args.Error(1)
}

func (m *MockQuerier) CreateTag(ctx context.Context, arg database.CreateTagParams) (database.Tag, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Tag), args.Error(1)
}

func (m *MockQuerier) DeleteEntryTags(ctx context.Context, entryID int64) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockQuerier) AddEntryTag(ctx context.Context, arg database.AddEntryTagParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) ListEntryTagNames(ctx context.Context, entryID int64) ([]string, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQuerier) GetSetting(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockQuerier) UpsertSetting(ctx context.Context, arg database.UpsertSettingParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

var _ database.Querier = (*MockQuerier)(nil)

func testRepository() *Repository {
	return &Repository{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func strPtr(s string) *string { return &s }

func TestRepository_Upsert_CreatesWhenAbsent(t *testing.T) {
	q := new(MockQuerier)
	repo := &model.RemoteRepository{
		FullName:    "acme/widget",
		Name:        "widget",
		Description: strPtr("A widget"),
		HTMLURL:     "https://github.com/acme/widget",
		Language:    strPtr("PHP"),
		StarsCount:  42,
		UpdatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	q.On("GetEntryByFullName", mock.Anything, "acme/widget").Return(database.Entry{}, pgx.ErrNoRows)

	var created database.CreateEntryParams
	q.On("CreateEntry", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(database.CreateEntryParams) }).
		Return(database.Entry{ID: 7}, nil)
	q.On("DeleteEntryTags", mock.Anything, int64(7)).Return(nil)

	id, err := testRepository().upsert(context.Background(), q, repo, "<h1>Widget</h1>")

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "acme/widget", created.FullName)
	assert.Equal(t, "widget", created.Title)
	assert.Equal(t, "A widget", created.Description)
	assert.Equal(t, "<h1>Widget</h1>", created.ReadmeHTML)
	assert.Equal(t, int32(42), created.StarsCount)
	q.AssertNotCalled(t, "UpdateEntry", mock.Anything, mock.Anything)
}

func TestRepository_Upsert_UpdatesWhenPresent(t *testing.T) {
	q := new(MockQuerier)
	repo := &model.RemoteRepository{FullName: "acme/widget", Name: "widget", StarsCount: 50}

	q.On("GetEntryByFullName", mock.Anything, "acme/widget").
		Return(database.Entry{ID: 7, FullName: "acme/widget", ViewCount: 123}, nil)

	var updated database.UpdateEntryParams
	q.On("UpdateEntry", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { updated = args.Get(1).(database.UpdateEntryParams) }).
		Return(database.Entry{ID: 7, ViewCount: 123}, nil)
	q.On("DeleteEntryTags", mock.Anything, int64(7)).Return(nil)

	id, err := testRepository().upsert(context.Background(), q, repo, "")

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(7), updated.ID)
	assert.Equal(t, int32(50), updated.StarsCount)
	q.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
}

func TestRepository_Upsert_LookupFailure(t *testing.T) {
	q := new(MockQuerier)
	q.On("GetEntryByFullName", mock.Anything, "acme/widget").
		Return(database.Entry{}, errors.New("connection reset"))

	_, err := testRepository().upsert(context.Background(), q, &model.RemoteRepository{FullName: "acme/widget"}, "")

	var storageErr *apperrors.StorageError
	require.ErrorAs(t, err, &storageErr)
	q.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
	q.AssertNotCalled(t, "UpdateEntry", mock.Anything, mock.Anything)
}

func TestRepository_ReconcileTags_ReplacesTheLinkSet(t *testing.T) {
	q := new(MockQuerier)

	// "b" exists already; "d" has to be created with a title-cased name.
	q.On("GetTagBySlug", mock.Anything, "b").Return(database.Tag{ID: 2, Slug: "b", Name: "B"}, nil)
	q.On("GetTagBySlug", mock.Anything, "d").Return(database.Tag{}, pgx.ErrNoRows)
	q.On("CreateTag", mock.Anything, database.CreateTagParams{Slug: "d", Name: "D"}).
		Return(database.Tag{ID: 4, Slug: "d", Name: "D"}, nil)

	q.On("DeleteEntryTags", mock.Anything, int64(7)).Return(nil)
	q.On("AddEntryTag", mock.Anything, database.AddEntryTagParams{EntryID: 7, TagID: 2}).Return(nil)
	q.On("AddEntryTag", mock.Anything, database.AddEntryTagParams{EntryID: 7, TagID: 4}).Return(nil)

	err := testRepository().reconcileTags(context.Background(), q, 7, []string{"b", "d"})

	require.NoError(t, err)
	q.AssertExpectations(t)
}

func TestRepository_ReconcileTags_NormalizesAndSkipsBlanks(t *testing.T) {
	q := new(MockQuerier)

	q.On("GetTagBySlug", mock.Anything, "block-editor").
		Return(database.Tag{ID: 9, Slug: "block-editor", Name: "Block-editor"}, nil)
	q.On("DeleteEntryTags", mock.Anything, int64(1)).Return(nil)
	q.On("AddEntryTag", mock.Anything, database.AddEntryTagParams{EntryID: 1, TagID: 9}).Return(nil)

	err := testRepository().reconcileTags(context.Background(), q, 1, []string{"  Block-Editor  ", "   "})

	require.NoError(t, err)
	q.AssertExpectations(t)
}

func TestRepository_ReconcileTags_EmptyTopicsClearsTags(t *testing.T) {
	q := new(MockQuerier)
	q.On("DeleteEntryTags", mock.Anything, int64(5)).Return(nil)

	err := testRepository().reconcileTags(context.Background(), q, 5, nil)

	require.NoError(t, err)
	q.AssertNotCalled(t, "AddEntryTag", mock.Anything, mock.Anything)
}

func TestToCatalogEntry(t *testing.T) {
	release, err := json.Marshal(model.Release{TagName: "v2.0.0", Name: "Two"})
	require.NoError(t, err)

	row := database.Entry{
		ID:           3,
		FullName:     "acme/widget",
		Title:        "widget",
		Release:      release,
		Requirements: []byte(`{"php":">=8.0"}`),
		ViewCount:    11,
	}

	entry := toCatalogEntry(row, []string{"Wordpress"})

	assert.Equal(t, "acme/widget", entry.FullName)
	require.NotNil(t, entry.LatestRelease)
	assert.Equal(t, "v2.0.0", entry.LatestRelease.TagName)
	assert.Equal(t, map[string]string{"php": ">=8.0"}, entry.Requirements)
	assert.Equal(t, []string{"Wordpress"}, entry.Tags)
	assert.Equal(t, int64(11), entry.ViewCount)
}

func TestTitleCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"wordpress", "Wordpress"},
		{"block-editor", "Block-editor"},
		{"API", "API"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCase(tt.in), tt.in)
	}
}
