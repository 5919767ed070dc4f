// internal/database/tags.go
package database

import "context"

const getTagBySlug = `
SELECT id, slug, name FROM tags WHERE slug = $1
`

func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (Tag, error) {
	var t Tag
	err := q.db.QueryRow(ctx, getTagBySlug, slug).Scan(&t.ID, &t.Slug, &t.Name)
	return t, err
}

type CreateTagParams struct {
	Slug string
	Name string
}

const createTag = `
INSERT INTO tags (slug, name) VALUES ($1, $2)
RETURNING id, slug, name
`

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	var t Tag
	err := q.db.QueryRow(ctx, createTag, arg.Slug, arg.Name).Scan(&t.ID, &t.Slug, &t.Name)
	return t, err
}

const deleteEntryTags = `
DELETE FROM entry_tags WHERE entry_id = $1
`

func (q *Queries) DeleteEntryTags(ctx context.Context, entryID int64) error {
	_, err := q.db.Exec(ctx, deleteEntryTags, entryID)
	return err
}

type AddEntryTagParams struct {
	EntryID int64
	TagID   int64
}

const addEntryTag = `
INSERT INTO entry_tags (entry_id, tag_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (q *Queries) AddEntryTag(ctx context.Context, arg AddEntryTagParams) error {
	_, err := q.db.Exec(ctx, addEntryTag, arg.EntryID, arg.TagID)
	return err
}

const listEntryTagNames = `
SELECT t.name
FROM entry_tags et JOIN tags t ON t.id = et.tag_id
WHERE et.entry_id = $1
ORDER BY t.name
`

func (q *Queries) ListEntryTagNames(ctx context.Context, entryID int64) ([]string, error) {
	rows, err := q.db.Query(ctx, listEntryTagNames, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
