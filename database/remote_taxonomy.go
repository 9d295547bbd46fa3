package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpupo63/consulting-site-backend/content"
)

const (
	categorySelectSQL = `SELECT categories.id, categories.name, categories.slug, categories.description, categories.color,
  categories.created_at, categories.updated_at,
  (SELECT COUNT(*) FROM posts WHERE posts.category_id = categories.id) AS post_count
FROM categories`
	tagSelectSQL = `SELECT tags.id, tags.name, tags.slug, tags.created_at, tags.updated_at,
  (SELECT COUNT(*) FROM post_tags WHERE post_tags.tag_id = tags.id) AS post_count
FROM tags`
)

func categoryFromRecord(rec record) content.Category {
	return content.Category{
		ID:          rec.str("id"),
		Name:        rec.str("name"),
		Slug:        rec.str("slug"),
		Description: rec.optStr("description"),
		Color:       rec.optStr("color"),
		PostCount:   int(rec.int("post_count")),
		CreatedAt:   rec.time("created_at"),
		UpdatedAt:   rec.time("updated_at"),
	}
}

func tagFromRecord(rec record) content.Tag {
	return content.Tag{
		ID:        rec.str("id"),
		Name:      rec.str("name"),
		Slug:      rec.str("slug"),
		PostCount: int(rec.int("post_count")),
		CreatedAt: rec.time("created_at"),
		UpdatedAt: rec.time("updated_at"),
	}
}

func (r *Remote) ListCategories(ctx context.Context) ([]content.Category, error) {
	sets, err := r.client.execute(ctx, stmt(categorySelectSQL+" ORDER BY categories.name ASC"))
	if err != nil {
		return nil, storeErr("list", entityCategory, err)
	}
	categories := make([]content.Category, 0, len(sets[0].rows))
	for _, rec := range sets[0].records() {
		categories = append(categories, categoryFromRecord(rec))
	}
	return categories, nil
}

func (r *Remote) FindCategory(ctx context.Context, by content.LookupField, value string) (*content.Category, error) {
	column, err := taxonomyColumn("categories", by)
	if err != nil {
		return nil, err
	}
	sets, err := r.client.execute(ctx, stmt(fmt.Sprintf("%s WHERE %s = ? LIMIT 1", categorySelectSQL, column), value))
	if err != nil {
		return nil, storeErr("find", entityCategory, err)
	}
	recs := sets[0].records()
	if len(recs) == 0 {
		return nil, storeErr("find", entityCategory, errNoRows)
	}
	category := categoryFromRecord(recs[0])
	return &category, nil
}

func (r *Remote) CreateCategory(ctx context.Context, c content.Category) error {
	_, err := r.client.transaction(ctx, stmt(
		"INSERT INTO categories (id, name, slug, description, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Slug, c.Description, c.Color, c.CreatedAt, c.UpdatedAt,
	))
	return storeErr("create", entityCategory, err)
}

func (r *Remote) UpdateCategory(ctx context.Context, c content.Category) error {
	sets, err := r.client.transaction(ctx, stmt(
		"UPDATE categories SET name = ?, slug = ?, description = ?, color = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Slug, c.Description, c.Color, c.UpdatedAt, c.ID,
	))
	return storeErr("update", entityCategory, requireAffected(sets, err))
}

func (r *Remote) DeleteCategory(ctx context.Context, id string) error {
	sets, err := r.client.transaction(ctx, stmt("DELETE FROM categories WHERE id = ?", id))
	return storeErr("delete", entityCategory, requireAffected(sets, err))
}

func (r *Remote) ListTags(ctx context.Context) ([]content.Tag, error) {
	sets, err := r.client.execute(ctx, stmt(tagSelectSQL+" ORDER BY tags.name ASC"))
	if err != nil {
		return nil, storeErr("list", entityTag, err)
	}
	return tagsFromRecords(sets[0].records()), nil
}

func (r *Remote) FindTags(ctx context.Context, ids []string) ([]content.Tag, error) {
	if len(ids) == 0 {
		return []content.Tag{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	sets, err := r.client.execute(ctx, stmt(
		fmt.Sprintf("%s WHERE tags.id IN (%s) ORDER BY tags.name ASC", tagSelectSQL, placeholders), args...,
	))
	if err != nil {
		return nil, storeErr("find", entityTag, err)
	}
	return tagsFromRecords(sets[0].records()), nil
}

func (r *Remote) FindTag(ctx context.Context, by content.LookupField, value string) (*content.Tag, error) {
	column, err := taxonomyColumn("tags", by)
	if err != nil {
		return nil, err
	}
	sets, err := r.client.execute(ctx, stmt(fmt.Sprintf("%s WHERE %s = ? LIMIT 1", tagSelectSQL, column), value))
	if err != nil {
		return nil, storeErr("find", entityTag, err)
	}
	tags := tagsFromRecords(sets[0].records())
	if len(tags) == 0 {
		return nil, storeErr("find", entityTag, errNoRows)
	}
	return &tags[0], nil
}

func (r *Remote) CreateTag(ctx context.Context, t content.Tag) error {
	_, err := r.client.transaction(ctx, stmt(
		"INSERT INTO tags (id, name, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		t.ID, t.Name, t.Slug, t.CreatedAt, t.UpdatedAt,
	))
	return storeErr("create", entityTag, err)
}

func (r *Remote) UpdateTag(ctx context.Context, t content.Tag) error {
	sets, err := r.client.transaction(ctx, stmt(
		"UPDATE tags SET name = ?, slug = ?, updated_at = ? WHERE id = ?",
		t.Name, t.Slug, t.UpdatedAt, t.ID,
	))
	return storeErr("update", entityTag, requireAffected(sets, err))
}

func (r *Remote) DeleteTag(ctx context.Context, id string) error {
	sets, err := r.client.transaction(ctx,
		stmt("DELETE FROM post_tags WHERE tag_id = ?", id),
		stmt("DELETE FROM tags WHERE id = ?", id),
	)
	if err == nil && sets[1].affected == 0 {
		err = errNoRows
	}
	return storeErr("delete", entityTag, err)
}

func tagsFromRecords(recs []record) []content.Tag {
	tags := make([]content.Tag, 0, len(recs))
	for _, rec := range recs {
		tags = append(tags, tagFromRecord(rec))
	}
	return tags
}

// requireAffected reports a single-statement write that matched no row.
func requireAffected(sets []*resultSet, err error) error {
	if err != nil {
		return err
	}
	if len(sets) == 0 || sets[0].affected == 0 {
		return errNoRows
	}
	return nil
}
