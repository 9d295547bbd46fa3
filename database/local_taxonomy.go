package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rpupo63/consulting-site-backend/content"
	"github.com/rpupo63/consulting-site-backend/models"
)

type categoryRow struct {
	models.Category
	PostCount int `gorm:"column:post_count"`
}

type tagRow struct {
	models.Tag
	PostCount int `gorm:"column:post_count"`
}

const (
	categoryCountSQL = "categories.*, (SELECT COUNT(*) FROM posts WHERE posts.category_id = categories.id) AS post_count"
	tagCountSQL      = "tags.*, (SELECT COUNT(*) FROM post_tags WHERE post_tags.tag_id = tags.id) AS post_count"
)

func (r categoryRow) domain() content.Category {
	return content.Category{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Color:       r.Color,
		PostCount:   r.PostCount,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r tagRow) domain() content.Tag {
	return content.Tag{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		PostCount: r.PostCount,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func taxonomyColumn(table string, by content.LookupField) (string, error) {
	switch by {
	case content.ByID:
		return table + ".id", nil
	case content.BySlug:
		return table + ".slug", nil
	}
	return "", fmt.Errorf("unsupported lookup %q", by)
}

func (l *Local) ListCategories(ctx context.Context) ([]content.Category, error) {
	var rows []categoryRow
	err := l.db.WithContext(ctx).Model(&models.Category{}).
		Select(categoryCountSQL).
		Order("categories.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("list", entityCategory, err)
	}
	categories := make([]content.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, row.domain())
	}
	return categories, nil
}

func (l *Local) FindCategory(ctx context.Context, by content.LookupField, value string) (*content.Category, error) {
	column, err := taxonomyColumn("categories", by)
	if err != nil {
		return nil, err
	}
	var rows []categoryRow
	err = l.db.WithContext(ctx).Model(&models.Category{}).
		Select(categoryCountSQL).
		Where(column+" = ?", value).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("find", entityCategory, err)
	}
	if len(rows) == 0 {
		return nil, storeErr("find", entityCategory, gorm.ErrRecordNotFound)
	}
	category := rows[0].domain()
	return &category, nil
}

func (l *Local) CreateCategory(ctx context.Context, c content.Category) error {
	model := categoryModel(c)
	return storeErr("create", entityCategory, l.db.WithContext(ctx).Create(&model).Error)
}

func (l *Local) UpdateCategory(ctx context.Context, c content.Category) error {
	res := l.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", c.ID).Updates(map[string]any{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"color":       c.Color,
		"updated_at":  c.UpdatedAt.UTC(),
	})
	return storeErr("update", entityCategory, affected(res))
}

// DeleteCategory relies on the posts foreign key to refuse categories in use.
func (l *Local) DeleteCategory(ctx context.Context, id string) error {
	res := l.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	return storeErr("delete", entityCategory, affected(res))
}

func (l *Local) ListTags(ctx context.Context) ([]content.Tag, error) {
	var rows []tagRow
	err := l.db.WithContext(ctx).Model(&models.Tag{}).
		Select(tagCountSQL).
		Order("tags.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("list", entityTag, err)
	}
	return tagsFromRows(rows), nil
}

func (l *Local) FindTags(ctx context.Context, ids []string) ([]content.Tag, error) {
	if len(ids) == 0 {
		return []content.Tag{}, nil
	}
	var rows []tagRow
	err := l.db.WithContext(ctx).Model(&models.Tag{}).
		Select(tagCountSQL).
		Where("tags.id IN ?", ids).
		Order("tags.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("find", entityTag, err)
	}
	return tagsFromRows(rows), nil
}

func (l *Local) FindTag(ctx context.Context, by content.LookupField, value string) (*content.Tag, error) {
	column, err := taxonomyColumn("tags", by)
	if err != nil {
		return nil, err
	}
	var rows []tagRow
	err = l.db.WithContext(ctx).Model(&models.Tag{}).
		Select(tagCountSQL).
		Where(column+" = ?", value).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("find", entityTag, err)
	}
	if len(rows) == 0 {
		return nil, storeErr("find", entityTag, gorm.ErrRecordNotFound)
	}
	tag := rows[0].domain()
	return &tag, nil
}

func (l *Local) CreateTag(ctx context.Context, t content.Tag) error {
	model := tagModel(t)
	return storeErr("create", entityTag, l.db.WithContext(ctx).Create(&model).Error)
}

func (l *Local) UpdateTag(ctx context.Context, t content.Tag) error {
	res := l.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", t.ID).Updates(map[string]any{
		"name":       t.Name,
		"slug":       t.Slug,
		"updated_at": t.UpdatedAt.UTC(),
	})
	return storeErr("update", entityTag, affected(res))
}

// DeleteTag detaches the tag from its posts and removes it.
func (l *Local) DeleteTag(ctx context.Context, id string) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return affected(tx.Where("id = ?", id).Delete(&models.Tag{}))
	})
	return storeErr("delete", entityTag, err)
}

func tagsFromRows(rows []tagRow) []content.Tag {
	tags := make([]content.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, row.domain())
	}
	return tags
}

// affected turns a write that matched no row into ErrRecordNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
