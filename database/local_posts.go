package database

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/consulting-site-backend/content"
	"github.com/rpupo63/consulting-site-backend/models"
)

func (l *Local) withPostRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name ASC, tags.id ASC")
		})
}

// ListPosts runs the page query and the count concurrently; both use the same
// rendered predicate.
func (l *Local) ListPosts(ctx context.Context, q content.Query) ([]content.RawPost, int, error) {
	where, args, err := filterSQL(q.Predicate)
	if err != nil {
		return nil, 0, err
	}
	order, err := orderSQL(q.Sort)
	if err != nil {
		return nil, 0, err
	}

	var (
		posts []models.Post
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.withPostRelations(l.db.WithContext(gctx)).
			Where(where, args...).
			Order(order).
			Limit(q.Page.Limit).
			Offset(q.Page.Offset()).
			Find(&posts).Error
	})
	g.Go(func() error {
		return l.db.WithContext(gctx).Model(&models.Post{}).Where(where, args...).Count(&total).Error
	})
	if err := g.Wait(); err != nil {
		return nil, 0, storeErr("list", entityPost, err)
	}

	rows := make([]content.RawPost, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, rawPostFromModel(p))
	}
	l.logger.Debug().Int("rows", len(rows)).Int64("total", total).Msg("listed posts")
	return rows, int(total), nil
}

func lookupColumn(by content.LookupField) (string, error) {
	switch by {
	case content.ByID:
		return "posts.id", nil
	case content.BySlug:
		return "posts.slug", nil
	}
	return "", fmt.Errorf("unsupported lookup %q", by)
}

func (l *Local) FindPost(ctx context.Context, by content.LookupField, value string) (*content.RawPost, error) {
	column, err := lookupColumn(by)
	if err != nil {
		return nil, err
	}
	var post models.Post
	err = l.withPostRelations(l.db.WithContext(ctx)).Where(column+" = ?", value).Take(&post).Error
	if err != nil {
		return nil, storeErr("find", entityPost, err)
	}
	raw := rawPostFromModel(post)
	return &raw, nil
}

func (l *Local) CreatePost(ctx context.Context, rec content.PostRecord) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post := postModel(rec)
		if err := tx.Omit(clause.Associations).Create(&post).Error; err != nil {
			return err
		}
		return insertPostTags(tx, rec.ID, rec.TagIDs)
	})
	return storeErr("create", entityPost, err)
}

// UpdatePost rewrites the post's columns and replaces its tag set.
func (l *Local) UpdatePost(ctx context.Context, rec content.PostRecord) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", rec.ID).Updates(postUpdates(rec))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("post_id = ?", rec.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return insertPostTags(tx, rec.ID, rec.TagIDs)
	})
	return storeErr("update", entityPost, err)
}

func (l *Local) DeletePost(ctx context.Context, id string) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeErr("delete", entityPost, err)
}

func insertPostTags(tx *gorm.DB, postID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := postTagRows(postID, tagIDs)
	return tx.Create(&rows).Error
}
