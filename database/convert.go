package database

import (
	"time"

	"gorm.io/datatypes"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/content"
	"github.com/rpupo63/consulting-site-backend/models"
)

func rawPostFromModel(p models.Post) content.RawPost {
	raw := content.RawPost{
		ID:               p.ID,
		Slug:             p.Slug,
		Title:            p.Title,
		Excerpt:          p.Excerpt,
		Body:             p.Body,
		FeaturedImageURL: p.FeaturedImageURL,
		Status:           p.Status,
		Featured:         p.Featured,
		ReadTime:         p.ReadTime,
		PublishedAt:      utcPtr(p.PublishedAt),
		MetaTitle:        p.MetaTitle,
		MetaDescription:  p.MetaDescription,
		CategoryID:       p.CategoryID,
		CategoryName:     p.Category.Name,
		CategorySlug:     p.Category.Slug,
		AuthorID:         p.AuthorID,
		AuthorName:       p.Author.Name,
		AuthorTitle:      p.Author.Title,
		AuthorAvatarURL:  p.Author.AvatarURL,
		Tags:             make([]content.RawTag, 0, len(p.Tags)),
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
	if len(p.Keywords) > 0 {
		keywords := string(p.Keywords)
		raw.Keywords = &keywords
	}
	for _, t := range p.Tags {
		raw.Tags = append(raw.Tags, content.RawTag{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return raw
}

func postModel(rec content.PostRecord) models.Post {
	return models.Post{
		ID:               rec.ID,
		Slug:             rec.Slug,
		Title:            rec.Title,
		Excerpt:          rec.Excerpt,
		Body:             rec.Body,
		FeaturedImageURL: rec.FeaturedImageURL,
		Status:           string(rec.Status),
		Featured:         rec.Featured,
		ReadTime:         rec.ReadTime,
		PublishedAt:      utcPtr(rec.PublishedAt),
		MetaTitle:        rec.MetaTitle,
		MetaDescription:  rec.MetaDescription,
		Keywords:         datatypes.JSON(rec.Keywords),
		CategoryID:       rec.CategoryID,
		AuthorID:         rec.AuthorID,
		CreatedAt:        rec.CreatedAt.UTC(),
		UpdatedAt:        rec.UpdatedAt.UTC(),
	}
}

// postUpdates lists every column UpdatePost rewrites. Nil pointers clear the
// column.
func postUpdates(rec content.PostRecord) map[string]any {
	return map[string]any{
		"slug":               rec.Slug,
		"title":              rec.Title,
		"excerpt":            rec.Excerpt,
		"body":               rec.Body,
		"featured_image_url": rec.FeaturedImageURL,
		"status":             string(rec.Status),
		"featured":           rec.Featured,
		"read_time":          rec.ReadTime,
		"published_at":       utcPtr(rec.PublishedAt),
		"meta_title":         rec.MetaTitle,
		"meta_description":   rec.MetaDescription,
		"keywords":           datatypes.JSON(rec.Keywords),
		"category_id":        rec.CategoryID,
		"updated_at":         rec.UpdatedAt.UTC(),
	}
}

func postTagRows(postID string, tagIDs []string) []models.PostTag {
	rows := make([]models.PostTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, models.PostTag{PostID: postID, TagID: tagID})
	}
	return rows
}

func categoryModel(c content.Category) models.Category {
	return models.Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Color:       c.Color,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func tagModel(t content.Tag) models.Tag {
	return models.Tag{ID: t.ID, Name: t.Name, Slug: t.Slug, CreatedAt: t.CreatedAt.UTC(), UpdatedAt: t.UpdatedAt.UTC()}
}

func userRecordFromModel(u models.User) accounts.UserRecord {
	return accounts.UserRecord{
		User: accounts.User{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      accounts.Role(u.Role),
			Title:     u.Title,
			AvatarURL: u.AvatarURL,
			CreatedAt: u.CreatedAt.UTC(),
			UpdatedAt: u.UpdatedAt.UTC(),
		},
		PasswordHash: u.PasswordHash,
	}
}

func userModel(u accounts.UserRecord) models.User {
	return models.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		Title:        u.Title,
		AvatarURL:    u.AvatarURL,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
