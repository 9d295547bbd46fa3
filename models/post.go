package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is one article. Keywords hold a JSON array of strings.
type Post struct {
	ID               string         `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	Slug             string         `json:"slug" gorm:"column:slug;type:varchar(255);not null;uniqueIndex:idx_posts_slug"`
	Title            string         `json:"title" gorm:"column:title;type:text;not null"`
	Excerpt          string         `json:"excerpt" gorm:"column:excerpt;type:text;not null"`
	Body             string         `json:"body" gorm:"column:body;type:text;not null"`
	FeaturedImageURL *string        `json:"featuredImageUrl,omitempty" gorm:"column:featured_image_url;type:text"`
	Status           string         `json:"status" gorm:"column:status;type:varchar(16);not null;default:'DRAFT';index:idx_posts_status"`
	Featured         bool           `json:"featured" gorm:"column:featured;not null;default:false"`
	ReadTime         int            `json:"readTime" gorm:"column:read_time;not null;default:1"`
	PublishedAt      *time.Time     `json:"publishedAt,omitempty" gorm:"column:published_at;index:idx_posts_published_at"`
	MetaTitle        *string        `json:"metaTitle,omitempty" gorm:"column:meta_title;type:text"`
	MetaDescription  *string        `json:"metaDescription,omitempty" gorm:"column:meta_description;type:text"`
	Keywords         datatypes.JSON `json:"keywords,omitempty" gorm:"column:keywords"`
	CategoryID       string         `json:"categoryId" gorm:"column:category_id;type:varchar(36);not null;index:idx_posts_category_id"`
	AuthorID         string         `json:"authorId" gorm:"column:author_id;type:varchar(36);not null;index:idx_posts_author_id"`
	CreatedAt        time.Time      `json:"createdAt" gorm:"column:created_at;not null"`
	UpdatedAt        time.Time      `json:"updatedAt" gorm:"column:updated_at;not null"`

	Category Category `json:"category" gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:RESTRICT"`
	Author   User     `json:"author" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:RESTRICT"`
	Tags     []Tag    `json:"tags" gorm:"many2many:post_tags;joinForeignKey:PostID;joinReferences:TagID"`
}

func (Post) TableName() string {
	return "posts"
}

// PostTag is the join row between posts and tags.
type PostTag struct {
	PostID string `gorm:"column:post_id;type:varchar(36);primaryKey"`
	TagID  string `gorm:"column:tag_id;type:varchar(36);primaryKey;index:idx_post_tags_tag_id"`
}

func (PostTag) TableName() string {
	return "post_tags"
}
