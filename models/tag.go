package models

import "time"

type Tag struct {
	ID        string    `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	Name      string    `json:"name" gorm:"column:name;type:varchar(60);not null;uniqueIndex:idx_tags_name"`
	Slug      string    `json:"slug" gorm:"column:slug;type:varchar(80);not null;uniqueIndex:idx_tags_slug"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at;not null"`
}

func (Tag) TableName() string {
	return "tags"
}
