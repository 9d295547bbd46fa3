package models

import "time"

type Category struct {
	ID          string    `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	Name        string    `json:"name" gorm:"column:name;type:varchar(100);not null;uniqueIndex:idx_categories_name"`
	Slug        string    `json:"slug" gorm:"column:slug;type:varchar(120);not null;uniqueIndex:idx_categories_slug"`
	Description *string   `json:"description,omitempty" gorm:"column:description;type:text"`
	Color       *string   `json:"color,omitempty" gorm:"column:color;type:varchar(7)"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"column:updated_at;not null"`
}

func (Category) TableName() string {
	return "categories"
}
