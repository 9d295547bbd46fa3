package models

import "time"

// User is an account that can sign in to the admin API and author posts.
type User struct {
	ID           string    `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	Name         string    `json:"name" gorm:"column:name;type:varchar(120);not null"`
	Email        string    `json:"email" gorm:"column:email;type:varchar(255);not null;uniqueIndex:idx_users_email"`
	Role         string    `json:"role" gorm:"column:role;type:varchar(16);not null;default:'AUTHOR'"`
	Title        *string   `json:"title,omitempty" gorm:"column:title;type:varchar(120)"`
	AvatarURL    *string   `json:"avatarUrl,omitempty" gorm:"column:avatar_url;type:text"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"column:updated_at;not null"`
}

func (User) TableName() string {
	return "users"
}
