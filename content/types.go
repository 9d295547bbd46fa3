package content

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// ParseStatus accepts any casing of the three lifecycle values.
func ParseStatus(s string) (Status, error) {
	switch status := Status(strings.ToUpper(strings.TrimSpace(s))); status {
	case StatusDraft, StatusPublished, StatusArchived:
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q (allowed: DRAFT, PUBLISHED, ARCHIVED)", s)
}

// Post is the canonical shape every storage backend is normalized into.
type Post struct {
	ID               string      `json:"id"`
	Slug             string      `json:"slug"`
	Title            string      `json:"title"`
	Excerpt          string      `json:"excerpt"`
	Body             string      `json:"body"`
	FeaturedImageURL *string     `json:"featuredImageUrl,omitempty"`
	Category         CategoryRef `json:"category"`
	Tags             []string    `json:"tags"`
	Status           Status      `json:"status"`
	PublishedAt      *time.Time  `json:"publishedAt,omitempty"`
	Featured         bool        `json:"featured"`
	ReadTimeMinutes  int         `json:"readTimeMinutes"`
	MetaTitle        *string     `json:"metaTitle,omitempty"`
	MetaDescription  *string     `json:"metaDescription,omitempty"`
	Keywords         []string    `json:"keywords"`
	Author           AuthorRef   `json:"author"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type AuthorRef struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Title     *string `json:"title,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// RawPost is a post row as a backend returns it: nullable columns stay
// pointers, keywords stay serialized and tags are the joined relation rows.
type RawPost struct {
	ID               string
	Slug             string
	Title            string
	Excerpt          string
	Body             string
	FeaturedImageURL *string
	Status           string
	Featured         bool
	ReadTime         int
	PublishedAt      *time.Time
	MetaTitle        *string
	MetaDescription  *string
	Keywords         *string
	CategoryID       string
	CategoryName     string
	CategorySlug     string
	AuthorID         string
	AuthorName       string
	AuthorTitle      *string
	AuthorAvatarURL  *string
	Tags             []RawTag
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type RawTag struct {
	ID   string
	Name string
	Slug string
}

// PostRecord is a validated post ready to be written.
type PostRecord struct {
	ID               string
	Slug             string
	Title            string
	Excerpt          string
	Body             string
	FeaturedImageURL *string
	Status           Status
	Featured         bool
	ReadTime         int
	PublishedAt      *time.Time
	MetaTitle        *string
	MetaDescription  *string
	Keywords         string
	CategoryID       string
	AuthorID         string
	TagIDs           []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	PostCount   int       `json:"postCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount int       `json:"postCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ListResult struct {
	Items      []Post     `json:"items"`
	Pagination Pagination `json:"pagination"`
	// Degraded is set when the items come from the sample catalogue because
	// storage could not be reached.
	Degraded bool `json:"degraded,omitempty"`
}
