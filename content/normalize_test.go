package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNormalizePost(t *testing.T) {
	published := time.Date(2024, 3, 4, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	raw := RawPost{
		ID:               "p1",
		Slug:             "hello-world",
		Title:            "Hello World",
		Excerpt:          "excerpt",
		Body:             "<p>body</p>",
		FeaturedImageURL: nil,
		Status:           "published",
		Featured:         true,
		ReadTime:         3,
		PublishedAt:      &published,
		MetaTitle:        strPtr("  "),
		MetaDescription:  strPtr("Meta"),
		Keywords:         strPtr(`["a","b"]`),
		CategoryID:       "c1",
		CategoryName:     "Strategy",
		CategorySlug:     "strategy",
		AuthorID:         "u1",
		AuthorName:       "Ana",
		Tags:             []RawTag{{ID: "t1", Name: "AI", Slug: "ai"}, {ID: "t2", Name: "Data", Slug: "data"}},
	}

	post := NormalizePost(raw)

	assert.Equal(t, StatusPublished, post.Status)
	assert.Nil(t, post.FeaturedImageURL)
	assert.Nil(t, post.MetaTitle)
	assert.Equal(t, "Meta", *post.MetaDescription)
	assert.Equal(t, []string{"a", "b"}, post.Keywords)
	assert.Equal(t, []string{"AI", "Data"}, post.Tags)
	assert.Equal(t, CategoryRef{ID: "c1", Name: "Strategy", Slug: "strategy"}, post.Category)
	assert.Equal(t, "Ana", post.Author.Name)
	assert.Equal(t, 3, post.ReadTimeMinutes)
	assert.Equal(t, time.UTC, post.PublishedAt.Location())
	assert.True(t, post.PublishedAt.Equal(published))
}

func TestNormalizePostDegradesCorruptKeywords(t *testing.T) {
	post := NormalizePost(RawPost{ID: "p1", Status: "DRAFT", Keywords: strPtr("not-json"), Body: "one two"})

	assert.Equal(t, []string{}, post.Keywords)
	assert.Equal(t, []string{}, post.Tags)
	assert.Equal(t, 1, post.ReadTimeMinutes)
	assert.Nil(t, post.PublishedAt)
}

func TestNormalizePostNullKeywords(t *testing.T) {
	post := NormalizePost(RawPost{ID: "p1", Status: "DRAFT"})
	assert.Equal(t, []string{}, post.Keywords)
}
