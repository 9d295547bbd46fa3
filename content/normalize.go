package content

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// NormalizePost maps a backend row onto the canonical Post. Blank optional
// strings become absent and corrupt keywords degrade to an empty list.
func NormalizePost(raw RawPost) Post {
	keywords := []string{}
	if raw.Keywords != nil {
		var ok bool
		keywords, ok = DeserializeKeywords(*raw.Keywords)
		if !ok {
			log.Warn().
				Str("component", "normalizer").
				Str("postId", raw.ID).
				Msg("corrupt keywords column, serving empty list")
		}
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, tag := range raw.Tags {
		tags = append(tags, tag.Name)
	}

	status, err := ParseStatus(raw.Status)
	if err != nil {
		status = Status(strings.ToUpper(raw.Status))
	}

	readTime := raw.ReadTime
	if readTime < 1 {
		readTime = EstimateReadTime(raw.Body)
	}

	publishedAt := raw.PublishedAt
	if publishedAt != nil {
		t := publishedAt.UTC()
		publishedAt = &t
	}

	return Post{
		ID:               raw.ID,
		Slug:             raw.Slug,
		Title:            raw.Title,
		Excerpt:          raw.Excerpt,
		Body:             raw.Body,
		FeaturedImageURL: optional(raw.FeaturedImageURL),
		Category: CategoryRef{
			ID:   raw.CategoryID,
			Name: raw.CategoryName,
			Slug: raw.CategorySlug,
		},
		Tags:            tags,
		Status:          status,
		PublishedAt:     publishedAt,
		Featured:        raw.Featured,
		ReadTimeMinutes: readTime,
		MetaTitle:       optional(raw.MetaTitle),
		MetaDescription: optional(raw.MetaDescription),
		Keywords:        keywords,
		Author: AuthorRef{
			ID:        raw.AuthorID,
			Name:      raw.AuthorName,
			Title:     optional(raw.AuthorTitle),
			AvatarURL: optional(raw.AuthorAvatarURL),
		},
		CreatedAt: raw.CreatedAt.UTC(),
		UpdatedAt: raw.UpdatedAt.UTC(),
	}
}

func NormalizePosts(rows []RawPost) []Post {
	posts := make([]Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, NormalizePost(row))
	}
	return posts
}

func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
