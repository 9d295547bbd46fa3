package content

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed sample_posts.yaml
var embeddedSamples []byte

type sampleFile struct {
	Posts []samplePost `yaml:"posts"`
}

type sampleRef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type samplePost struct {
	ID               string      `yaml:"id"`
	Slug             string      `yaml:"slug"`
	Title            string      `yaml:"title"`
	Excerpt          string      `yaml:"excerpt"`
	Body             string      `yaml:"body"`
	FeaturedImageURL *string     `yaml:"featuredImageUrl"`
	Featured         bool        `yaml:"featured"`
	PublishedAt      time.Time   `yaml:"publishedAt"`
	MetaTitle        *string     `yaml:"metaTitle"`
	MetaDescription  *string     `yaml:"metaDescription"`
	Keywords         []string    `yaml:"keywords"`
	Category         sampleRef   `yaml:"category"`
	Tags             []sampleRef `yaml:"tags"`
	Author           struct {
		ID    string  `yaml:"id"`
		Name  string  `yaml:"name"`
		Title *string `yaml:"title"`
	} `yaml:"author"`
}

// LoadSamples reads the fallback catalogue from path, or the built-in one when
// path is empty. Every sample is a published post.
func LoadSamples(path string) ([]RawPost, error) {
	data := embeddedSamples
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading sample posts: %w", err)
		}
	}
	return ParseSamples(data)
}

func ParseSamples(data []byte) ([]RawPost, error) {
	var file sampleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding sample posts: %w", err)
	}

	rows := make([]RawPost, 0, len(file.Posts))
	for i, p := range file.Posts {
		if p.ID == "" || p.Title == "" {
			return nil, fmt.Errorf("sample post %d: id and title are required", i)
		}
		slug := p.Slug
		if slug == "" {
			slug = Slugify(p.Title)
		}
		publishedAt := p.PublishedAt.UTC()
		keywords := SerializeKeywords(p.Keywords)

		tags := make([]RawTag, 0, len(p.Tags))
		for _, t := range p.Tags {
			tags = append(tags, RawTag{ID: t.ID, Name: t.Name, Slug: t.Slug})
		}

		rows = append(rows, RawPost{
			ID:               p.ID,
			Slug:             slug,
			Title:            p.Title,
			Excerpt:          p.Excerpt,
			Body:             p.Body,
			FeaturedImageURL: p.FeaturedImageURL,
			Status:           string(StatusPublished),
			Featured:         p.Featured,
			ReadTime:         EstimateReadTime(p.Body),
			PublishedAt:      &publishedAt,
			MetaTitle:        p.MetaTitle,
			MetaDescription:  p.MetaDescription,
			Keywords:         &keywords,
			CategoryID:       p.Category.ID,
			CategoryName:     p.Category.Name,
			CategorySlug:     p.Category.Slug,
			AuthorID:         p.Author.ID,
			AuthorName:       p.Author.Name,
			AuthorTitle:      p.Author.Title,
			Tags:             tags,
			CreatedAt:        publishedAt,
			UpdatedAt:        publishedAt,
		})
	}
	return rows, nil
}
