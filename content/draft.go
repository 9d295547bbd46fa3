package content

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rpupo63/consulting-site-backend/errs"
)

const (
	maxTitleRunes           = 200
	minExcerptRunes         = 50
	maxExcerptRunes         = 300
	maxMetaTitleRunes       = 70
	maxMetaDescriptionRunes = 160
	maxKeywordRunes         = 60
)

// PostDraft is the payload for creating or replacing a post.
type PostDraft struct {
	Title            string   `json:"title"`
	Excerpt          string   `json:"excerpt"`
	Body             string   `json:"body"`
	ContentFormat    string   `json:"contentFormat,omitempty"`
	CategoryID       string   `json:"categoryId"`
	TagIDs           []string `json:"tagIds"`
	Featured         bool     `json:"featured"`
	Status           string   `json:"status"`
	FeaturedImageURL *string  `json:"featuredImageUrl,omitempty"`
	MetaTitle        *string  `json:"metaTitle,omitempty"`
	MetaDescription  *string  `json:"metaDescription,omitempty"`
	Keywords         []string `json:"keywords"`
}

// Validate checks every field and returns all failures together. It does not
// consult storage; category and tag existence are checked by the service.
func (d PostDraft) Validate() *errs.ValidationError {
	verr := &errs.ValidationError{}

	title := strings.TrimSpace(d.Title)
	switch {
	case title == "":
		verr.Add("title", "is required")
	case utf8.RuneCountInString(title) > maxTitleRunes:
		verr.Addf("title", "must be at most %d characters", maxTitleRunes)
	case Slugify(title) == "":
		verr.Add("title", "must contain at least one letter or digit")
	}

	excerpt := utf8.RuneCountInString(strings.TrimSpace(d.Excerpt))
	if excerpt < minExcerptRunes || excerpt > maxExcerptRunes {
		verr.Addf("excerpt", "must be between %d and %d characters", minExcerptRunes, maxExcerptRunes)
	}

	if strings.TrimSpace(d.Body) == "" {
		verr.Add("body", "is required")
	}

	switch strings.ToLower(strings.TrimSpace(d.ContentFormat)) {
	case "", FormatHTML, FormatMarkdown:
	default:
		verr.Addf("contentFormat", "unsupported format %q (allowed: html, markdown)", d.ContentFormat)
	}

	if strings.TrimSpace(d.CategoryID) == "" {
		verr.Add("categoryId", "is required")
	}

	for _, id := range d.TagIDs {
		if strings.TrimSpace(id) == "" {
			verr.Add("tagIds", "must not contain blank ids")
			break
		}
	}

	if strings.TrimSpace(d.Status) != "" {
		if _, err := ParseStatus(d.Status); err != nil {
			verr.Add("status", err.Error())
		}
	}

	if d.FeaturedImageURL != nil && strings.TrimSpace(*d.FeaturedImageURL) != "" {
		if !isAbsoluteHTTPURL(strings.TrimSpace(*d.FeaturedImageURL)) {
			verr.Add("featuredImageUrl", "must be an absolute http(s) URL")
		}
	}

	if d.MetaTitle != nil && utf8.RuneCountInString(strings.TrimSpace(*d.MetaTitle)) > maxMetaTitleRunes {
		verr.Addf("metaTitle", "must be at most %d characters", maxMetaTitleRunes)
	}
	if d.MetaDescription != nil && utf8.RuneCountInString(strings.TrimSpace(*d.MetaDescription)) > maxMetaDescriptionRunes {
		verr.Addf("metaDescription", "must be at most %d characters", maxMetaDescriptionRunes)
	}

	for _, keyword := range d.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			verr.Add("keywords", "must not contain blank entries")
			break
		}
		if utf8.RuneCountInString(keyword) > maxKeywordRunes {
			verr.Addf("keywords", "entries must be at most %d characters", maxKeywordRunes)
			break
		}
	}

	return verr
}

func (d PostDraft) status() Status {
	if strings.TrimSpace(d.Status) == "" {
		return StatusDraft
	}
	status, _ := ParseStatus(d.Status)
	return status
}

// tagIDs trims and de-duplicates the tag ids, keeping first occurrence order.
func (d PostDraft) tagIDs() []string {
	seen := make(map[string]bool, len(d.TagIDs))
	ids := make([]string, 0, len(d.TagIDs))
	for _, id := range d.TagIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (d PostDraft) keywords() []string {
	keywords := make([]string, 0, len(d.Keywords))
	for _, keyword := range d.Keywords {
		keywords = append(keywords, strings.TrimSpace(keyword))
	}
	return keywords
}

// body returns the stored HTML for the draft body.
func (d PostDraft) body() (string, error) {
	if strings.EqualFold(strings.TrimSpace(d.ContentFormat), FormatMarkdown) {
		return RenderMarkdown(d.Body)
	}
	return d.Body, nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// trimmed returns nil for absent or blank values and a trimmed copy otherwise.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
