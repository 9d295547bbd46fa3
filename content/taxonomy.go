package content

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rpupo63/consulting-site-backend/errs"
)

const (
	maxCategoryNameRunes = 100
	maxDescriptionRunes  = 500
	maxTagNameRunes      = 60
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type CategoryDraft struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func (d CategoryDraft) Validate() *errs.ValidationError {
	verr := &errs.ValidationError{}
	validateName(verr, d.Name, maxCategoryNameRunes)
	if d.Description != nil && utf8.RuneCountInString(strings.TrimSpace(*d.Description)) > maxDescriptionRunes {
		verr.Addf("description", "must be at most %d characters", maxDescriptionRunes)
	}
	if color := trimmed(d.Color); color != nil && !colorPattern.MatchString(*color) {
		verr.Add("color", "must be a hex color like #1a2b3c")
	}
	return verr
}

type TagDraft struct {
	Name string `json:"name"`
}

func (d TagDraft) Validate() *errs.ValidationError {
	verr := &errs.ValidationError{}
	validateName(verr, d.Name, maxTagNameRunes)
	return verr
}

func validateName(verr *errs.ValidationError, name string, limit int) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		verr.Add("name", "is required")
	case utf8.RuneCountInString(name) > limit:
		verr.Addf("name", "must be at most %d characters", limit)
	case Slugify(name) == "":
		verr.Add("name", "must contain at least one letter or digit")
	}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, s.storageErr(ctx, "list categories", err)
	}
	return categories, nil
}

// GetCategory looks the category up by slug, then by id.
func (s *Service) GetCategory(ctx context.Context, idOrSlug string) (Category, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	key := strings.TrimSpace(idOrSlug)
	category, err := s.store.FindCategory(ctx, BySlug, key)
	if errs.IsNotFound(err) {
		category, err = s.store.FindCategory(ctx, ByID, key)
	}
	if err != nil {
		return Category{}, s.storageErr(ctx, "get category", err)
	}
	return *category, nil
}

func (s *Service) CreateCategory(ctx context.Context, d CategoryDraft) (Category, error) {
	if err := d.Validate().OrNil(); err != nil {
		return Category{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	now := s.clock()
	category := Category{
		ID:          s.newID(),
		Name:        strings.TrimSpace(d.Name),
		Slug:        Slugify(d.Name),
		Description: trimmed(d.Description),
		Color:       trimmed(d.Color),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return Category{}, s.storageErr(ctx, "create category", err)
	}
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, d CategoryDraft) (Category, error) {
	if err := d.Validate().OrNil(); err != nil {
		return Category{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	existing, err := s.store.FindCategory(ctx, ByID, id)
	if err != nil {
		return Category{}, s.storageErr(ctx, "update category", err)
	}

	existing.Name = strings.TrimSpace(d.Name)
	existing.Slug = Slugify(d.Name)
	existing.Description = trimmed(d.Description)
	existing.Color = trimmed(d.Color)
	existing.UpdatedAt = s.clock()
	if err := s.store.UpdateCategory(ctx, *existing); err != nil {
		return Category{}, s.storageErr(ctx, "update category", err)
	}
	return *existing, nil
}

// DeleteCategory refuses while any post still references the category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	category, err := s.store.FindCategory(ctx, ByID, id)
	if err != nil {
		return s.storageErr(ctx, "delete category", err)
	}
	if category.PostCount > 0 {
		return errs.NewCategoryInUse(category.Slug, category.PostCount)
	}

	err = s.store.DeleteCategory(ctx, id)
	if errs.IsForeignKeyConstraintError(err) {
		return errs.NewCategoryInUse(category.Slug, 1)
	}
	return s.storageErr(ctx, "delete category", err)
}

func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, s.storageErr(ctx, "list tags", err)
	}
	return tags, nil
}

func (s *Service) GetTag(ctx context.Context, idOrSlug string) (Tag, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	key := strings.TrimSpace(idOrSlug)
	tag, err := s.store.FindTag(ctx, BySlug, key)
	if errs.IsNotFound(err) {
		tag, err = s.store.FindTag(ctx, ByID, key)
	}
	if err != nil {
		return Tag{}, s.storageErr(ctx, "get tag", err)
	}
	return *tag, nil
}

func (s *Service) CreateTag(ctx context.Context, d TagDraft) (Tag, error) {
	if err := d.Validate().OrNil(); err != nil {
		return Tag{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	now := s.clock()
	tag := Tag{
		ID:        s.newID(),
		Name:      strings.TrimSpace(d.Name),
		Slug:      Slugify(d.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return Tag{}, s.storageErr(ctx, "create tag", err)
	}
	return tag, nil
}

func (s *Service) UpdateTag(ctx context.Context, id string, d TagDraft) (Tag, error) {
	if err := d.Validate().OrNil(); err != nil {
		return Tag{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	existing, err := s.store.FindTag(ctx, ByID, id)
	if err != nil {
		return Tag{}, s.storageErr(ctx, "update tag", err)
	}

	existing.Name = strings.TrimSpace(d.Name)
	existing.Slug = Slugify(d.Name)
	existing.UpdatedAt = s.clock()
	if err := s.store.UpdateTag(ctx, *existing); err != nil {
		return Tag{}, s.storageErr(ctx, "update tag", err)
	}
	return *existing, nil
}

// DeleteTag removes the tag and detaches it from every post.
func (s *Service) DeleteTag(ctx context.Context, id string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	return s.storageErr(ctx, "delete tag", s.store.DeleteTag(ctx, id))
}
