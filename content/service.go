package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/errs"
)

const DefaultStorageTimeout = 5 * time.Second

// Service holds the post, category and tag use cases on top of a Store.
type Service struct {
	store   Store
	logger  zerolog.Logger
	timeout time.Duration
	samples []RawPost
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

// WithTimeout bounds every storage call. Hitting it is reported as
// StorageUnavailable.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSamples sets the catalogue served by ListPublic when storage is down.
func WithSamples(rows []RawPost) Option {
	return func(s *Service) {
		s.samples = rows
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  log.With().Str("component", "contentService").Logger(),
		timeout: DefaultStorageTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// storageErr turns a blown deadline into StorageUnavailable. Other errors are
// already classified by the adapter.
func (s *Service) storageErr(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errs.IsStorageUnavailable(err) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return errs.NewStorageUnavailable(fmt.Sprintf("%s timed out after %s", operation, s.timeout), err)
	}
	return err
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// ListPosts resolves req and runs it against storage.
func (s *Service) ListPosts(ctx context.Context, req ListRequest) (ListResult, error) {
	q, err := req.Resolve()
	if err != nil {
		return ListResult{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	rows, total, err := s.store.ListPosts(ctx, q)
	if err != nil {
		return ListResult{}, s.storageErr(ctx, "list posts", err)
	}
	return buildResult(rows, total, q.Page), nil
}

// ListPublic is ListPosts for anonymous readers: when storage is unavailable
// it serves the sample catalogue through the same predicate instead of
// failing. Validation errors still fail.
func (s *Service) ListPublic(ctx context.Context, req ListRequest) (ListResult, error) {
	result, err := s.ListPosts(ctx, req)
	if err == nil || !errs.IsStorageUnavailable(err) {
		return result, err
	}

	s.logger.Warn().Err(err).Int("samples", len(s.samples)).Msg("storage unavailable, serving sample posts")

	q, resolveErr := req.Resolve()
	if resolveErr != nil {
		return ListResult{}, resolveErr
	}
	rows, total := Paginate(s.samples, q)
	result = buildResult(rows, total, q.Page)
	result.Degraded = true
	return result, nil
}

func buildResult(rows []RawPost, total int, page Page) ListResult {
	return ListResult{
		Items: NormalizePosts(rows),
		Pagination: Pagination{
			Page:       page.Number,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: TotalPages(total, page.Limit),
		},
	}
}

// GetPost looks the post up by slug first, then by id. With publicOnly set,
// posts that are not published are reported as not found.
func (s *Service) GetPost(ctx context.Context, idOrSlug string, publicOnly bool) (Post, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return Post{}, errs.NewNotFound("post")
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	raw, err := s.store.FindPost(ctx, BySlug, key)
	if errs.IsNotFound(err) {
		raw, err = s.store.FindPost(ctx, ByID, key)
	}
	if err != nil {
		err = s.storageErr(ctx, "get post", err)
		if publicOnly && errs.IsStorageUnavailable(err) {
			return s.samplePost(key, err)
		}
		return Post{}, err
	}

	if publicOnly && raw.Status != string(StatusPublished) {
		return Post{}, errs.NewNotFound("post")
	}
	return NormalizePost(*raw), nil
}

func (s *Service) samplePost(key string, cause error) (Post, error) {
	for _, row := range s.samples {
		if row.Slug == key || row.ID == key {
			s.logger.Warn().Err(cause).Str("post", key).Msg("storage unavailable, serving sample post")
			return NormalizePost(row), nil
		}
	}
	return Post{}, cause
}

// CreatePost validates d, derives slug and read time and stores the post
// under authorID. A colliding slug is retried with numbered suffixes.
func (s *Service) CreatePost(ctx context.Context, authorID string, d PostDraft) (Post, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	verr := d.Validate()
	if strings.TrimSpace(authorID) == "" {
		verr.Add("authorId", "is required")
	}
	if err := s.checkReferences(ctx, d, verr); err != nil {
		return Post{}, s.storageErr(ctx, "create post", err)
	}
	body, err := d.body()
	if err != nil {
		verr.Add("body", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		return Post{}, err
	}

	now := s.clock()
	rec := draftRecord(d, body)
	rec.ID = s.newID()
	rec.AuthorID = authorID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == StatusPublished {
		rec.PublishedAt = &now
	}

	if err := s.writeWithUniqueSlug(ctx, &rec, Slugify(rec.Title), s.store.CreatePost); err != nil {
		return Post{}, s.storageErr(ctx, "create post", err)
	}

	s.logger.Info().Str("postId", rec.ID).Str("slug", rec.Slug).Msg("post created")
	return s.reload(ctx, rec.ID)
}

// UpdatePost replaces the editable fields of post id. The slug changes only
// with the title; publishedAt is set on first publication and kept when the
// post later leaves PUBLISHED.
func (s *Service) UpdatePost(ctx context.Context, id string, d PostDraft) (Post, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	existing, err := s.store.FindPost(ctx, ByID, id)
	if err != nil {
		return Post{}, s.storageErr(ctx, "update post", err)
	}

	verr := d.Validate()
	if err := s.checkReferences(ctx, d, verr); err != nil {
		return Post{}, s.storageErr(ctx, "update post", err)
	}
	body, err := d.body()
	if err != nil {
		verr.Add("body", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		return Post{}, err
	}

	now := s.clock()
	rec := draftRecord(d, body)
	rec.ID = existing.ID
	rec.AuthorID = existing.AuthorID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = now
	rec.PublishedAt = existing.PublishedAt
	if rec.Status == StatusPublished && rec.PublishedAt == nil {
		rec.PublishedAt = &now
	}

	base := Slugify(rec.Title)
	if rec.Title == existing.Title || base == existing.Slug {
		rec.Slug = existing.Slug
		err = s.store.UpdatePost(ctx, rec)
	} else {
		err = s.writeWithUniqueSlug(ctx, &rec, base, s.store.UpdatePost)
	}
	if err != nil {
		return Post{}, s.storageErr(ctx, "update post", err)
	}

	s.logger.Info().Str("postId", rec.ID).Str("slug", rec.Slug).Msg("post updated")
	return s.reload(ctx, rec.ID)
}

func (s *Service) DeletePost(ctx context.Context, id string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if err := s.store.DeletePost(ctx, id); err != nil {
		return s.storageErr(ctx, "delete post", err)
	}
	s.logger.Info().Str("postId", id).Msg("post deleted")
	return nil
}

func (s *Service) reload(ctx context.Context, id string) (Post, error) {
	raw, err := s.store.FindPost(ctx, ByID, id)
	if err != nil {
		return Post{}, s.storageErr(ctx, "reload post", err)
	}
	return NormalizePost(*raw), nil
}

// writeWithUniqueSlug tries base, then base-1 … base-5, leaving uniqueness to
// the store's constraint.
func (s *Service) writeWithUniqueSlug(ctx context.Context, rec *PostRecord, base string, write func(context.Context, PostRecord) error) error {
	for attempt := 0; attempt <= maxSlugSuffix; attempt++ {
		rec.Slug = slugCandidate(base, attempt)
		err := write(ctx, *rec)
		if err == nil {
			return nil
		}
		if !errs.IsDuplicateSlug(err) {
			return err
		}
		s.logger.Debug().Str("slug", rec.Slug).Msg("slug taken, trying next suffix")
	}
	return errs.NewDuplicateSlug("post", base)
}

// checkReferences reports unknown category and tag ids into verr. Only
// storage failures are returned.
func (s *Service) checkReferences(ctx context.Context, d PostDraft, verr *errs.ValidationError) error {
	if categoryID := strings.TrimSpace(d.CategoryID); categoryID != "" {
		_, err := s.store.FindCategory(ctx, ByID, categoryID)
		switch {
		case errs.IsNotFound(err):
			verr.Add("categoryId", "does not exist")
		case err != nil:
			return err
		}
	}

	ids := d.tagIDs()
	if len(ids) == 0 || verr.Has("tagIds") {
		return nil
	}
	found, err := s.store.FindTags(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(found))
	for _, tag := range found {
		known[tag.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		verr.Addf("tagIds", "unknown tag ids: %s", strings.Join(missing, ", "))
	}
	return nil
}

func draftRecord(d PostDraft, body string) PostRecord {
	return PostRecord{
		Title:            strings.TrimSpace(d.Title),
		Excerpt:          strings.TrimSpace(d.Excerpt),
		Body:             body,
		FeaturedImageURL: trimmed(d.FeaturedImageURL),
		Status:           d.status(),
		Featured:         d.Featured,
		ReadTime:         EstimateReadTime(body),
		MetaTitle:        trimmed(d.MetaTitle),
		MetaDescription:  trimmed(d.MetaDescription),
		Keywords:         SerializeKeywords(d.keywords()),
		CategoryID:       strings.TrimSpace(d.CategoryID),
		TagIDs:           d.tagIDs(),
	}
}
