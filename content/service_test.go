package content

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/consulting-site-backend/errs"
)

// memStore is an in-memory Store. fail, when set, is returned by every call.
type memStore struct {
	posts      map[string]PostRecord
	categories map[string]Category
	tags       map[string]Tag
	fail       error
	listCalls  int
	blockList  bool
}

func newMemStore() *memStore {
	return &memStore{
		posts:      map[string]PostRecord{},
		categories: map[string]Category{},
		tags:       map[string]Tag{},
	}
}

func (m *memStore) raw(rec PostRecord) RawPost {
	category := m.categories[rec.CategoryID]
	keywords := rec.Keywords
	var tags []RawTag
	for _, id := range rec.TagIDs {
		tag := m.tags[id]
		tags = append(tags, RawTag{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return RawPost{
		ID: rec.ID, Slug: rec.Slug, Title: rec.Title, Excerpt: rec.Excerpt, Body: rec.Body,
		FeaturedImageURL: rec.FeaturedImageURL, Status: string(rec.Status), Featured: rec.Featured,
		ReadTime: rec.ReadTime, PublishedAt: rec.PublishedAt, MetaTitle: rec.MetaTitle,
		MetaDescription: rec.MetaDescription, Keywords: &keywords,
		CategoryID: category.ID, CategoryName: category.Name, CategorySlug: category.Slug,
		AuthorID: rec.AuthorID, AuthorName: "Author " + rec.AuthorID, Tags: tags,
		CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
	}
}

func (m *memStore) ListPosts(ctx context.Context, q Query) ([]RawPost, int, error) {
	m.listCalls++
	if m.blockList {
		<-ctx.Done()
		return nil, 0, ctx.Err()
	}
	if m.fail != nil {
		return nil, 0, m.fail
	}
	rows := make([]RawPost, 0, len(m.posts))
	for _, rec := range m.posts {
		rows = append(rows, m.raw(rec))
	}
	page, total := Paginate(rows, q)
	return page, total, nil
}

func (m *memStore) FindPost(_ context.Context, by LookupField, value string) (*RawPost, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	for _, rec := range m.posts {
		if (by == ByID && rec.ID == value) || (by == BySlug && rec.Slug == value) {
			raw := m.raw(rec)
			return &raw, nil
		}
	}
	return nil, errs.NewNotFound("post")
}

func (m *memStore) slugTaken(slug, exceptID string) bool {
	for _, rec := range m.posts {
		if rec.Slug == slug && rec.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *memStore) CreatePost(_ context.Context, rec PostRecord) error {
	if m.fail != nil {
		return m.fail
	}
	if m.slugTaken(rec.Slug, "") {
		return errs.NewDuplicateSlug("post", rec.Slug)
	}
	m.posts[rec.ID] = rec
	return nil
}

func (m *memStore) UpdatePost(_ context.Context, rec PostRecord) error {
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.posts[rec.ID]; !ok {
		return errs.NewNotFound("post")
	}
	if m.slugTaken(rec.Slug, rec.ID) {
		return errs.NewDuplicateSlug("post", rec.Slug)
	}
	m.posts[rec.ID] = rec
	return nil
}

func (m *memStore) DeletePost(_ context.Context, id string) error {
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.posts[id]; !ok {
		return errs.NewNotFound("post")
	}
	delete(m.posts, id)
	return nil
}

func (m *memStore) ListCategories(context.Context) ([]Category, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	var out []Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) FindCategory(_ context.Context, by LookupField, value string) (*Category, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	for _, c := range m.categories {
		if (by == ByID && c.ID == value) || (by == BySlug && c.Slug == value) {
			for _, rec := range m.posts {
				if rec.CategoryID == c.ID {
					c.PostCount++
				}
			}
			return &c, nil
		}
	}
	return nil, errs.NewNotFound("category")
}

func (m *memStore) CreateCategory(_ context.Context, c Category) error {
	if m.fail != nil {
		return m.fail
	}
	for _, existing := range m.categories {
		if existing.Slug == c.Slug {
			return errs.NewDuplicateSlug("category", c.Slug)
		}
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, c Category) error {
	m.categories[c.ID] = c
	return m.fail
}

func (m *memStore) DeleteCategory(_ context.Context, id string) error {
	delete(m.categories, id)
	return m.fail
}

func (m *memStore) ListTags(context.Context) ([]Tag, error) {
	var out []Tag
	for _, t := range m.tags {
		out = append(out, t)
	}
	return out, m.fail
}

func (m *memStore) FindTags(_ context.Context, ids []string) ([]Tag, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	var out []Tag
	for _, id := range ids {
		if t, ok := m.tags[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) FindTag(_ context.Context, by LookupField, value string) (*Tag, error) {
	for _, t := range m.tags {
		if (by == ByID && t.ID == value) || (by == BySlug && t.Slug == value) {
			return &t, nil
		}
	}
	return nil, errs.NewNotFound("tag")
}

func (m *memStore) CreateTag(_ context.Context, t Tag) error {
	m.tags[t.ID] = t
	return m.fail
}

func (m *memStore) UpdateTag(_ context.Context, t Tag) error {
	m.tags[t.ID] = t
	return m.fail
}

func (m *memStore) DeleteTag(_ context.Context, id string) error {
	if _, ok := m.tags[id]; !ok {
		return errs.NewNotFound("tag")
	}
	delete(m.tags, id)
	for pid, rec := range m.posts {
		var kept []string
		for _, tid := range rec.TagIDs {
			if tid != id {
				kept = append(kept, tid)
			}
		}
		rec.TagIDs = kept
		m.posts[pid] = rec
	}
	return nil
}

func fieldsOf(items []errs.FieldError) []string {
	fields := make([]string, 0, len(items))
	for _, item := range items {
		fields = append(fields, item.Field)
	}
	return fields
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *memStore, opts ...Option) *Service {
	n := 0
	defaults := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%02d", n) }),
	}
	return NewService(store, append(defaults, opts...)...)
}

func seedTaxonomy(store *memStore) {
	store.categories["cat-1"] = Category{ID: "cat-1", Name: "Strategy", Slug: "strategy"}
	store.tags["tag-1"] = Tag{ID: "tag-1", Name: "AI", Slug: "ai"}
	store.tags["tag-2"] = Tag{ID: "tag-2", Name: "Data", Slug: "data"}
}

func TestCreatePost(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)

	d := validDraft()
	d.TagIDs = []string{"tag-2", "tag-1"}
	post, err := svc.CreatePost(context.Background(), "author-1", d)
	require.NoError(t, err)

	assert.Equal(t, "id-01", post.ID)
	assert.Equal(t, "five-signs-your-team-needs-automation", post.Slug)
	assert.Equal(t, StatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
	assert.True(t, fixedNow.Equal(*post.PublishedAt))
	assert.Equal(t, []string{"AI", "Data"}, post.Tags)
	assert.Equal(t, []string{"automation"}, post.Keywords)
	assert.Equal(t, "strategy", post.Category.Slug)
	assert.Equal(t, "author-1", post.Author.ID)
	assert.Equal(t, 1, post.ReadTimeMinutes)
}

func TestCreatePostDraftHasNoPublishedAt(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)

	d := validDraft()
	d.Status = ""
	post, err := svc.CreatePost(context.Background(), "author-1", d)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)
}

func TestCreatePostRetriesSlugSuffixes(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)
	ctx := context.Background()

	var slugs []string
	for i := 0; i < 6; i++ {
		post, err := svc.CreatePost(ctx, "author-1", validDraft())
		require.NoError(t, err)
		slugs = append(slugs, post.Slug)
	}
	assert.Equal(t, []string{
		"five-signs-your-team-needs-automation",
		"five-signs-your-team-needs-automation-1",
		"five-signs-your-team-needs-automation-2",
		"five-signs-your-team-needs-automation-3",
		"five-signs-your-team-needs-automation-4",
		"five-signs-your-team-needs-automation-5",
	}, slugs)

	_, err := svc.CreatePost(ctx, "author-1", validDraft())
	assert.True(t, errs.IsDuplicateSlug(err))
	assert.Len(t, store.posts, 6)
}

func TestCreatePostReportsUnknownReferencesWithOtherErrors(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)

	d := validDraft()
	d.Excerpt = "short"
	d.CategoryID = "missing"
	d.TagIDs = []string{"tag-1", "ghost"}

	_, err := svc.CreatePost(context.Background(), "author-1", d)
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"excerpt", "categoryId", "tagIds"}, fieldsOf(verr.Items))
	assert.Empty(t, store.posts)
}

func TestCreatePostRendersMarkdown(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)

	d := validDraft()
	d.ContentFormat = FormatMarkdown
	d.Body = "## Why\n\nBecause."
	post, err := svc.CreatePost(context.Background(), "author-1", d)
	require.NoError(t, err)
	assert.Equal(t, "<h2 id=\"why\">Why</h2>\n<p>Because.</p>\n", post.Body)
}

func TestUpdatePost(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, "author-1", validDraft())
	require.NoError(t, err)
	publishedAt := *created.PublishedAt

	t.Run("same title keeps slug", func(t *testing.T) {
		d := validDraft()
		d.Body = "<p>Changed body</p>"
		post, err := svc.UpdatePost(ctx, created.ID, d)
		require.NoError(t, err)
		assert.Equal(t, created.Slug, post.Slug)
		assert.Equal(t, "<p>Changed body</p>", post.Body)
		assert.Equal(t, "author-1", post.Author.ID)
	})

	t.Run("new title derives new slug", func(t *testing.T) {
		d := validDraft()
		d.Title = "A Brand New Title"
		post, err := svc.UpdatePost(ctx, created.ID, d)
		require.NoError(t, err)
		assert.Equal(t, "a-brand-new-title", post.Slug)
	})

	t.Run("unpublishing keeps publishedAt", func(t *testing.T) {
		d := validDraft()
		d.Title = "A Brand New Title"
		d.Status = "ARCHIVED"
		post, err := svc.UpdatePost(ctx, created.ID, d)
		require.NoError(t, err)
		assert.Equal(t, StatusArchived, post.Status)
		require.NotNil(t, post.PublishedAt)
		assert.True(t, publishedAt.Equal(*post.PublishedAt))
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := svc.UpdatePost(ctx, "nope", validDraft())
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestUpdatePostFirstPublicationSetsPublishedAt(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)
	ctx := context.Background()

	d := validDraft()
	d.Status = "DRAFT"
	created, err := svc.CreatePost(ctx, "author-1", d)
	require.NoError(t, err)
	require.Nil(t, created.PublishedAt)

	d.Status = "PUBLISHED"
	post, err := svc.UpdatePost(ctx, created.ID, d)
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.True(t, fixedNow.Equal(*post.PublishedAt))
}

func TestGetPost(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)
	ctx := context.Background()

	published, err := svc.CreatePost(ctx, "author-1", validDraft())
	require.NoError(t, err)
	d := validDraft()
	d.Title = "Still a draft"
	d.Status = "DRAFT"
	draft, err := svc.CreatePost(ctx, "author-1", d)
	require.NoError(t, err)

	bySlug, err := svc.GetPost(ctx, published.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, published.ID, bySlug.ID)

	byID, err := svc.GetPost(ctx, published.ID, true)
	require.NoError(t, err)
	assert.Equal(t, published.Slug, byID.Slug)

	_, err = svc.GetPost(ctx, draft.Slug, true)
	assert.True(t, errs.IsNotFound(err))

	got, err := svc.GetPost(ctx, draft.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Status)

	_, err = svc.GetPost(ctx, "missing", false)
	assert.True(t, errs.IsNotFound(err))
}

func TestDeletePost(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "author-1", validDraft())
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(ctx, post.ID))
	assert.True(t, errs.IsNotFound(svc.DeletePost(ctx, post.ID)))
}

func TestListPosts(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		d := validDraft()
		d.Title = fmt.Sprintf("Post number %02d", i)
		_, err := svc.CreatePost(ctx, "author-1", d)
		require.NoError(t, err)
	}

	result, err := svc.ListPosts(ctx, ListRequest{Page: 2, Limit: 5, SortBy: "title", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 2, Limit: 5, Total: 12, TotalPages: 3}, result.Pagination)
	require.Len(t, result.Items, 5)
	assert.Equal(t, "Post number 05", result.Items[0].Title)
	assert.False(t, result.Degraded)

	_, err = svc.ListPosts(ctx, ListRequest{SortBy: "views"})
	assert.True(t, errs.IsValidation(err))
}

func TestListPostsDeadlineIsStorageUnavailable(t *testing.T) {
	store := newMemStore()
	store.blockList = true
	svc := newTestService(store, WithTimeout(10*time.Millisecond))

	_, err := svc.ListPosts(context.Background(), ListRequest{})
	assert.True(t, errs.IsStorageUnavailable(err))
}

func TestListPublicFallsBackToSamples(t *testing.T) {
	samples, err := LoadSamples("")
	require.NoError(t, err)

	store := newMemStore()
	store.fail = errs.NewStorageUnavailable("connection refused", nil)
	svc := newTestService(store, WithSamples(samples))
	ctx := context.Background()

	result, err := svc.ListPublic(ctx, ListRequest{Tag: "automation"})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, 2, result.Pagination.Total)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "mapping-processes-before-you-automate", result.Items[0].Slug)
	assert.Equal(t, "measuring-the-roi-of-automation", result.Items[1].Slug)

	_, err = svc.ListPublic(ctx, ListRequest{Status: "bogus"})
	assert.True(t, errs.IsValidation(err))

	_, err = svc.ListPosts(ctx, ListRequest{})
	assert.True(t, errs.IsStorageUnavailable(err))

	post, err := svc.GetPost(ctx, "a-weekend-crm-cleanup", true)
	require.NoError(t, err)
	assert.Equal(t, "sample-crm-cleanup", post.ID)

	_, err = svc.GetPost(ctx, "a-weekend-crm-cleanup", false)
	assert.True(t, errs.IsStorageUnavailable(err))
}

func TestListPublicDoesNotHideOtherErrors(t *testing.T) {
	store := newMemStore()
	store.fail = errs.NewInternalErrorWithCause("boom", nil)
	svc := newTestService(store)

	_, err := svc.ListPublic(context.Background(), ListRequest{})
	require.Error(t, err)
	assert.False(t, errs.IsStorageUnavailable(err))
}

func TestCategoryLifecycle(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CategoryDraft{Name: "Growth Strategy", Color: strPtr("#112233")})
	require.NoError(t, err)
	assert.Equal(t, "growth-strategy", category.Slug)

	_, err = svc.CreateCategory(ctx, CategoryDraft{Name: "Growth  strategy"})
	assert.True(t, errs.IsDuplicateSlug(err))

	got, err := svc.GetCategory(ctx, "growth-strategy")
	require.NoError(t, err)
	assert.Equal(t, category.ID, got.ID)

	store.tags["tag-1"] = Tag{ID: "tag-1", Name: "AI", Slug: "ai"}
	d := validDraft()
	d.CategoryID = category.ID
	d.TagIDs = nil
	_, err = svc.CreatePost(ctx, "author-1", d)
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, category.ID)
	assert.True(t, errs.IsCategoryInUse(err))
	assert.Equal(t, 409, errs.StatusCode(err))

	updated, err := svc.UpdateCategory(ctx, category.ID, CategoryDraft{Name: "Growth"})
	require.NoError(t, err)
	assert.Equal(t, "growth", updated.Slug)
	assert.Nil(t, updated.Color)
}

func TestTagLifecycle(t *testing.T) {
	store := newMemStore()
	seedTaxonomy(store)
	svc := newTestService(store)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, TagDraft{Name: "Machine Learning"})
	require.NoError(t, err)
	assert.Equal(t, "machine-learning", tag.Slug)

	d := validDraft()
	d.TagIDs = []string{tag.ID, "tag-1"}
	post, err := svc.CreatePost(ctx, "author-1", d)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "Machine Learning"}, post.Tags)

	require.NoError(t, svc.DeleteTag(ctx, tag.ID))
	got, err := svc.GetPost(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI"}, got.Tags)

	_, err = svc.UpdateTag(ctx, tag.ID, TagDraft{Name: "ML"})
	assert.True(t, errs.IsNotFound(err))
}
