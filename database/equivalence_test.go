package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/consulting-site-backend/content"
)

// Local, Remote and the in-memory matcher must select, order and count the
// same posts for the same query.
func TestBackendsAgree(t *testing.T) {
	db := newTestDB(t, true)
	local, err := NewLocal(db)
	require.NoError(t, err)
	_, srv := newPipelineServer(t, db)
	remote := newTestRemote(t, srv)

	seed(t, local)
	ctx := context.Background()

	var all []content.RawPost
	for _, status := range []string{"PUBLISHED", "DRAFT", "ARCHIVED"} {
		rows, _, err := local.ListPosts(ctx, query(t, content.ListRequest{Status: status, Limit: content.MaxLimit}))
		require.NoError(t, err)
		all = append(all, rows...)
	}
	require.Len(t, all, 6)

	featured, notFeatured := true, false
	requests := map[string]content.ListRequest{
		"defaults":          {},
		"search":            {Search: "AUTOMATION", Status: "draft"},
		"search percent":    {Search: "50%"},
		"search underscore": {Search: "draft_", Status: "DRAFT"},
		"category":          {Category: "strategy", Status: "ARCHIVED"},
		"tag":               {Tag: "data"},
		"featured":          {Featured: &featured},
		"not featured":      {Featured: &notFeatured},
		"author":            {AuthorID: "u-ana", SortBy: "createdAt", SortOrder: "asc"},
		"title order":       {SortBy: "title", SortOrder: "asc"},
		"updated order":     {Status: "DRAFT", SortBy: "updatedAt"},
		"nulls last asc":    {Status: "DRAFT", SortBy: "publishedAt", SortOrder: "asc"},
		"second page":       {Limit: 2, Page: 2},
		"past the end":      {Limit: 2, Page: 9},
		"no match":          {Category: "nothing"},
	}

	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			q := query(t, req)

			localRows, localTotal, err := local.ListPosts(ctx, q)
			require.NoError(t, err)
			remoteRows, remoteTotal, err := remote.ListPosts(ctx, q)
			require.NoError(t, err)
			memRows, memTotal := content.Paginate(all, q)

			assert.Equal(t, localTotal, remoteTotal)
			assert.Equal(t, localTotal, memTotal)
			assert.Equal(t, slugs(localRows), slugs(memRows))
			assert.Equal(t, content.NormalizePosts(localRows), content.NormalizePosts(remoteRows))
		})
	}
}

func TestLocalReadsRemoteWrites(t *testing.T) {
	db := newTestDB(t, true)
	local, err := NewLocal(db)
	require.NoError(t, err)
	_, srv := newPipelineServer(t, db)
	remote := newTestRemote(t, srv)

	seed(t, remote)
	ctx := context.Background()

	for _, slug := range []string{"ai-readiness", "draft-idea", "old-news"} {
		fromLocal, err := local.FindPost(ctx, content.BySlug, slug)
		require.NoError(t, err)
		fromRemote, err := remote.FindPost(ctx, content.BySlug, slug)
		require.NoError(t, err)
		assert.Equal(t, content.NormalizePost(*fromLocal), content.NormalizePost(*fromRemote), slug)
	}

	localCats, err := local.ListCategories(ctx)
	require.NoError(t, err)
	remoteCats, err := remote.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, localCats, remoteCats)

	localUsers, err := local.ListUsers(ctx)
	require.NoError(t, err)
	remoteUsers, err := remote.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, localUsers, remoteUsers)
}
