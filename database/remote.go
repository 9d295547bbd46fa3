package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/content"
)

//go:embed schema.sql
var schemaSQL string

type RemoteConfig struct {
	URL        string
	AuthToken  string
	HTTPClient *http.Client
}

// Remote keeps content in a libSQL database reached over HTTP.
type Remote struct {
	client *hranaClient
	logger zerolog.Logger
}

func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("remote database url is required")
	}
	return &Remote{
		client: newHranaClient(cfg.URL, cfg.AuthToken, cfg.HTTPClient),
		logger: log.With().Str("component", "remoteStore").Logger(),
	}, nil
}

// EnsureSchema creates any missing table or index.
func (r *Remote) EnsureSchema(ctx context.Context) error {
	var stmts []hranaStmt
	for _, part := range strings.Split(schemaSQL, ";") {
		if sql := strings.TrimSpace(part); sql != "" {
			stmts = append(stmts, hranaStmt{SQL: sql})
		}
	}
	_, err := r.client.transaction(ctx, stmts...)
	return storeErr("create", "schema", err)
}

func (r *Remote) Ping(ctx context.Context) error {
	_, err := r.client.execute(ctx, stmt("SELECT 1"))
	return storeErr("ping", "database", err)
}

func (r *Remote) Close() error {
	r.client.http.CloseIdleConnections()
	return nil
}

const postSelectSQL = `SELECT posts.id, posts.slug, posts.title, posts.excerpt, posts.body,
  posts.featured_image_url, posts.status, posts.featured, posts.read_time, posts.published_at,
  posts.meta_title, posts.meta_description, posts.keywords, posts.category_id, posts.author_id,
  posts.created_at, posts.updated_at,
  categories.name AS category_name, categories.slug AS category_slug,
  users.name AS author_name, users.title AS author_title, users.avatar_url AS author_avatar_url
FROM posts
LEFT JOIN categories ON categories.id = posts.category_id
LEFT JOIN users ON users.id = posts.author_id`

const postTagsSQL = `SELECT post_tags.post_id AS post_id, tags.id AS id, tags.name AS name, tags.slug AS slug
FROM post_tags JOIN tags ON tags.id = post_tags.tag_id
WHERE post_tags.post_id IN (%s)
ORDER BY tags.name ASC, tags.id ASC`

// ListPosts sends the page, the count and the page's tags in one pipeline.
func (r *Remote) ListPosts(ctx context.Context, q content.Query) ([]content.RawPost, int, error) {
	where, args, err := filterSQL(q.Predicate)
	if err != nil {
		return nil, 0, err
	}
	order, err := orderSQL(q.Sort)
	if err != nil {
		return nil, 0, err
	}

	pageArgs := append(append([]any{}, args...), q.Page.Limit, q.Page.Offset())
	pageIDs := fmt.Sprintf("SELECT posts.id FROM posts WHERE %s ORDER BY %s LIMIT ? OFFSET ?", where, order)

	sets, err := r.client.execute(ctx,
		stmt(fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT ? OFFSET ?", postSelectSQL, where, order), pageArgs...),
		stmt(fmt.Sprintf("SELECT COUNT(*) AS total FROM posts WHERE %s", where), args...),
		stmt(fmt.Sprintf(postTagsSQL, pageIDs), pageArgs...),
	)
	if err != nil {
		return nil, 0, storeErr("list", entityPost, err)
	}

	rows := postsFromRecords(sets[0].records(), sets[2].records())
	total := 0
	if counts := sets[1].records(); len(counts) > 0 {
		total = int(counts[0].int("total"))
	}
	r.logger.Debug().Int("rows", len(rows)).Int("total", total).Msg("listed posts")
	return rows, total, nil
}

func (r *Remote) FindPost(ctx context.Context, by content.LookupField, value string) (*content.RawPost, error) {
	column, err := lookupColumn(by)
	if err != nil {
		return nil, err
	}
	sets, err := r.client.execute(ctx,
		stmt(fmt.Sprintf("%s WHERE %s = ? LIMIT 1", postSelectSQL, column), value),
		stmt(fmt.Sprintf(postTagsSQL, "SELECT posts.id FROM posts WHERE "+column+" = ?"), value),
	)
	if err != nil {
		return nil, storeErr("find", entityPost, err)
	}
	rows := postsFromRecords(sets[0].records(), sets[1].records())
	if len(rows) == 0 {
		return nil, storeErr("find", entityPost, errNoRows)
	}
	return &rows[0], nil
}

// postsFromRecords builds posts in row order and attaches tags by post id.
func postsFromRecords(postRecs, tagRecs []record) []content.RawPost {
	tagsByPost := make(map[string][]content.RawTag, len(postRecs))
	for _, t := range tagRecs {
		postID := t.str("post_id")
		tagsByPost[postID] = append(tagsByPost[postID], content.RawTag{
			ID:   t.str("id"),
			Name: t.str("name"),
			Slug: t.str("slug"),
		})
	}

	rows := make([]content.RawPost, 0, len(postRecs))
	for _, p := range postRecs {
		id := p.str("id")
		tags := tagsByPost[id]
		if tags == nil {
			tags = []content.RawTag{}
		}
		rows = append(rows, content.RawPost{
			ID:               id,
			Slug:             p.str("slug"),
			Title:            p.str("title"),
			Excerpt:          p.str("excerpt"),
			Body:             p.str("body"),
			FeaturedImageURL: p.optStr("featured_image_url"),
			Status:           p.str("status"),
			Featured:         p.bool("featured"),
			ReadTime:         int(p.int("read_time")),
			PublishedAt:      p.optTime("published_at"),
			MetaTitle:        p.optStr("meta_title"),
			MetaDescription:  p.optStr("meta_description"),
			Keywords:         p.optStr("keywords"),
			CategoryID:       p.str("category_id"),
			CategoryName:     p.str("category_name"),
			CategorySlug:     p.str("category_slug"),
			AuthorID:         p.str("author_id"),
			AuthorName:       p.str("author_name"),
			AuthorTitle:      p.optStr("author_title"),
			AuthorAvatarURL:  p.optStr("author_avatar_url"),
			Tags:             tags,
			CreatedAt:        p.time("created_at"),
			UpdatedAt:        p.time("updated_at"),
		})
	}
	return rows
}

const insertPostSQL = `INSERT INTO posts (id, slug, title, excerpt, body, featured_image_url, status, featured,
  read_time, published_at, meta_title, meta_description, keywords, category_id, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updatePostSQL = `UPDATE posts SET slug = ?, title = ?, excerpt = ?, body = ?, featured_image_url = ?,
  status = ?, featured = ?, read_time = ?, published_at = ?, meta_title = ?, meta_description = ?,
  keywords = ?, category_id = ?, updated_at = ?
WHERE id = ?`

func (r *Remote) CreatePost(ctx context.Context, rec content.PostRecord) error {
	stmts := []hranaStmt{stmt(insertPostSQL,
		rec.ID, rec.Slug, rec.Title, rec.Excerpt, rec.Body, rec.FeaturedImageURL, string(rec.Status), rec.Featured,
		rec.ReadTime, rec.PublishedAt, rec.MetaTitle, rec.MetaDescription, nullIfEmpty(rec.Keywords), rec.CategoryID, rec.AuthorID,
		rec.CreatedAt, rec.UpdatedAt,
	)}
	if tags, ok := insertPostTagsStmt(rec.ID, rec.TagIDs); ok {
		stmts = append(stmts, tags)
	}
	_, err := r.client.transaction(ctx, stmts...)
	return storeErr("create", entityPost, err)
}

func (r *Remote) UpdatePost(ctx context.Context, rec content.PostRecord) error {
	stmts := []hranaStmt{
		stmt(updatePostSQL,
			rec.Slug, rec.Title, rec.Excerpt, rec.Body, rec.FeaturedImageURL, string(rec.Status), rec.Featured,
			rec.ReadTime, rec.PublishedAt, rec.MetaTitle, rec.MetaDescription, nullIfEmpty(rec.Keywords), rec.CategoryID,
			rec.UpdatedAt, rec.ID,
		),
		stmt("DELETE FROM post_tags WHERE post_id = ?", rec.ID),
	}
	if tags, ok := insertPostTagsStmt(rec.ID, rec.TagIDs); ok {
		stmts = append(stmts, tags)
	}
	sets, err := r.client.transaction(ctx, stmts...)
	if err == nil && sets[0].affected == 0 {
		err = errNoRows
	}
	return storeErr("update", entityPost, err)
}

func (r *Remote) DeletePost(ctx context.Context, id string) error {
	sets, err := r.client.transaction(ctx,
		stmt("DELETE FROM post_tags WHERE post_id = ?", id),
		stmt("DELETE FROM posts WHERE id = ?", id),
	)
	if err == nil && sets[1].affected == 0 {
		err = errNoRows
	}
	return storeErr("delete", entityPost, err)
}

func insertPostTagsStmt(postID string, tagIDs []string) (hranaStmt, bool) {
	if len(tagIDs) == 0 {
		return hranaStmt{}, false
	}
	placeholders := make([]string, 0, len(tagIDs))
	args := make([]any, 0, 2*len(tagIDs))
	for _, tagID := range tagIDs {
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, postID, tagID)
	}
	return stmt("INSERT INTO post_tags (post_id, tag_id) VALUES "+strings.Join(placeholders, ", "), args...), true
}

// nullIfEmpty stores an empty keyword list the way gorm stores an empty
// datatypes.JSON.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
