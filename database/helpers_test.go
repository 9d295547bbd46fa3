package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/content"
	"github.com/rpupo63/consulting-site-backend/models"
)

// newTestDB opens a private in-memory SQLite database on a single connection
// so gorm and the fake pipeline server see the same data.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if migrate {
		require.NoError(t, models.Migrate(db))
	}
	return db
}

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	local, err := NewLocal(newTestDB(t, true))
	require.NoError(t, err)
	return local
}

// pipelineServer answers the libSQL HTTP pipeline protocol by running every
// statement on db.
type pipelineServer struct {
	db       *sql.DB
	mu       sync.Mutex
	requests int
	token    string
}

func newPipelineServer(t *testing.T, db *gorm.DB) (*pipelineServer, *httptest.Server) {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	ps := &pipelineServer{db: sqlDB, token: "test-token"}
	srv := httptest.NewServer(ps)
	t.Cleanup(srv.Close)
	return ps, srv
}

func newTestRemote(t *testing.T, srv *httptest.Server) *Remote {
	t.Helper()
	remote, err := NewRemote(RemoteConfig{URL: srv.URL, AuthToken: "test-token", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return remote
}

func (s *pipelineServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	if r.URL.Path != "/v2/pipeline" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req hranaPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := hranaPipelineResponse{Results: make([]hranaStreamResult, 0, len(req.Requests))}
	for _, item := range req.Requests {
		switch item.Type {
		case "execute":
			result, err := s.run(r.Context(), *item.Stmt)
			if err != nil {
				resp.Results = append(resp.Results, hranaStreamResult{Type: "error", Error: err})
				continue
			}
			resp.Results = append(resp.Results, okResult("execute", result))
		case "batch":
			resp.Results = append(resp.Results, okResult("batch", s.batch(r.Context(), item.Batch.Steps)))
		case "close":
			resp.Results = append(resp.Results, hranaStreamResult{Type: "ok", Response: &hranaResponse{Type: "close"}})
		default:
			resp.Results = append(resp.Results, hranaStreamResult{Type: "error", Error: &hranaError{Message: "unknown request " + item.Type}})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func okResult(kind string, result any) hranaStreamResult {
	raw, _ := json.Marshal(result)
	return hranaStreamResult{Type: "ok", Response: &hranaResponse{Type: kind, Result: raw}}
}

func (s *pipelineServer) batch(ctx context.Context, steps []hranaBatchStep) hranaBatchResult {
	out := hranaBatchResult{
		StepResults: make([]*hranaStmtResult, len(steps)),
		StepErrors:  make([]*hranaError, len(steps)),
	}
	outcomes := make([]*bool, len(steps))
	for i, step := range steps {
		if step.Condition != nil && !evalCondition(*step.Condition, outcomes) {
			continue
		}
		result, err := s.run(ctx, step.Stmt)
		ok := err == nil
		outcomes[i] = &ok
		if err != nil {
			out.StepErrors[i] = err
			continue
		}
		out.StepResults[i] = result
	}
	return out
}

func evalCondition(c hranaCondition, outcomes []*bool) bool {
	switch c.Type {
	case "ok":
		return outcomes[*c.Step] != nil && *outcomes[*c.Step]
	case "error":
		return outcomes[*c.Step] != nil && !*outcomes[*c.Step]
	case "not":
		return !evalCondition(*c.Cond, outcomes)
	case "and":
		for _, sub := range c.Conds {
			if !evalCondition(sub, outcomes) {
				return false
			}
		}
		return true
	case "or":
		for _, sub := range c.Conds {
			if evalCondition(sub, outcomes) {
				return true
			}
		}
		return false
	}
	return false
}

func (s *pipelineServer) run(ctx context.Context, st hranaStmt) (*hranaStmtResult, *hranaError) {
	args := make([]any, 0, len(st.Args))
	for _, v := range st.Args {
		decoded, err := decodeValue(v)
		if err != nil {
			return nil, &hranaError{Message: err.Error()}
		}
		args = append(args, decoded)
	}

	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(st.SQL)), "SELECT") {
		res, err := s.db.ExecContext(ctx, st.SQL, args...)
		if err != nil {
			return nil, &hranaError{Message: err.Error(), Code: "SQLITE_ERROR"}
		}
		affected, _ := res.RowsAffected()
		return &hranaStmtResult{Cols: []hranaCol{}, Rows: [][]hranaValue{}, AffectedRowCount: affected}, nil
	}

	rows, err := s.db.QueryContext(ctx, st.SQL, args...)
	if err != nil {
		return nil, &hranaError{Message: err.Error(), Code: "SQLITE_ERROR"}
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, &hranaError{Message: err.Error()}
	}
	result := &hranaStmtResult{Rows: [][]hranaValue{}}
	for i := range names {
		result.Cols = append(result.Cols, hranaCol{Name: &names[i]})
	}
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &hranaError{Message: err.Error()}
		}
		row := make([]hranaValue, 0, len(values))
		for _, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row = append(row, encodeValue(v))
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &hranaError{Message: err.Error()}
	}
	return result, nil
}

var seedTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// seed writes a small catalogue through store and returns the post records.
func seed(t *testing.T, store Backend) []content.PostRecord {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, accounts.UserRecord{
		User: accounts.User{ID: "u-ana", Name: "Ana", Email: "ana@example.com", Role: accounts.RoleEditor,
			Title: strPtr("Principal"), CreatedAt: seedTime, UpdatedAt: seedTime},
		PasswordHash: "hash",
	}))
	require.NoError(t, store.CreateUser(ctx, accounts.UserRecord{
		User:         accounts.User{ID: "u-ben", Name: "Ben", Email: "ben@example.com", Role: accounts.RoleAuthor, CreatedAt: seedTime, UpdatedAt: seedTime},
		PasswordHash: "hash",
	}))
	for _, c := range []content.Category{
		{ID: "c-strategy", Name: "Strategy", Slug: "strategy", Color: strPtr("#112233"), CreatedAt: seedTime, UpdatedAt: seedTime},
		{ID: "c-ops", Name: "Operations", Slug: "operations", CreatedAt: seedTime, UpdatedAt: seedTime},
	} {
		require.NoError(t, store.CreateCategory(ctx, c))
	}
	for _, tag := range []content.Tag{
		{ID: "t-ai", Name: "AI", Slug: "ai", CreatedAt: seedTime, UpdatedAt: seedTime},
		{ID: "t-data", Name: "Data", Slug: "data", CreatedAt: seedTime, UpdatedAt: seedTime},
		{ID: "t-auto", Name: "Automation", Slug: "automation", CreatedAt: seedTime, UpdatedAt: seedTime},
	} {
		require.NoError(t, store.CreateTag(ctx, tag))
	}

	day := func(n int) *time.Time {
		d := seedTime.Add(time.Duration(n) * 24 * time.Hour)
		return &d
	}
	posts := []content.PostRecord{
		{ID: "p-1", Slug: "ai-readiness", Title: "AI Readiness", Excerpt: "Is your team ready?", Body: "<p>Data first.</p>",
			Status: content.StatusPublished, Featured: true, ReadTime: 1, PublishedAt: day(5), Keywords: `["ai","readiness"]`,
			CategoryID: "c-strategy", AuthorID: "u-ana", TagIDs: []string{"t-data", "t-ai"}},
		{ID: "p-2", Slug: "mapping-processes", Title: "Mapping Processes", Excerpt: "Whiteboards beat software.", Body: "<p>Automation later.</p>",
			Status: content.StatusPublished, ReadTime: 2, PublishedAt: day(3), Keywords: `[]`,
			CategoryID: "c-ops", AuthorID: "u-ben", TagIDs: []string{"t-auto"}, MetaTitle: strPtr("Mapping")},
		{ID: "p-3", Slug: "fifty-percent", Title: "Save 50% of Admin Time", Excerpt: "A bold claim.", Body: "<p>How we measured it.</p>",
			Status: content.StatusPublished, ReadTime: 3, PublishedAt: day(3), Keywords: `["roi","admin"]`,
			CategoryID: "c-ops", AuthorID: "u-ana", TagIDs: []string{"t-auto", "t-data"}},
		{ID: "p-4", Slug: "draft-idea", Title: "Draft idea", Excerpt: "Unfinished.", Body: "<p>automation notes</p>",
			Status: content.StatusDraft, ReadTime: 1, Keywords: `[]`,
			CategoryID: "c-strategy", AuthorID: "u-ben"},
		{ID: "p-5", Slug: "old-news", Title: "Old news", Excerpt: "Archived.", Body: "<p>Gone.</p>",
			Status: content.StatusArchived, ReadTime: 1, PublishedAt: day(-30), Keywords: `[]`,
			CategoryID: "c-strategy", AuthorID: "u-ana", FeaturedImageURL: strPtr("https://cdn.example.com/a.png")},
		{ID: "p-6", Slug: "second-draft", Title: "Another draft_with underscore", Excerpt: "Also unfinished.", Body: "<p>x</p>",
			Status: content.StatusDraft, ReadTime: 1, PublishedAt: day(1), Keywords: `[]`,
			CategoryID: "c-ops", AuthorID: "u-ana"},
	}
	for i := range posts {
		posts[i].CreatedAt = seedTime.Add(time.Duration(i) * time.Hour)
		posts[i].UpdatedAt = posts[i].CreatedAt
		require.NoError(t, store.CreatePost(ctx, posts[i]))
	}
	return posts
}

func strPtr(s string) *string {
	return &s
}

func slugs(rows []content.RawPost) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Slug)
	}
	return out
}

func query(t *testing.T, r content.ListRequest) content.Query {
	t.Helper()
	q, err := r.Resolve()
	require.NoError(t, err)
	return q
}
