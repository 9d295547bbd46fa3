package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/consulting-site-backend/content"
)

func TestOpenLocal(t *testing.T) {
	db, err := Open(context.Background(), map[string]string{
		"DB_TYPE":      "LOCAL",
		"LOCAL_DB_DSN": fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, TypeLocal, db.Kind())
	rows, total, err := db.ListPosts(context.Background(), query(t, content.ListRequest{}))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestOpenRemoteMigrates(t *testing.T) {
	ps, srv := newPipelineServer(t, newTestDB(t, false))

	db, err := Open(context.Background(), map[string]string{
		"DB_TYPE":              "remote",
		"REMOTE_DB_URL":        srv.URL,
		"REMOTE_DB_AUTH_TOKEN": "test-token",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeRemote, db.Kind())
	assert.Equal(t, 1, ps.requests)

	categories, err := db.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(context.Background(), map[string]string{"DB_TYPE": "mongo"})
	assert.ErrorContains(t, err, "unsupported DB_TYPE")

	_, err = Open(context.Background(), map[string]string{"DB_TYPE": "remote"})
	assert.ErrorContains(t, err, "url is required")

	_, err = Open(context.Background(), map[string]string{"LOCAL_DB_DRIVER": "oracle"})
	assert.ErrorContains(t, err, "unsupported local database driver")
}
