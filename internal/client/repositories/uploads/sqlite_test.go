package uploads

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE image_to_upload (
  remote_path   TEXT PRIMARY KEY,
  local_path    TEXT NOT NULL,
  session_token TEXT NOT NULL DEFAULT '',
  created_at    INTEGER NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestAddGetRemove(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	at := time.UnixMilli(1714550400000)

	require.NoError(t, r.Add(ctx, models.PendingUpload{RemotePath: "images/u1/a-1.jpg", LocalPath: "/tmp/a.jpg", SessionToken: "s1", CreatedAt: at}))

	got, err := r.Get(ctx, "images/u1/a-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.jpg", got.LocalPath)
	assert.Equal(t, "s1", got.SessionToken)
	assert.True(t, got.CreatedAt.Equal(at))

	require.NoError(t, r.Remove(ctx, "images/u1/a-1.jpg"))
	_, err = r.Get(ctx, "images/u1/a-1.jpg")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAdd_InsertOrIgnore(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, models.PendingUpload{RemotePath: "p", LocalPath: "first", SessionToken: "s1"}))
	require.NoError(t, r.Add(ctx, models.PendingUpload{RemotePath: "p", LocalPath: "second", SessionToken: "s2"}))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].LocalPath)
	assert.Equal(t, "s1", list[0].SessionToken)
}

func TestList_OldestFirst(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, models.PendingUpload{RemotePath: "b", LocalPath: "b", CreatedAt: time.UnixMilli(2000)}))
	require.NoError(t, r.Add(ctx, models.PendingUpload{RemotePath: "a", LocalPath: "a", CreatedAt: time.UnixMilli(1000)}))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].RemotePath)
	assert.Equal(t, "b", list[1].RemotePath)
}

func TestRemove_Absent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	assert.NoError(t, r.Remove(context.Background(), "missing"))
}
