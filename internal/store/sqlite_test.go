package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestInsertReview_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := map[string]any{
		"pr_title":            "Fix null check",
		"state":               "open",
		"files_changed_count": 2,
		"file_diffs": []any{
			map[string]any{"file_path": "a.go", "diff_patch": ""},
		},
	}
	id, err := s.InsertReview(ctx, doc)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	reviews, err := s.ListReviews(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	r := reviews[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "Fix null check", r.PRTitle)
	assert.Equal(t, "open", r.State())
	assert.Equal(t, 2, r.FilesChanged())
	assert.False(t, r.ArchivedAt.IsZero())
}

func TestInsertReview_DuplicatesAreDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := map[string]any{"pr_title": "Same", "state": "open"}
	id1, err := s.InsertReview(ctx, doc)
	require.NoError(t, err)
	id2, err := s.InsertReview(ctx, doc)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)

	reviews, err := s.ListReviews(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 2, "insert-only store keeps both copies")
}

func TestInsertReview_IgnoresCallerID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := map[string]any{"_id": "caller-chosen", "pr_title": "x"}
	id, err := s.InsertReview(ctx, doc)
	require.NoError(t, err)
	assert.NotEqual(t, "caller-chosen", id)
	assert.Equal(t, "caller-chosen", doc["_id"], "caller's map is not mutated")

	reviews, err := s.ListReviews(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.NotContains(t, reviews[0].Data, "_id")
}

func TestListReviews_LimitAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.InsertReview(ctx, map[string]any{"pr_title": title})
		require.NoError(t, err)
	}

	reviews, err := s.ListReviews(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "third", reviews[0].PRTitle)
	assert.Equal(t, "second", reviews[1].PRTitle)
}

func TestInsertReview_UnencodableDocument(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertReview(context.Background(), map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestInsertReview_ClosedDatabase(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.InsertReview(context.Background(), map[string]any{"pr_title": "x"})
	assert.Error(t, err)
}
