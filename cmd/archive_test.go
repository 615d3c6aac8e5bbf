package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/prreview/internal/archive"
	"github.com/joescharf/prreview/internal/config"
	"github.com/joescharf/prreview/internal/store"
)

// useSQLite points the store at a fresh SQLite file in dir.
func useSQLite(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "reviews.db")
	t.Setenv("MONGO_URI", "sqlite://"+path)
	return path
}

const samplePayload = `{"title":"Add greeting","state":"open","files_changed_count":2,"file_diffs":[]}`

func TestArchive_FromStdin(t *testing.T) {
	dir, out := testEnv(t)
	path := useSQLite(t, dir)

	err := archiveRun(context.Background(), "Add greeting", "-", strings.NewReader(samplePayload))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Pull request review for 'Add greeting' archived with ID: ")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	reviews, err := s.ListReviews(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Add greeting", reviews[0].PRTitle)
	assert.Equal(t, 2, reviews[0].FilesChanged())
}

func TestArchive_FromFile(t *testing.T) {
	dir, out := testEnv(t)
	useSQLite(t, dir)

	payloadPath := filepath.Join(dir, "pr.json")
	require.NoError(t, os.WriteFile(payloadPath, []byte(samplePayload), 0644))

	require.NoError(t, archiveRun(context.Background(), "From file", payloadPath, strings.NewReader("")))
	assert.Contains(t, out.String(), "'From file'")
}

func TestArchive_DryRun(t *testing.T) {
	dir, _ := testEnv(t)
	path := useSQLite(t, dir)
	dryRun = true
	ui.DryRun = true

	opened := false
	withOpenStore(t, func(context.Context, config.StoreConfig) (store.Store, error) {
		opened = true
		return &brokenStore{}, nil
	})

	require.NoError(t, archiveRun(context.Background(), "Add greeting", "-", strings.NewReader(samplePayload)))
	assert.False(t, opened)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestArchive_InsertFailure(t *testing.T) {
	testEnv(t)
	bs := &brokenStore{}
	withOpenStore(t, func(context.Context, config.StoreConfig) (store.Store, error) {
		return bs, nil
	})

	err := archiveRun(context.Background(), "Fix null check", "-", strings.NewReader(samplePayload))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), archive.ErrorPrefix))
	assert.Contains(t, err.Error(), "connection lost")
	assert.True(t, bs.closed, "store should be closed on failure")
}

func TestArchive_BadPayload(t *testing.T) {
	testEnv(t)

	for name, in := range map[string]string{
		"not json": "{nope",
		"array":    `[1,2]`,
		"null":     `null`,
	} {
		t.Run(name, func(t *testing.T) {
			err := archiveRun(context.Background(), "t", "-", strings.NewReader(in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "JSON object")
		})
	}
}

func TestArchive_MissingFile(t *testing.T) {
	dir, _ := testEnv(t)
	err := archiveRun(context.Background(), "t", filepath.Join(dir, "missing.json"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open payload")
}
