package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/joescharf/prreview/internal/config"
	"github.com/joescharf/prreview/internal/git"
	"github.com/joescharf/prreview/internal/models"
	"github.com/joescharf/prreview/internal/store"
)

// fakeGitHub is a git.GitHubClient returning a canned record.
type fakeGitHub struct {
	rec   *models.PullRequestRecord
	err   error
	calls []string
}

func (f *fakeGitHub) PullRequest(_ context.Context, owner, repo string, number int) (*models.PullRequestRecord, error) {
	f.calls = append(f.calls, git.PRRef{Owner: owner, Repo: repo, Number: number}.String())
	return f.rec, f.err
}

func withFakeGitHub(t *testing.T, f *fakeGitHub) {
	t.Helper()
	orig := newGitHubClient
	newGitHubClient = func(config.GitHubConfig) (git.GitHubClient, error) { return f, nil }
	t.Cleanup(func() { newGitHubClient = orig })
}

// brokenStore accepts a connection and then fails every operation.
type brokenStore struct {
	closed bool
}

var errConnectionLost = errors.New("connection lost")

func (s *brokenStore) InsertReview(context.Context, map[string]any) (string, error) {
	return "", errConnectionLost
}

func (s *brokenStore) ListReviews(context.Context, int) ([]*models.ArchivedReview, error) {
	return nil, errConnectionLost
}

func (s *brokenStore) Ping(context.Context) error { return errConnectionLost }

func (s *brokenStore) Close() error {
	s.closed = true
	return nil
}

func withOpenStore(t *testing.T, fn func(context.Context, config.StoreConfig) (store.Store, error)) {
	t.Helper()
	orig := openStore
	openStore = fn
	t.Cleanup(func() { openStore = orig })
}

func scenarioRecord() *models.PullRequestRecord {
	return models.NewPullRequestRecord(models.PullRequestRecord{
		Title:       "Add greeting",
		Description: "Says hello.",
		Author:      "octocat",
		CreatedAt:   "2024-03-01T10:00:00Z",
		UpdatedAt:   "2024-03-02T11:30:00Z",
		State:       "open",
	}, []models.FileDiff{
		{
			FilePath: "hello.go", Status: "modified",
			LinesAdded: 3, LinesRemoved: 1, TotalModifications: 4,
			DiffPatch: "@@ -1 +1,3 @@\n-old\n+new",
			SourceURL: "https://github.com/octo/hello-world/raw/abc/hello.go",
		},
		{
			FilePath: "logo.png", Status: "added",
			LinesAdded: 0, LinesRemoved: 0, TotalModifications: 0,
			SourceURL: "https://github.com/octo/hello-world/raw/abc/logo.png",
		},
	})
}
