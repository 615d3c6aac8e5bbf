package git

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"

	"github.com/joescharf/prreview/internal/config"
	"github.com/joescharf/prreview/internal/models"
)

// MaxFilesPerPage is the largest page GitHub serves for the files endpoint.
// Only the first page is read; larger pull requests are truncated.
const MaxFilesPerPage = 100

// GitHubClient fetches a pull request and normalizes it.
type GitHubClient interface {
	PullRequest(ctx context.Context, owner, repo string, number int) (*models.PullRequestRecord, error)
}

// RealGitHubClient implements GitHubClient against the GitHub REST API.
type RealGitHubClient struct {
	client *github.Client
}

// NewGitHubClient returns a client authenticated with the configured token.
// Every request is bounded by cfg.Timeout.
func NewGitHubClient(cfg config.GitHubConfig) (*RealGitHubClient, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, config.ErrMissingToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   NewLoggingTransport(nil),
		},
	}
	client := github.NewClient(httpClient)

	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	return &RealGitHubClient{client: client}, nil
}

// PullRequest reads the pull request metadata and then its changed files.
// Any non-2xx response from either call is returned as an error and no
// partial record is produced.
func (c *RealGitHubClient) PullRequest(ctx context.Context, owner, repo string, number int) (*models.PullRequestRecord, error) {
	log := clog.FromContext(ctx).With("owner", owner, "repo", repo, "number", number)
	log.Infof("Requesting pull request data for %s/%s#%d", owner, repo, number)

	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		logResponseError(ctx, err)
		return nil, fmt.Errorf("get pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	files, resp, err := c.client.PullRequests.ListFiles(ctx, owner, repo, number, &github.ListOptions{PerPage: MaxFilesPerPage})
	if err != nil {
		logResponseError(ctx, err)
		return nil, fmt.Errorf("list files for %s/%s#%d: %w", owner, repo, number, err)
	}
	if resp != nil && resp.NextPage != 0 {
		log.Warnf("File list truncated to the first %d entries; further pages are not fetched", len(files))
	}

	rec := NormalizePullRequest(pr, files)
	log.Infof("Successfully obtained %d file diffs", rec.FilesChangedCount)
	return rec, nil
}

// logResponseError records upstream status details at debug level.
func logResponseError(ctx context.Context, err error) {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		clog.FromContext(ctx).Debugf("GitHub responded %d: %s (%s)",
			ghErr.Response.StatusCode, ghErr.Message, ghErr.DocumentationURL)
		return
	}
	clog.FromContext(ctx).Debugf("GitHub request failed: %+v", err)
}

// NormalizePullRequest flattens upstream metadata and files into a record.
// Missing textual fields become empty strings.
func NormalizePullRequest(pr *github.PullRequest, files []*github.CommitFile) *models.PullRequestRecord {
	diffs := make([]models.FileDiff, 0, len(files))
	for _, f := range files {
		diffs = append(diffs, NormalizeFile(f))
	}

	return models.NewPullRequestRecord(models.PullRequestRecord{
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Author:      pr.GetUser().GetLogin(),
		CreatedAt:   formatTimestamp(pr.GetCreatedAt()),
		UpdatedAt:   formatTimestamp(pr.GetUpdatedAt()),
		State:       pr.GetState(),
	}, diffs)
}

// NormalizeFile maps one changed-file entry.
func NormalizeFile(f *github.CommitFile) models.FileDiff {
	return models.FileDiff{
		FilePath:           f.GetFilename(),
		Status:             f.GetStatus(),
		LinesAdded:         f.GetAdditions(),
		LinesRemoved:       f.GetDeletions(),
		TotalModifications: f.GetChanges(),
		DiffPatch:          f.GetPatch(),
		SourceURL:          f.GetRawURL(),
		APIContentsURL:     f.GetContentsURL(),
	}
}

// formatTimestamp renders ts as RFC3339 in UTC, "" for a missing value.
// GitHub sends second-precision "Z" times, which round-trip unchanged; an
// offset or fractional seconds (some Enterprise servers) is converted to
// UTC and truncated to the second.
func formatTimestamp(ts github.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
