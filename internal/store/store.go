package store

import (
	"context"

	"github.com/joescharf/prreview/internal/models"
)

// Store is the document store for archived reviews. From the archive
// writer's point of view it is insert-only; listing exists for the CLI.
type Store interface {
	// InsertReview stores doc as one new document and returns the
	// store-generated identifier. Any "_id" in doc is ignored.
	InsertReview(ctx context.Context, doc map[string]any) (string, error)
	// ListReviews returns up to limit documents, newest first.
	ListReviews(ctx context.Context, limit int) ([]*models.ArchivedReview, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
