// Package archive persists reviewed pull requests as documents.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/joescharf/prreview/internal/models"
)

// Status tags the outcome of an archive call.
type Status string

const (
	StatusArchived Status = "archived"
	StatusFailed   Status = "failed"
)

// ErrorPrefix starts every failure message.
const ErrorPrefix = "Database archiving error: "

// Result is the outcome of Writer.Archive. ID is set only when Status is
// StatusArchived; Err only when it is StatusFailed.
type Result struct {
	Status  Status
	Title   string
	ID      string
	Message string
	Err     error
}

// OK reports whether the document was stored.
func (r Result) OK() bool { return r.Status == StatusArchived }

// Inserter is the part of store.Store the writer needs.
type Inserter interface {
	InsertReview(ctx context.Context, doc map[string]any) (string, error)
}

// Writer appends review documents to the store.
type Writer struct {
	store   Inserter
	timeout time.Duration
	now     func() time.Time
}

// NewWriter returns a Writer bounding each insert by timeout. A zero
// timeout leaves the caller's context deadline in charge.
func NewWriter(s Inserter, timeout time.Duration) *Writer {
	return &Writer{store: s, timeout: timeout, now: time.Now}
}

// Archive sets pr_title (and archived_at) on data, overwriting any previous
// values, and inserts it as a new document. It never returns an error; a
// failed insert is reported through the Result.
func (w *Writer) Archive(ctx context.Context, title string, data map[string]any) Result {
	log := clog.FromContext(ctx)
	log.Infof("Archiving PR review to database: %s", title)

	if data == nil {
		data = make(map[string]any)
	}
	data[models.FieldPRTitle] = title
	data[models.FieldArchivedAt] = w.now().UTC().Format(time.RFC3339)

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	id, err := w.store.InsertReview(ctx, data)
	if err != nil {
		log.Errorf("Database archiving error: %v", err)
		log.Debugf("Archive of %q failed: %+v", title, err)
		return Result{
			Status:  StatusFailed,
			Title:   title,
			Message: ErrorPrefix + err.Error(),
			Err:     err,
		}
	}

	msg := fmt.Sprintf("Pull request review for '%s' archived with ID: %s", title, id)
	log.Infof("%s", msg)
	return Result{
		Status:  StatusArchived,
		Title:   title,
		ID:      id,
		Message: msg,
	}
}
