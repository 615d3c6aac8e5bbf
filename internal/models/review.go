package models

import "time"

// Keys the archive writer injects into every stored document.
const (
	FieldPRTitle    = "pr_title"
	FieldArchivedAt = "archived_at"
	FieldID         = "_id"
)

// ArchivedReview is a stored review document as read back from the store.
type ArchivedReview struct {
	ID         string
	PRTitle    string
	ArchivedAt time.Time
	Data       map[string]any
}

// State returns the pull request state recorded in the document, if any.
func (r *ArchivedReview) State() string {
	s, _ := r.Data["state"].(string)
	return s
}

// FilesChanged returns the recorded files_changed_count, tolerating the
// numeric types different stores decode into.
func (r *ArchivedReview) FilesChanged() int {
	switch v := r.Data["files_changed_count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
