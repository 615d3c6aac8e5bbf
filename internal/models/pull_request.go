package models

// FileDiff is the per-file summary of a pull request's changes.
type FileDiff struct {
	FilePath           string `json:"file_path" bson:"file_path"`
	Status             string `json:"status" bson:"status"`
	LinesAdded         int    `json:"lines_added" bson:"lines_added"`
	LinesRemoved       int    `json:"lines_removed" bson:"lines_removed"`
	TotalModifications int    `json:"total_modifications" bson:"total_modifications"`
	DiffPatch          string `json:"diff_patch" bson:"diff_patch"`
	SourceURL          string `json:"source_url" bson:"source_url"`
	APIContentsURL     string `json:"api_contents_url" bson:"api_contents_url"`
}

// PullRequestRecord is the normalized view of a pull request and its files.
// Timestamps and state are passed through from upstream as-is.
type PullRequestRecord struct {
	Title             string     `json:"title" bson:"title"`
	Description       string     `json:"description" bson:"description"`
	Author            string     `json:"author" bson:"author"`
	CreatedAt         string     `json:"created_at" bson:"created_at"`
	UpdatedAt         string     `json:"updated_at" bson:"updated_at"`
	State             string     `json:"state" bson:"state"`
	FilesChangedCount int        `json:"files_changed_count" bson:"files_changed_count"`
	FileDiffs         []FileDiff `json:"file_diffs" bson:"file_diffs"`
}

// NewPullRequestRecord builds a record whose FilesChangedCount always
// matches its FileDiffs.
func NewPullRequestRecord(meta PullRequestRecord, diffs []FileDiff) *PullRequestRecord {
	if diffs == nil {
		diffs = []FileDiff{}
	}
	meta.FileDiffs = diffs
	meta.FilesChangedCount = len(diffs)
	return &meta
}
