package models

// Reasons attached to skipped import items. Duplicates are intentional
// no-ops and are kept apart from failures in the result.
const (
	SkipReasonPermission  = "permission_denied"
	SkipReasonQuota       = "quota_exceeded"
	SkipReasonCopyFailed  = "copy_failed"
	SkipReasonParseFailed = "parse_failed"
	SkipReasonNotFound    = "not_found"
)

// ImportedItem describes one successfully copied file or folder.
type ImportedItem struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Type     string `json:"type"` // file, folder, subject
	Size     int64  `json:"size"`
}

// DuplicateItem describes a source item that already existed in the
// destination drive and was intentionally not copied.
type DuplicateItem struct {
	SourceID      string `json:"source_id"`
	Name          string `json:"name"`
	ExistingID    string `json:"existing_id"`
	DuplicateType string `json:"duplicate_type"` // exact, name
}

// SkippedItem describes a source item the import attempted but could not
// copy. Reason is one of the SkipReason constants.
type SkippedItem struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// ImportResult aggregates one import call. List order follows stable input
// order. It is returned to the caller and recorded piecemeal into the
// activity log; it is never persisted as a whole.
type ImportResult struct {
	Imported        []ImportedItem  `json:"imported"`
	Duplicates      []DuplicateItem `json:"duplicates"`
	Skipped         []SkippedItem   `json:"skipped"`
	TotalSizeCopied int64           `json:"total_size_copied"`
}

// SyncResult summarizes one subject synchronization run.
type SyncResult struct {
	FoldersCreated int      `json:"folders_created"`
	FilesCreated   int      `json:"files_created"`
	FilesMoved     int      `json:"files_moved"`
	Skipped        []string `json:"skipped,omitempty"`
}
