// Package api contains API contract definitions for the TFC rounds
// dashboard. Version v1 represents the current stable API version.
package api

// ReloadRequest asks the service to re-run the load cycle. All fields are
// optional; an empty body reloads from the configured source.
type ReloadRequest struct {
	// SourcePath overrides the configured source path for this reload
	// only. Relative paths resolve against the working directory.
	SourcePath string `json:"source_path,omitempty" validate:"omitempty,filepath_safe"`
}

// ReloadResponse reports the snapshot produced by a successful reload.
type ReloadResponse struct {
	SnapshotID  string `json:"snapshot_id"`
	Source      string `json:"source"`
	RecordCount int    `json:"record_count"`
	EntryCount  int    `json:"entry_count"`
}
