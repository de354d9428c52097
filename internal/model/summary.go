package model

import "time"

// Summary is a flattened, serializable view of a finished Run.
// It is what reports print and what the history database stores.
type Summary struct {
	// ID is the history row id. Zero for runs that were not persisted.
	ID int64 `json:"id,omitempty"`

	// PageURL is the mirrored page.
	PageURL string `json:"page_url"`

	// OutputDir is the directory the page was saved to.
	OutputDir string `json:"output_dir"`

	// State is the terminal state of the run.
	State RunState `json:"state"`

	// Started is when the run began.
	Started time.Time `json:"started"`

	// Finished is when the run ended.
	Finished time.Time `json:"finished"`

	// DurationMS is the run duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// ResourceCount is the number of resources downloaded.
	ResourceCount int `json:"resource_count"`

	// Resources lists each downloaded resource.
	Resources []ResourceSummary `json:"resources,omitempty"`

	// SavedPath is where the page was written.
	SavedPath string `json:"saved_path,omitempty"`

	// Error is the failure message for errored runs.
	Error string `json:"error,omitempty"`
}

// ResourceSummary describes one downloaded resource.
type ResourceSummary struct {
	Kind   ElementKind `json:"kind"`
	Target string      `json:"target"`
	URL    string      `json:"url"`
	Path   string      `json:"path"`
}

// Succeeded reports whether the run saved its page.
func (s *Summary) Succeeded() bool {
	return s.State == StateSaved
}
