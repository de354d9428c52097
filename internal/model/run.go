package model

import "time"

// Run holds the state of one page download.
// The pipeline owns it for the duration of a single Download call; nothing in
// it is shared between runs.
//
// Design decision: Like a scan report, a Run is one flat struct that every
// step reads from and writes to. Steps stay independent of each other and the
// whole run can be summarized or persisted once it reaches a terminal state.
type Run struct {
	// === Input ===

	// PageURL is the page being mirrored. Its origin is the same-origin
	// basis for every resource decision in the run.
	PageURL string `json:"page_url"`

	// OutputDir is the directory the page is saved to.
	OutputDir string `json:"output_dir"`

	// === Progress ===

	// State is the current position in the state machine.
	State RunState `json:"state"`

	// Started is when the run began.
	Started time.Time `json:"started"`

	// Finished is when the run reached a terminal state.
	Finished time.Time `json:"finished,omitzero"`

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// === Working data ===

	// Document is the page body. After the rewrite step it holds the
	// rewritten bytes.
	Document []byte `json:"-"`

	// References are the resource references eligible for download.
	References []Reference `json:"references,omitempty"`

	// LocalFiles are the downloaded resources, one per reference.
	LocalFiles []LocalFile `json:"local_files,omitempty"`

	// === Result ===

	// SavedPath is the absolute path of the saved page.
	SavedPath string `json:"saved_path,omitempty"`

	// Err is the error that moved the run to StateErrored.
	Err error `json:"-"`
}

// NewRun creates a Run in StateInit.
func NewRun(pageURL, outputDir string) *Run {
	return &Run{
		PageURL:   pageURL,
		OutputDir: outputDir,
		State:     StateInit,
		Started:   time.Now(),
	}
}

// Advance moves the run to the next state and records the completed step.
func (r *Run) Advance(state RunState, step string) {
	r.State = state
	r.PerformedSteps = append(r.PerformedSteps, step)
	if state.IsTerminal() {
		r.Finished = time.Now()
	}
}

// Fail moves the run to StateErrored and records the cause.
func (r *Run) Fail(err error) {
	r.State = StateErrored
	r.Err = err
	r.Finished = time.Now()
}

// Duration returns how long the run took, or how long it has been running.
func (r *Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}

// Summary flattens the run for reports and history.
func (r *Run) Summary() *Summary {
	s := &Summary{
		PageURL:       r.PageURL,
		OutputDir:     r.OutputDir,
		State:         r.State,
		Started:       r.Started,
		Finished:      r.Finished,
		DurationMS:    r.Duration().Milliseconds(),
		ResourceCount: len(r.LocalFiles),
		SavedPath:     r.SavedPath,
	}
	for _, f := range r.LocalFiles {
		s.Resources = append(s.Resources, ResourceSummary{
			Kind:   f.Reference.Kind,
			Target: f.Reference.Target,
			URL:    f.URL,
			Path:   f.Path,
		})
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}
