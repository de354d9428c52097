package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pageloader/internal/document"
	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/naming"
)

// FetchPageStep validates the output directory and downloads the page.
type FetchPageStep struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewFetchPageStep creates a fetch_page step.
func NewFetchPageStep(fetcher *fetch.Fetcher, logger *slog.Logger) *FetchPageStep {
	return &FetchPageStep{fetcher: fetcher, logger: logger}
}

// Name returns the step name.
func (s *FetchPageStep) Name() string { return "fetch_page" }

// Target returns the state reached on success.
func (s *FetchPageStep) Target() model.RunState { return model.StateFetchedPage }

// Do checks that the output directory exists and accepts files, then
// fetches the page body. Nothing is written when the page fetch fails.
func (s *FetchPageStep) Do(ctx context.Context, job *Job) error {
	dir := job.Run.OutputDir

	info, err := s.fetcher.Fs().Stat(dir)
	if err != nil {
		return &model.DirectoryError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &model.DirectoryError{Path: dir}
	}
	if err := s.fetcher.EnsureWritableDir(dir); err != nil {
		return err
	}

	s.logger.Info("base URI set", "url", job.Run.PageURL, "origin", naming.Origin(job.Run.PageURL))

	body, err := s.fetcher.Fetch(ctx, job.Run.PageURL)
	if err != nil {
		return err
	}
	job.Run.Document = body
	job.Doc = document.New(body)
	return nil
}

// LocateResourcesStep finds the same-origin references of the page.
type LocateResourcesStep struct {
	logger *slog.Logger
}

// NewLocateResourcesStep creates a locate_resources step.
func NewLocateResourcesStep(logger *slog.Logger) *LocateResourcesStep {
	return &LocateResourcesStep{logger: logger}
}

// Name returns the step name.
func (s *LocateResourcesStep) Name() string { return "locate_resources" }

// Target returns the state reached on success.
func (s *LocateResourcesStep) Target() model.RunState { return model.StateResourcesLocated }

// Do runs the locator over the fetched document.
func (s *LocateResourcesStep) Do(_ context.Context, job *Job) error {
	refs, err := document.Locate(job.Doc, job.Run.PageURL)
	if err != nil {
		return err
	}
	job.Run.References = refs

	targets := make([]string, len(refs))
	for i, ref := range refs {
		targets[i] = ref.Target
	}
	s.logger.Info("resource list parsed", "url", job.Run.PageURL, "count", len(refs), "resources", targets)
	return nil
}

// FetchResourcesStep downloads every located reference into the page's
// resource directory.
type FetchResourcesStep struct {
	fetcher     *fetch.Fetcher
	concurrency int
	logger      *slog.Logger
}

// NewFetchResourcesStep creates a fetch_resources step. A concurrency of 1
// or less fetches resources one after another.
func NewFetchResourcesStep(fetcher *fetch.Fetcher, concurrency int, logger *slog.Logger) *FetchResourcesStep {
	return &FetchResourcesStep{fetcher: fetcher, concurrency: concurrency, logger: logger}
}

// Name returns the step name.
func (s *FetchResourcesStep) Name() string { return "fetch_resources" }

// Target returns the state reached on success.
func (s *FetchResourcesStep) Target() model.RunState { return model.StateResourcesFetched }

// Do plans a local file for every reference and fetches each distinct URL
// once. Any failure aborts the step. A page without references creates no
// resource directory.
func (s *FetchResourcesStep) Do(ctx context.Context, job *Job) error {
	refs := job.Run.References
	if len(refs) == 0 {
		return nil
	}

	dirName, err := naming.ResourceDirName(job.Run.PageURL)
	if err != nil {
		return err
	}
	resourceDir := filepath.Join(job.Run.OutputDir, dirName)

	files := make([]model.LocalFile, 0, len(refs))
	var downloads []model.LocalFile
	planned := make(map[string]string, len(refs))
	for _, ref := range refs {
		resourceURL := naming.ResourceURL(ref.Target, job.Run.PageURL)
		path, ok := planned[resourceURL]
		if !ok {
			name, err := naming.FileName(resourceURL)
			if err != nil {
				return err
			}
			path = filepath.Join(resourceDir, name)
			planned[resourceURL] = path
		}
		file := model.LocalFile{Reference: ref, URL: resourceURL, Path: path}
		if !ok {
			downloads = append(downloads, file)
		}
		files = append(files, file)
	}

	if err := s.download(ctx, downloads); err != nil {
		return err
	}
	job.Run.LocalFiles = files
	return nil
}

func (s *FetchResourcesStep) download(ctx context.Context, files []model.LocalFile) error {
	if s.concurrency <= 1 {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.fetchOne(ctx, f); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.fetchOne(gctx, f)
		})
	}
	return g.Wait()
}

func (s *FetchResourcesStep) fetchOne(ctx context.Context, f model.LocalFile) error {
	if err := s.fetcher.FetchTo(ctx, f.URL, f.Path); err != nil {
		s.logger.Error("resource download failed", "url", f.URL, "path", f.Path, "error", err)
		return err
	}
	s.logger.Info("resource downloaded", "url", f.URL, "path", f.Path)
	return nil
}

// RewriteStep points the page's references at the downloaded files.
type RewriteStep struct {
	strategy document.Strategy
	logger   *slog.Logger
}

// NewRewriteStep creates a rewrite step.
func NewRewriteStep(strategy document.Strategy, logger *slog.Logger) *RewriteStep {
	return &RewriteStep{strategy: strategy, logger: logger}
}

// Name returns the step name.
func (s *RewriteStep) Name() string { return "rewrite" }

// Target returns the state reached on success.
func (s *RewriteStep) Target() model.RunState { return model.StateRewritten }

// Do rewrites the document in place.
func (s *RewriteStep) Do(_ context.Context, job *Job) error {
	out, err := document.Rewrite(job.Doc, job.Run.LocalFiles, job.Run.OutputDir, s.strategy)
	if err != nil {
		return err
	}
	job.Run.Document = out
	s.logger.Debug("references rewritten", "url", job.Run.PageURL, "count", len(job.Run.LocalFiles), "strategy", s.strategy)
	return nil
}

// SaveStep writes the page next to its resource directory.
type SaveStep struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewSaveStep creates a save step.
func NewSaveStep(fs afero.Fs, logger *slog.Logger) *SaveStep {
	return &SaveStep{fs: fs, logger: logger}
}

// Name returns the step name.
func (s *SaveStep) Name() string { return "save" }

// Target returns the state reached on success.
func (s *SaveStep) Target() model.RunState { return model.StateSaved }

// Do writes the page to <outputDir>/<slug>.html and records the path.
func (s *SaveStep) Do(_ context.Context, job *Job) error {
	name, err := naming.FileName(job.Run.PageURL)
	if err != nil {
		return err
	}
	path := filepath.Join(job.Run.OutputDir, name)

	if err := afero.WriteFile(s.fs, path, job.Run.Document, 0o644); err != nil { //nolint:gosec // saved pages are meant to be readable
		return &model.IOError{Op: "write", Path: path, Err: err}
	}

	job.Run.SavedPath = path
	s.logger.Info("page saved", "url", job.Run.PageURL, "path", path)
	return nil
}
