package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pageloader/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: Plain ASCII formatting without ANSI colors, so output
// can be piped to files or other tools unchanged.
type SimpleWriter struct {
	baseWriter

	// verbose lists every downloaded resource instead of just the count.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-resource listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one run in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder
	w.writeHeader(&sb)
	w.writeRun(&sb, summary)
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs every run followed by the batch totals.
func (w *SimpleWriter) WriteAll(summaries []*model.Summary) (int, error) {
	var sb strings.Builder
	w.writeHeader(&sb)
	for _, s := range summaries {
		if s != nil {
			w.writeRun(&sb, s)
		}
	}
	w.writeTotals(&sb, CountTotals(summaries))
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        PAGELOADER REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeRun(sb *strings.Builder, s *model.Summary) {
	fmt.Fprintf(sb, "Page:       %s\n", s.PageURL)
	fmt.Fprintf(sb, "Output Dir: %s\n", s.OutputDir)
	if !s.Started.IsZero() {
		fmt.Fprintf(sb, "Started:    %s\n", s.Started.Format(timeLayout))
	}
	fmt.Fprintf(sb, "Duration:   %dms\n", s.DurationMS)

	if s.Succeeded() {
		sb.WriteString("Status:     Saved\n")
		fmt.Fprintf(sb, "Saved To:   %s\n", s.SavedPath)
	} else {
		fmt.Fprintf(sb, "Status:     ERROR - %s\n", s.Error)
	}
	fmt.Fprintf(sb, "Resources:  %d\n", s.ResourceCount)

	if w.verbose {
		for _, r := range s.Resources {
			fmt.Fprintf(sb, "  [%s] %s\n", r.Kind, r.URL)
			fmt.Fprintf(sb, "      -> %s\n", r.Path)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTotals(sb *strings.Builder, t Totals) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
	fmt.Fprintf(sb, "  PAGES:     %d\n", t.Runs)
	fmt.Fprintf(sb, "  SAVED:     %d\n", t.Succeeded)
	fmt.Fprintf(sb, "  FAILED:    %d\n", t.Failed)
	fmt.Fprintf(sb, "  RESOURCES: %d\n", t.Resources)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pageloader\n")
	sb.WriteString("https://github.com/nao1215/pageloader\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
