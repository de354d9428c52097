package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/pageloader/internal/model"
)

// JSONWriter outputs reports in JSON format for programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped into batch reports. Empty omits it.
	version string

	// now returns the report generation time.
	now func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion stamps the pageloader version into batch reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs a single summary as a JSON object.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	return w.writeJSON(summary)
}

// WriteAll outputs a JSONReport wrapping every summary.
func (w *JSONWriter) WriteAll(summaries []*model.Summary) (int, error) {
	return w.writeJSON(NewJSONReport(summaries, w.version, w.now()))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a batch of summaries with metadata.
type JSONReport struct {
	// Version is the pageloader version that generated this report.
	Version string `json:"version,omitempty"`

	// GeneratedAt is when the report was written.
	GeneratedAt time.Time `json:"generated_at"`

	// Totals counts the batch outcome.
	Totals Totals `json:"totals"`

	// Runs holds one summary per page, in input order.
	Runs []*model.Summary `json:"runs"`
}

// NewJSONReport creates a JSONReport. Nil summaries are dropped.
func NewJSONReport(summaries []*model.Summary, version string, generatedAt time.Time) *JSONReport {
	runs := make([]*model.Summary, 0, len(summaries))
	for _, s := range summaries {
		if s != nil {
			runs = append(runs, s)
		}
	}
	return &JSONReport{
		Version:     version,
		GeneratedAt: generatedAt,
		Totals:      CountTotals(runs),
		Runs:        runs,
	}
}
