package report

import (
	"io"

	"github.com/nao1215/pageloader/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the summary of a single run.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)

	// WriteAll outputs one report covering every run of a batch.
	WriteAll(summaries []*model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs the batch report to all configured Writers.
func (m *MultiWriter) WriteAll(summaries []*model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(summaries)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Totals counts the outcome of a batch.
type Totals struct {
	Runs      int `json:"runs"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Resources int `json:"resources"`
}

// CountTotals tallies a batch. Nil summaries are ignored.
func CountTotals(summaries []*model.Summary) Totals {
	var t Totals
	for _, s := range summaries {
		if s == nil {
			continue
		}
		t.Runs++
		if s.Succeeded() {
			t.Succeeded++
		} else {
			t.Failed++
		}
		t.Resources += s.ResourceCount
	}
	return t
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

const timeLayout = "2006-01-02 15:04:05 MST"
