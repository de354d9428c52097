package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pageloader/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one run in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Pageloader Report")
	md.PlainText("")
	w.writeRun(md, summary)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteAll outputs a batch overview followed by a section per run.
func (w *MarkdownWriter) WriteAll(summaries []*model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Pageloader Report")
	md.PlainText("")

	totals := CountTotals(summaries)
	w.writeTotals(md, totals)

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		if s == nil {
			continue
		}
		rows = append(rows, []string{
			"`" + s.PageURL + "`",
			statusText(s),
			strconv.Itoa(s.ResourceCount),
			strconv.FormatInt(s.DurationMS, 10) + "ms",
		})
	}
	if len(rows) > 0 {
		md.Table(markdown.TableSet{
			Header: []string{"Page", "Status", "Resources", "Duration"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	for _, s := range summaries {
		if s != nil {
			w.writeRun(md, s)
		}
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, t Totals) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Pages", "Saved", "Failed", "Resources"},
		Rows: [][]string{{
			strconv.Itoa(t.Runs),
			strconv.Itoa(t.Succeeded),
			strconv.Itoa(t.Failed),
			strconv.Itoa(t.Resources),
		}},
	})
	md.PlainText("")

	switch {
	case t.Runs == 0:
		md.Note("No pages were downloaded.")
	case t.Failed == t.Runs:
		md.Cautionf("All %d page(s) failed to download.", t.Failed)
	case t.Failed > 0:
		md.Warningf("%d of %d page(s) failed to download.", t.Failed, t.Runs)
	default:
		md.Tip("Every page was saved.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRun(md *markdown.Markdown, s *model.Summary) {
	md.H2(s.PageURL)
	md.PlainText("")

	rows := [][]string{
		{"Output Dir", "`" + s.OutputDir + "`"},
		{"Status", statusText(s)},
		{"Duration", strconv.FormatInt(s.DurationMS, 10) + "ms"},
		{"Resources", strconv.Itoa(s.ResourceCount)},
	}
	if !s.Started.IsZero() {
		rows = append(rows, []string{"Started", s.Started.Format(timeLayout)})
	}
	if s.SavedPath != "" {
		rows = append(rows, []string{"Saved To", "`" + s.SavedPath + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if !s.Succeeded() && s.Error != "" {
		md.Importantf("Download failed: %s", s.Error)
		md.PlainText("")
	}

	if len(s.Resources) == 0 {
		return
	}

	w.writeKindChart(md, s.Resources)

	items := make([]string, len(s.Resources))
	for i, r := range s.Resources {
		items[i] = r.Kind.String() + ": `" + r.URL + "`"
	}
	md.Details("Downloaded resources", bulletText(items))
	md.PlainText("")
}

// writeKindChart writes a mermaid pie chart of resource kinds.
func (w *MarkdownWriter) writeKindChart(md *markdown.Markdown, resources []model.ResourceSummary) {
	counts := make(map[model.ElementKind]uint64, len(model.ElementKinds))
	for _, r := range resources {
		counts[r.Kind]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Resources by kind"),
		piechart.WithShowData(true),
	)
	for _, k := range model.ElementKinds {
		if counts[k] > 0 {
			chart.LabelAndIntValue(k.String(), counts[k])
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pageloader](https://github.com/nao1215/pageloader)*")
}

func statusText(s *model.Summary) string {
	if s.Succeeded() {
		return "✅ Saved"
	}
	return "❌ " + s.State.String()
}

func bulletText(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
	return sb.String()
}
