package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageloader/internal/config"
	"github.com/nao1215/pageloader/internal/database"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/report"
)

// defaultHistoryLimit is how many runs history lists by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List recorded download runs",
		Long: `History lists the runs recorded by "pageloader download", newest first.

With a URL argument only the runs of that page are listed. The URL must be
given exactly as it was passed to download.

Examples:
  # Show the last 20 runs
  pageloader history

  # Show every run of one page as JSON
  pageloader history --limit 0 --json https://ru.hexlet.io/courses`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the runs as JSON")
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(dataDir, database.Options{CreateIfNotExists: false})
	if errors.Is(err, database.ErrNotFound) {
		if asJSON {
			_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteAll(nil)
			return err
		}
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	var runs []*model.Summary
	if len(args) == 1 {
		runs, err = db.ListByURL(cmd.Context(), args[0], limit)
	} else {
		runs, err = db.List(cmd.Context(), limit)
	}
	if err != nil {
		return err
	}

	if asJSON {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion())).WriteAll(runs)
		return err
	}
	return printHistory(out, runs)
}

// printHistory writes runs as an aligned table.
func printHistory(out io.Writer, runs []*model.Summary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded yet.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATE\tRESOURCES\tDURATION\tURL\tSAVED/ERROR")
	for _, r := range runs {
		result := r.SavedPath
		if !r.Succeeded() {
			result = r.Error
		}
		started := "-"
		if !r.Started.IsZero() {
			started = r.Started.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%dms\t%s\t%s\n",
			r.ID, started, r.State, r.ResourceCount, r.DurationMS, r.PageURL, result)
	}
	return tw.Flush()
}
