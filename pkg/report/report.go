// Package report writes the per-job run artifacts: CSV logs of updated and
// skipped records, the unmatched-title list, and the end-of-run summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lorenzo-mcc/ani-sync/pkg/match"
)

// Writer drops job artifacts into a single output directory, created on
// first use.
type Writer struct {
	Dir string
}

func (w Writer) ensure() error {
	if w.Dir == "" {
		return fmt.Errorf("report: no output directory configured")
	}
	return os.MkdirAll(w.Dir, 0o755)
}

func (w Writer) create(name string) (*os.File, error) {
	if err := w.ensure(); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(w.Dir, name))
}

// WriteUpdated logs the records a job wrote, with the applied value.
func (w Writer) WriteUpdated(name string, results []match.Result) (string, error) {
	var rows [][]string
	for _, r := range results {
		if r.Outcome != match.OutcomeAutoApplied && r.Outcome != match.OutcomeManualApplied {
			continue
		}
		rows = append(rows, []string{r.Record.EnglishTitle, r.Record.DebutYear, r.Applied})
	}
	if len(rows) == 0 {
		return "", nil
	}
	return w.writeCSV("updated_"+name+".csv", []string{"title", "year", "value"}, rows)
}

// WriteSkipped logs the records a job could not match.
func (w Writer) WriteSkipped(name string, results []match.Result) (string, error) {
	var rows [][]string
	for _, r := range results {
		if r.Outcome != match.OutcomeNotFound && r.Outcome != match.OutcomeSkipped {
			continue
		}
		rows = append(rows, []string{r.Record.EnglishTitle, r.Record.Format, r.Record.DebutYear, r.Outcome.String()})
	}
	if len(rows) == 0 {
		return "", nil
	}
	return w.writeCSV("skipped_"+name+".csv", []string{"title", "format", "year", "outcome"}, rows)
}

// WriteTitles writes a newline-delimited title list (the unmatched-anime
// output of the import flow).
func (w Writer) WriteTitles(name string, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", nil
	}
	f, err := w.create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	for _, t := range titles {
		if _, err := fmt.Fprintln(f, t); err != nil {
			return "", err
		}
	}
	return f.Name(), nil
}

// WriteRows writes an arbitrary CSV (the check job's unresolved export).
func (w Writer) WriteRows(name string, header []string, rows [][]string) (string, error) {
	return w.writeCSV(name, header, rows)
}

func (w Writer) writeCSV(name string, header []string, rows [][]string) (string, error) {
	f, err := w.create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", err
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", err
	}
	cw.Flush()
	return f.Name(), cw.Error()
}

// PrintSummary renders the human-readable completion report every job
// prints before exiting zero.
func PrintSummary(out io.Writer, name string, s *match.Summary) {
	fmt.Fprintf(out, "\n%s: checked %d, updated %d, skipped %d, not found %d", name, s.Checked, s.Updated, s.Skipped, s.NotFound)
	if s.Errors > 0 {
		fmt.Fprintf(out, ", errors %d", s.Errors)
	}
	fmt.Fprintln(out)
}
