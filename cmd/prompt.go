package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
)

// consolePrompter asks the operator to resolve an ambiguous match on the
// terminal. It satisfies match.Prompter.
type consolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newConsolePrompter() *consolePrompter {
	return &consolePrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// Choose prints the catalogue entry next to every candidate and reads a
// 1-based pick. 0 or an empty line skips the record.
func (p *consolePrompter) Choose(rec catalog.Record, cands []catalog.Candidate) (int, error) {
	fmt.Fprintf(p.out, "\nAmbiguous match for %q (%s, %s, %s)\n",
		rec.EnglishTitle, rec.Format, rec.DebutYear, rec.Source)
	for i, c := range cands {
		year := ""
		if c.StartYear > 0 {
			year = strconv.Itoa(c.StartYear)
		}
		fmt.Fprintf(p.out, "  [%d] %s / %s (%s, %s, %s)\n",
			i+1, c.TitleEnglish, c.TitleRomaji,
			catalog.FormatDisplay(c.Format), year, catalog.SourceDisplay(c.Source))
	}
	fmt.Fprintf(p.out, "Pick the correct entry (0 to skip): ")

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return -1, err
	}
	line = strings.TrimSpace(line)
	if line == "" || line == "0" {
		return -1, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(cands) {
		fmt.Fprintf(p.out, "Invalid choice %q, skipping\n", line)
		return -1, nil
	}
	return n - 1, nil
}
