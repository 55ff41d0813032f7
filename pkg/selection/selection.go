// Package selection restricts a sync job to an operator-provided title
// allow-list loaded from a newline-delimited file.
package selection

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
)

// Set holds normalized titles. A nil Set means no filter at all.
type Set map[string]struct{}

// Load reads the allow-list. Precedence: the explicit path argument, then
// the titles.file config key, then no filter (nil). Blank lines and lines
// starting with '#' are ignored.
//
// A file that yields no usable titles returns nil as well: an empty
// allow-list means "process everything", not "match nothing"; a warning is
// logged since the filter ends up disabled.
func Load(path string) (Set, error) {
	if path == "" {
		path = viper.GetString("titles.file")
	}
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("titles file: %w", err)
	}
	defer f.Close()

	set := Set{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[catalog.NormalizeTitle(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("titles file: %w", err)
	}

	if len(set) == 0 {
		utils.Log.Warnf("titles file %s contains no titles; processing everything", path)
		return nil, nil
	}
	return set, nil
}

// Apply keeps the records whose normalized value of any keyed field is in
// the set, preserving input order. A nil set returns the input unchanged.
// Keys select the title fields to compare; with none given, both English
// and Romaji titles are checked.
func Apply(records []catalog.Record, sel Set, keys ...func(catalog.Record) string) []catalog.Record {
	if sel == nil {
		return records
	}
	if len(keys) == 0 {
		keys = []func(catalog.Record) string{
			func(r catalog.Record) string { return r.EnglishTitle },
			func(r catalog.Record) string { return r.RomajiTitle },
		}
	}

	var out []catalog.Record
	for _, rec := range records {
		for _, key := range keys {
			v := catalog.NormalizeTitle(key(rec))
			if v == "" {
				continue
			}
			if _, ok := sel[v]; ok {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}
