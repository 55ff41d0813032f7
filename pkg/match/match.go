// Package match decides whether a catalogue record and a list of AniList
// candidates agree unambiguously, and runs the shared fetch → match →
// apply-or-defer loop that every sync job is built on.
package match

import (
	"strconv"

	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
)

// isPerfect is the strict conjunction of four equality predicates. There is
// no scoring or fuzzy distance: a single imperfect field disqualifies the
// candidate.
func isPerfect(rec catalog.Record, c catalog.Candidate) bool {
	if c.Format != catalog.FormatCode(rec.Format) {
		return false
	}
	// Years are compared as strings; an absent local year ("") never equals
	// a populated candidate year.
	if candidateYear(c) != rec.DebutYear {
		return false
	}
	title := catalog.NormalizeTitle(rec.EnglishTitle)
	if title == "" {
		title = catalog.NormalizeTitle(rec.RomajiTitle)
	}
	if catalog.NormalizeTitle(c.TitleEnglish) != title &&
		catalog.NormalizeTitle(c.TitleRomaji) != title {
		return false
	}
	return catalog.SourceDisplay(c.Source) == rec.Source
}

func candidateYear(c catalog.Candidate) string {
	if c.StartYear == 0 {
		return ""
	}
	return strconv.Itoa(c.StartYear)
}

// Perfect collects every candidate satisfying all four predicates. Exactly
// one perfect match is returned with ok=true; zero or several leave the
// decision to the caller, which must not auto-write.
func Perfect(rec catalog.Record, cands []catalog.Candidate) (catalog.Candidate, bool) {
	var matches []catalog.Candidate
	for _, c := range cands {
		if isPerfect(rec, c) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return catalog.Candidate{}, false
}
