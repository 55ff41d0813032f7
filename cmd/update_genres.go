package cmd

import (
	"context"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
	"github.com/lorenzo-mcc/ani-sync/pkg/report"
)

// updateGenresCmd mirrors the Genres relation into the watched-anime genres
// property for entries that have watch history. Pure Notion pass, no
// AniList traffic.
var updateGenresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Mirror the Genres relation into the watched-anime genres property",
	Run: func(cmd *cobra.Command, args []string) {
		runUpdateGenres(cmd)
	},
}

func init() {
	updateCmd.AddCommand(updateGenresCmd)
}

func runUpdateGenres(cmd *cobra.Command) {
	nc := newNotionClient()
	ctx := context.Background()

	// Only pages linked to watch history carry the mirrored property.
	filter := map[string]interface{}{
		"property": notion.PropAnimeWatched,
		"relation": map[string]interface{}{"is_not_empty": true},
	}
	records, err := loadCatalogue(ctx, nc, cmd, filter)
	if err != nil {
		utils.Log.Fatalf("Failed to load catalogue: %v", err)
	}

	summary := &match.Summary{}
	for _, rec := range records {
		summary.Checked++

		if sameIDSet(rec.GenreIDs, rec.WatchedIDs) {
			summary.Skipped++
			summary.Results = append(summary.Results, match.Result{Record: rec, Outcome: match.OutcomeSkipped})
			continue
		}
		merged := unionIDs(rec.GenreIDs, rec.WatchedIDs)
		err := nc.UpdateProperties(ctx, rec.ID, map[string]interface{}{
			notion.PropWatchedGenres: notion.RelationProp(merged),
		})
		if err != nil {
			utils.Log.Errorf("[genres] write failed for %q: %v", rec.EnglishTitle, err)
			summary.Errors++
			summary.Results = append(summary.Results, match.Result{Record: rec, Outcome: match.OutcomeError, Err: err})
			continue
		}
		utils.Log.Infof("[genres] mirrored %d genres for %q", len(merged), rec.EnglishTitle)
		summary.Updated++
		summary.Results = append(summary.Results, match.Result{Record: rec, Outcome: match.OutcomeAutoApplied})
	}

	w := report.Writer{Dir: outputDir(cmd)}
	if _, err := w.WriteUpdated("genres", summary.Results); err != nil {
		utils.Log.Errorf("Failed to write updated report: %v", err)
	}
	report.PrintSummary(os.Stdout, "genres", summary)
}

// sameIDSet compares two relation id lists ignoring order.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// unionIDs merges two id lists into a sorted set.
func unionIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
