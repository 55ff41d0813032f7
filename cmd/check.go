package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
	"github.com/lorenzo-mcc/ani-sync/pkg/report"
	"github.com/lorenzo-mcc/ani-sync/pkg/storage"
	"github.com/tidwall/gjson"
)

// checkCmd audits the whole catalogue against AniList: every entry with a
// romaji title and a year must resolve to at least one result. Resolved
// titles are cached so reruns only probe what previously failed.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the catalogue against AniList",
	Long: `Probes AniList for every catalogue entry and records the ones that
return nothing. Resolved titles land in a local cache and are skipped on
the next run; unresolved ones are exported to a CSV with the failure
reason (not_found vs no_response).`,
	Run: func(cmd *cobra.Command, args []string) {
		runCheck(cmd)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("retry", false, "Only re-probe titles previously logged as no_response")
	checkCmd.Flags().Bool("no-cache", false, "Probe every entry, ignoring the resolved cache")
	checkCmd.Flags().StringP("output", "o", "", "Directory for the unresolved CSV (default from config)")
}

func cachePath() string {
	if p := viper.GetString("cache.path"); p != "" {
		return p
	}
	home, err := homedir.Dir()
	if err != nil {
		return ".anisync.sqlite"
	}
	return filepath.Join(home, ".anisync.sqlite")
}

func runCheck(cmd *cobra.Command) {
	nc := newNotionClient()
	ac := newAniListClient()
	ctx := context.Background()

	db, err := storage.Open(cachePath())
	if err != nil {
		utils.Log.Fatalf("Failed to open resolved cache: %v", err)
	}
	defer db.Close()

	retryOnly, _ := cmd.Flags().GetBool("retry")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	var targets []storage.Unresolved
	if retryOnly {
		targets, err = db.ListUnresolved(ctx, storage.ReasonNoResponse)
		if err != nil {
			utils.Log.Fatalf("Failed to list unresolved titles: %v", err)
		}
		utils.Log.Infof("Retrying %d titles with no previous response", len(targets))
	} else {
		targets, err = checkTargets(ctx, nc)
		if err != nil {
			utils.Log.Fatalf("Failed to load catalogue: %v", err)
		}
		utils.Log.Infof("Loaded %d checkable entries from the catalogue", len(targets))
	}

	var found, cached, unresolved int
	for i, t := range targets {
		if !noCache && !retryOnly {
			ok, err := db.IsResolved(ctx, t.Title)
			if err != nil {
				utils.Log.Warnf("Cache lookup failed for %q: %v", t.Title, err)
			} else if ok {
				cached++
				continue
			}
		}

		utils.Log.Debugf("[check] %d/%d probing: %s", i+1, len(targets), utils.Truncate(t.Title, 60))
		cands, err := ac.Search(ctx, t.Title, t.Year)
		switch {
		case err != nil:
			utils.Log.Warnf("[check] no response for %q: %v", t.Title, err)
			t.Reason = storage.ReasonNoResponse
			if err := db.RecordUnresolved(ctx, t); err != nil {
				utils.Log.Errorf("Failed to record unresolved title: %v", err)
			}
			unresolved++
		case len(cands) == 0:
			t.Reason = storage.ReasonNotFound
			if err := db.RecordUnresolved(ctx, t); err != nil {
				utils.Log.Errorf("Failed to record unresolved title: %v", err)
			}
			unresolved++
		default:
			if err := db.MarkResolved(ctx, t.Title); err != nil {
				utils.Log.Errorf("Failed to mark %q resolved: %v", t.Title, err)
			}
			found++
		}
	}

	rows, err := db.AllUnresolved(ctx)
	if err != nil {
		utils.Log.Errorf("Failed to read unresolved titles: %v", err)
	}
	if len(rows) > 0 {
		csvRows := make([][]string, 0, len(rows))
		for _, u := range rows {
			csvRows = append(csvRows, []string{u.English, u.Year, u.Format, u.Reason})
		}
		w := report.Writer{Dir: outputDir(cmd)}
		if name, err := w.WriteRows("unresolved.csv", []string{"Title", "Year", "Format", "Reason"}, csvRows); err != nil {
			utils.Log.Errorf("Failed to write unresolved CSV: %v", err)
		} else {
			utils.Log.Infof("Unresolved CSV saved: %s", name)
		}
	}

	total, err := db.ResolvedCount(ctx)
	if err != nil {
		utils.Log.Debugf("Resolved count unavailable: %v", err)
	}
	fmt.Fprintf(os.Stdout, "\ncheck: found %d, cached %d, unresolved %d (%d resolved in total)\n",
		found, cached, unresolved, total)
}

// checkTargets pages the catalogue and keeps the entries a probe can use:
// a romaji title plus a debut year.
func checkTargets(ctx context.Context, nc *notion.Client) ([]storage.Unresolved, error) {
	dbID := viper.GetString("notion.catalog_db")
	var targets []storage.Unresolved
	err := nc.QueryDatabase(ctx, dbID, nil, func(page gjson.Result) error {
		rec := notion.DecodeRecord(page)
		if rec.RomajiTitle == "" || rec.DebutYear == "" {
			return nil
		}
		targets = append(targets, storage.Unresolved{
			Title:   rec.RomajiTitle,
			English: rec.EnglishTitle,
			Year:    rec.DebutYear,
			Format:  rec.Format,
		})
		return nil
	})
	return targets, err
}
