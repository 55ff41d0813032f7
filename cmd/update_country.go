package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
	"github.com/lorenzo-mcc/ani-sync/pkg/report"
)

// updateCountryCmd derives the Country select from the page's flag-emoji
// icon. Pure Notion pass, no AniList traffic.
var updateCountryCmd = &cobra.Command{
	Use:   "country",
	Short: "Set the Country select from the page's flag icon",
	Run: func(cmd *cobra.Command, args []string) {
		runUpdateCountry(cmd)
	},
}

func init() {
	updateCmd.AddCommand(updateCountryCmd)
}

func runUpdateCountry(cmd *cobra.Command) {
	nc := newNotionClient()
	ctx := context.Background()

	records, err := loadCatalogue(ctx, nc, cmd, nil)
	if err != nil {
		utils.Log.Fatalf("Failed to load catalogue: %v", err)
	}

	summary := &match.Summary{}
	for _, rec := range records {
		summary.Checked++

		country := catalog.CountryFromFlag(rec.Icon)
		if country == "" {
			utils.Log.Debugf("[country] %q has no flag icon", rec.EnglishTitle)
			summary.NotFound++
			summary.Results = append(summary.Results, match.Result{Record: rec, Outcome: match.OutcomeNotFound})
			continue
		}
		if country == rec.Country {
			summary.Skipped++
			summary.Results = append(summary.Results, match.Result{Record: rec, Outcome: match.OutcomeSkipped})
			continue
		}
		err := nc.UpdateProperties(ctx, rec.ID, map[string]interface{}{
			notion.PropCountry: notion.SelectProp(country),
		})
		if err != nil {
			utils.Log.Errorf("[country] write failed for %q: %v", rec.EnglishTitle, err)
			summary.Errors++
			summary.Results = append(summary.Results, match.Result{Record: rec, Outcome: match.OutcomeError, Err: err})
			continue
		}
		utils.Log.Infof("[country] %q -> %s", rec.EnglishTitle, country)
		summary.Updated++
		summary.Results = append(summary.Results, match.Result{Record: rec, Outcome: match.OutcomeAutoApplied, Applied: country})
	}

	w := report.Writer{Dir: outputDir(cmd)}
	if _, err := w.WriteUpdated("country", summary.Results); err != nil {
		utils.Log.Errorf("Failed to write updated report: %v", err)
	}
	report.PrintSummary(os.Stdout, "country", summary)
}
