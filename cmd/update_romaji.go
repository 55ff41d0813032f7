package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
)

// updateRomajiCmd fills the Romaji Title property for entries missing it.
var updateRomajiCmd = &cobra.Command{
	Use:   "romaji",
	Short: "Fill missing romaji titles from AniList",
	Run: func(cmd *cobra.Command, args []string) {
		runUpdateRomaji(cmd)
	},
}

func init() {
	updateCmd.AddCommand(updateRomajiCmd)
}

func runUpdateRomaji(cmd *cobra.Command) {
	nc := newNotionClient()
	ctx := context.Background()

	records, err := loadCatalogue(ctx, nc, cmd, nil)
	if err != nil {
		utils.Log.Fatalf("Failed to load catalogue: %v", err)
	}

	// Only entries with an empty romaji title are in scope.
	var missing []catalog.Record
	for _, rec := range records {
		if rec.RomajiTitle == "" {
			missing = append(missing, rec)
		}
	}
	utils.Log.Infof("%d entries without a romaji title", len(missing))

	runPipeline(cmd, match.Job{
		Name:    "romaji",
		Records: missing,
		Current: func(r catalog.Record) string { return r.RomajiTitle },
		Desired: func(c catalog.Candidate) string { return strings.TrimSpace(c.TitleRomaji) },
		Apply: func(ctx context.Context, rec catalog.Record, c catalog.Candidate) error {
			return nc.UpdateProperties(ctx, rec.ID, map[string]interface{}{
				notion.PropRomajiTitle: notion.RichTextProp(strings.TrimSpace(c.TitleRomaji)),
			})
		},
	})
}
