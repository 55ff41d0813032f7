package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
)

// updateBannersCmd sets the page header image from AniList's banner art.
var updateBannersCmd = &cobra.Command{
	Use:   "banners",
	Short: "Set page header banners from AniList",
	Run: func(cmd *cobra.Command, args []string) {
		runUpdateBanners(cmd)
	},
}

func init() {
	updateCmd.AddCommand(updateBannersCmd)
}

func runUpdateBanners(cmd *cobra.Command) {
	nc := newNotionClient()
	ctx := context.Background()

	records, err := loadCatalogue(ctx, nc, cmd, nil)
	if err != nil {
		utils.Log.Fatalf("Failed to load catalogue: %v", err)
	}

	overwrite := viper.GetBool("images.overwrite_header")
	var scope []catalog.Record
	for _, rec := range records {
		if overwrite || !rec.HasBanner {
			scope = append(scope, rec)
		}
	}
	utils.Log.Infof("%d entries in scope for banner refresh (overwrite=%t)", len(scope), overwrite)

	runPipeline(cmd, match.Job{
		Name:    "banners",
		Records: scope,
		// Notion only exposes header presence, not its URL, so the current
		// value is always treated as empty within the selected scope. A
		// candidate without banner art resolves to skipped.
		Current: func(r catalog.Record) string { return "" },
		Desired: func(c catalog.Candidate) string { return c.BannerImage },
		Apply: func(ctx context.Context, rec catalog.Record, c catalog.Candidate) error {
			return nc.UpdatePage(ctx, rec.ID, "", c.BannerImage, nil)
		},
	})
}
