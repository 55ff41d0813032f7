package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
)

// updateStudiosCmd syncs the Studios property with AniList's animation
// studios.
var updateStudiosCmd = &cobra.Command{
	Use:   "studios",
	Short: "Sync animation studios from AniList",
	Run: func(cmd *cobra.Command, args []string) {
		runUpdateStudios(cmd)
	},
}

func init() {
	updateCmd.AddCommand(updateStudiosCmd)
}

func runUpdateStudios(cmd *cobra.Command) {
	nc := newNotionClient()
	ctx := context.Background()

	// Every record is in scope: stale studio lists are refreshed, and the
	// pipeline skips entries whose value already matches.
	records, err := loadCatalogue(ctx, nc, cmd, nil)
	if err != nil {
		utils.Log.Fatalf("Failed to load catalogue: %v", err)
	}

	runPipeline(cmd, studiosJob(nc, records))
}

func studiosJob(nc *notion.Client, records []catalog.Record) match.Job {
	return match.Job{
		Name:    "studios",
		Records: records,
		// AniList finds these reliably by romaji title; the english one is
		// the fallback for entries without it.
		SearchTitle: func(r catalog.Record) string {
			if r.RomajiTitle != "" {
				return r.RomajiTitle
			}
			return r.EnglishTitle
		},
		Current: func(r catalog.Record) string { return r.Studios },
		Desired: func(c catalog.Candidate) string { return catalog.JoinStudios(c.AnimationStudios()) },
		Apply: func(ctx context.Context, rec catalog.Record, c catalog.Candidate) error {
			return nc.UpdateProperties(ctx, rec.ID, map[string]interface{}{
				notion.PropStudios: notion.RichTextProp(catalog.JoinStudios(c.AnimationStudios())),
			})
		},
	}
}
