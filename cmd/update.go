package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/anilist"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/match"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
	"github.com/lorenzo-mcc/ani-sync/pkg/report"
	"github.com/lorenzo-mcc/ani-sync/pkg/selection"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fill or refresh catalogue fields from AniList",
	Long: `Sync jobs that paginate the Notion catalogue and update a single
field family from AniList metadata: romaji titles, studios, images,
banners, country of origin, or watched genres.`,
}

// updateAllCmd runs every enabled update job back to back.
var updateAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every update job in sequence",
	Run: func(cmd *cobra.Command, args []string) {
		jobs := []struct {
			name string
			skip string
			run  func(*cobra.Command)
		}{
			{"romaji", "no-romaji", runUpdateRomaji},
			{"studios", "no-studios", runUpdateStudios},
			{"images", "no-images", runUpdateImages},
			{"banners", "no-banners", runUpdateBanners},
			{"country", "no-country", runUpdateCountry},
			{"genres", "no-genres", runUpdateGenres},
		}
		for _, j := range jobs {
			if skip, _ := cmd.Flags().GetBool(j.skip); skip {
				utils.Log.Infof("Skipping %s job", j.name)
				continue
			}
			utils.Log.Infof("Running %s job", j.name)
			j.run(cmd)
		}
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.AddCommand(updateAllCmd)

	updateCmd.PersistentFlags().StringP("titles", "t", "", "File with one title per line; restricts the job to those entries")
	updateCmd.PersistentFlags().BoolP("interactive", "i", true, "Prompt on ambiguous matches instead of skipping them")
	updateCmd.PersistentFlags().StringP("output", "o", "", "Directory for CSV/txt reports (default from config)")

	updateAllCmd.Flags().Bool("no-romaji", false, "Skip the romaji job")
	updateAllCmd.Flags().Bool("no-studios", false, "Skip the studios job")
	updateAllCmd.Flags().Bool("no-images", false, "Skip the images job")
	updateAllCmd.Flags().Bool("no-banners", false, "Skip the banners job")
	updateAllCmd.Flags().Bool("no-country", false, "Skip the country job")
	updateAllCmd.Flags().Bool("no-genres", false, "Skip the genres job")
}

// newNotionClient builds a Notion client from config, exiting on missing keys.
func newNotionClient() *notion.Client {
	requireConfig("notion.api_key", "notion.catalog_db")
	return notion.New(notion.Config{APIKey: viper.GetString("notion.api_key")})
}

// newAniListClient builds an AniList client from config.
func newAniListClient() *anilist.Client {
	return anilist.New(anilist.Config{
		URL:      viper.GetString("anilist.url"),
		Token:    viper.GetString("anilist.token"),
		Interval: viper.GetDuration("anilist.interval"),
	})
}

// loadCatalogue pages through the catalogue database and decodes every row
// matching the optional filter, then narrows the set to the allow-list when
// one is configured.
func loadCatalogue(ctx context.Context, nc *notion.Client, cmd *cobra.Command, filter map[string]interface{}) ([]catalog.Record, error) {
	dbID := viper.GetString("notion.catalog_db")
	var records []catalog.Record
	err := nc.QueryDatabase(ctx, dbID, filter, func(page gjson.Result) error {
		records = append(records, notion.DecodeRecord(page))
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Log.Infof("Loaded %d catalogue entries", len(records))

	titlesPath, _ := cmd.Flags().GetString("titles")
	sel, err := selection.Load(titlesPath)
	if err != nil {
		return nil, err
	}
	if sel != nil {
		records = selection.Apply(records, sel)
		utils.Log.Infof("Allow-list restricts the job to %d entries", len(records))
	}
	return records, nil
}

// runPipeline wires the shared search/prompt/log collaborators into a job,
// runs it, and writes the standard reports.
func runPipeline(cmd *cobra.Command, job match.Job) *match.Summary {
	interactive, _ := cmd.Flags().GetBool("interactive")
	job.Interactive = interactive

	p := match.Pipeline{
		Search: newAniListClient(),
		Prompt: newConsolePrompter(),
		Log:    utils.Log,
	}
	summary, err := p.Run(context.Background(), job)
	if err != nil {
		utils.Log.Errorf("[%s] run interrupted: %v", job.Name, err)
	}

	w := report.Writer{Dir: outputDir(cmd)}
	if _, err := w.WriteUpdated(job.Name, summary.Results); err != nil {
		utils.Log.Errorf("Failed to write updated report: %v", err)
	}
	if _, err := w.WriteSkipped(job.Name, summary.Results); err != nil {
		utils.Log.Errorf("Failed to write skipped report: %v", err)
	}
	if unmatched := summary.Unmatched(); len(unmatched) > 0 {
		titles := make([]string, 0, len(unmatched))
		for _, rec := range unmatched {
			titles = append(titles, rec.EnglishTitle)
		}
		if _, err := w.WriteTitles(job.Name+"_unmatched.txt", titles); err != nil {
			utils.Log.Errorf("Failed to write unmatched list: %v", err)
		}
	}
	report.PrintSummary(os.Stdout, job.Name, summary)
	return summary
}

func outputDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("output"); dir != "" {
		return dir
	}
	return viper.GetString("output.dir")
}
