package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
	"github.com/lorenzo-mcc/ani-sync/pkg/notion"
	"github.com/lorenzo-mcc/ani-sync/pkg/report"
)

// importCmd reads a plain-text title list and creates a fully populated
// catalogue page for each entry, one interactive pick at a time.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import new anime from a title list into the catalogue",
	Long: `Reads one title per line (an optional "(S#)" suffix records the
watched seasons), searches AniList for each, and creates a catalogue page
with the full property set: titles, format, year, source, country, studios,
genre relations, cover and banner art.`,
	Run: func(cmd *cobra.Command, args []string) {
		runImport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("file", "f", "input/anime_list.txt", "Title list, one per line")
	importCmd.Flags().Bool("force", false, "Update existing pages instead of skipping duplicates")
	importCmd.Flags().StringP("output", "o", "", "Directory for the unmatched-title report (default from config)")
}

func runImport(cmd *cobra.Command) {
	requireConfig("notion.api_key", "notion.catalog_db", "notion.genres_db")
	nc := newNotionClient()
	ac := newAniListClient()
	ctx := context.Background()

	path, _ := cmd.Flags().GetString("file")
	force, _ := cmd.Flags().GetBool("force")
	lines, err := readTitleLines(path)
	if err != nil {
		utils.Log.Fatalf("Failed to read title list: %v", err)
	}
	utils.Log.Infof("Importing %d titles from %s", len(lines), path)

	dbID := viper.GetString("notion.catalog_db")
	genresDB := viper.GetString("notion.genres_db")
	in := bufio.NewReader(os.Stdin)

	var added, updated, exists, notFound int
	var unmatched []string

	for _, line := range lines {
		search, full := catalog.SplitSeasonSuffix(line)
		fmt.Printf("\nSearching for: %s\n", search)

		cands, err := ac.Search(ctx, search, "")
		if err != nil {
			utils.Log.Warnf("Search failed for %q: %v", search, err)
			notFound++
			unmatched = append(unmatched, search)
			continue
		}
		if len(cands) == 0 {
			fmt.Printf("No results found for %q.\n", search)
			notFound++
			unmatched = append(unmatched, search)
			continue
		}

		sortCandidates(cands)
		idx := pickCandidate(in, cands)
		if idx < 0 {
			unmatched = append(unmatched, search)
			continue
		}
		c := cands[idx]

		outcome, err := upsertEntry(ctx, nc, dbID, genresDB, c, full, force)
		switch {
		case err != nil:
			utils.Log.Errorf("Failed to sync %q: %v", search, err)
			unmatched = append(unmatched, search)
		case outcome == "created":
			fmt.Printf("Added: %s\n", c.Title())
			added++
		case outcome == "updated":
			fmt.Printf("Updated: %s\n", c.Title())
			updated++
		default: // duplicate without --force
			fmt.Printf("Skipping duplicate: %s already exists\n", c.Title())
			exists++
			unmatched = append(unmatched, search)
		}
	}

	if len(unmatched) > 0 {
		w := report.Writer{Dir: outputDir(cmd)}
		if name, err := w.WriteTitles("unmatched_anime.txt", unmatched); err != nil {
			utils.Log.Errorf("Failed to write unmatched list: %v", err)
		} else {
			fmt.Printf("\nUnmatched titles saved to %s\n", name)
		}
	}
	fmt.Printf("\nimport: processed %d, added %d, updated %d, duplicates %d, not found %d\n",
		len(lines), added, updated, exists, notFound)
}

// readTitleLines loads the input list, skipping blanks and comments.
func readTitleLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// sortCandidates orders TV entries first, then by debut year ascending;
// entries without a year sink to the bottom of their group.
func sortCandidates(cands []catalog.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		ti, tj := cands[i].Format == "TV", cands[j].Format == "TV"
		if ti != tj {
			return ti
		}
		yi, yj := cands[i].StartYear, cands[j].StartYear
		if yi == 0 {
			yi = 1 << 30
		}
		if yj == 0 {
			yj = 1 << 30
		}
		return yi < yj
	})
}

// pickCandidate lists the results and reads a 1-based pick; anything else
// skips the title.
func pickCandidate(in *bufio.Reader, cands []catalog.Candidate) int {
	fmt.Println("\nResults found:")
	for i, c := range cands {
		year := "Unknown"
		if c.StartYear > 0 {
			year = strconv.Itoa(c.StartYear)
		}
		fmt.Printf("%d. %s / %s — Format: %s, Status: %s, Year: %s\n",
			i+1, c.TitleRomaji, c.TitleEnglish, c.Format, c.Status, year)
	}
	fmt.Printf("\nSelect a number (or press enter to skip): ")
	line, _ := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "skip") {
		return -1
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(cands) {
		fmt.Println("Invalid selection.")
		return -1
	}
	return n - 1
}

// upsertEntry builds the full property set for a candidate and creates the
// page, or updates it when --force targets an existing title. Returns
// "created", "updated" or "skipped".
func upsertEntry(ctx context.Context, nc *notion.Client, dbID, genresDB string, c catalog.Candidate, fullTitle string, force bool) (string, error) {
	display := catalog.SelectDisplayTitle(c.TitleEnglish, c.Synonyms, c.TitleRomaji, fullTitle, nil)

	existing, err := nc.FindPageByTitle(ctx, dbID, notion.PropEnglishTitle, display)
	if err != nil {
		return "", err
	}
	if existing != "" && !force {
		return "skipped", nil
	}

	genreIDs, err := nc.ResolveRelationIDs(ctx, genresDB, "Name", catalog.FilterGenres(c.Genres))
	if err != nil {
		return "", err
	}

	var yearPtr *int
	if c.StartYear > 0 {
		year := c.StartYear
		yearPtr = &year
	}

	format := catalog.FormatDisplay(c.Format)
	props := map[string]interface{}{
		notion.PropEnglishTitle: notion.TitleProp(display),
		notion.PropRomajiTitle:  notion.RichTextProp(strings.TrimSpace(c.TitleRomaji)),
		notion.PropSource:       notion.SelectProp(catalog.SourceDisplay(c.Source)),
		notion.PropCover:        notion.FilesProp("Cover", c.CoverImageXL),
		notion.PropCountry:      notion.SelectProp(catalog.CountryDisplay(c.Country)),
		notion.PropFormat:       notion.SelectProp(format),
		notion.PropDebutYear:    notion.NumberProp(yearPtr),
		notion.PropStudios:      notion.RichTextProp(catalog.JoinStudios(c.AnimationStudios())),
		notion.PropGenres:       notion.RelationProp(genreIDs),
	}
	// One-shot formats have no per-season progress to track.
	if format != "Movie" && format != "Special" {
		seasons := catalog.ParseSeason(fullTitle)
		episodes := 0
		props[notion.PropWatchedSeasons] = notion.NumberProp(&seasons)
		props[notion.PropWatchedEpisodes] = notion.NumberProp(&episodes)
	}

	icon := catalog.CountryIcon(c.Country)
	if existing != "" {
		if err := nc.UpdatePage(ctx, existing, icon, c.BannerImage, props); err != nil {
			return "", err
		}
		return "updated", nil
	}
	if err := nc.CreatePage(ctx, dbID, icon, c.BannerImage, props); err != nil {
		return "", err
	}
	return "created", nil
}
