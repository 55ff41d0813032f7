package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/ai"
	"github.com/lorenzo-mcc/ani-sync/pkg/report"
)

// extractCmd turns screenshots of watchlists into an import-ready title
// list using a vision model.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract anime titles from screenshots",
	Long: `Sends every image in a folder to the configured vision model and
collects the anime titles it reads, deduplicated case-insensitively, into
a list the import command can consume.`,
	Run: func(cmd *cobra.Command, args []string) {
		runExtract(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("dir", "d", "input/images", "Folder with .png/.jpg/.jpeg screenshots")
	extractCmd.Flags().String("out", "anime_list.txt", "Output file name for the title list")
	extractCmd.Flags().Bool("dry-run", false, "Print extracted titles without writing the list")
	extractCmd.Flags().StringP("output", "o", "", "Directory for the title list (default from config)")
}

func runExtract(cmd *cobra.Command) {
	requireConfig("openai.api_key")

	extractor, err := ai.NewExtractor(ai.Config{
		Provider: "openai",
		APIKey:   viper.GetString("openai.api_key"),
		Model:    viper.GetString("openai.model"),
	})
	if err != nil {
		utils.Log.Fatalf("Failed to build extractor: %v", err)
	}

	dir, _ := cmd.Flags().GetString("dir")
	images, err := listImages(dir)
	if err != nil {
		utils.Log.Fatalf("Failed to list images: %v", err)
	}
	if len(images) == 0 {
		fmt.Printf("No images found in %s. Add some and run again.\n", dir)
		return
	}
	utils.Log.Infof("Found %d images in %s", len(images), dir)

	var payloads [][]byte
	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			utils.Log.Warnf("Skipping unreadable image %s: %v", path, err)
			continue
		}
		payloads = append(payloads, data)
	}

	titles, err := extractor.ExtractTitles(context.Background(), payloads)
	if err != nil {
		utils.Log.Fatalf("Extraction failed: %v", err)
	}
	sort.Slice(titles, func(i, j int) bool {
		return strings.ToLower(titles[i]) < strings.ToLower(titles[j])
	})

	fmt.Printf("\nExtracted %d unique titles from %d images\n", len(titles), len(payloads))
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		for _, t := range titles {
			fmt.Println(t)
		}
		return
	}
	if len(titles) == 0 {
		return
	}

	out, _ := cmd.Flags().GetString("out")
	w := report.Writer{Dir: outputDir(cmd)}
	name, err := w.WriteTitles(out, titles)
	if err != nil {
		utils.Log.Fatalf("Failed to write title list: %v", err)
	}
	fmt.Printf("Title list saved to %s\n", name)
}

// listImages returns the screenshot files in a folder, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}
