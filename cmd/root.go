package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/anilist"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "anisync",
	Short: "Keep a Notion anime catalogue in sync with AniList.",
	Long: `anisync is a toolkit of one-directional sync jobs between a Notion anime
catalogue and the AniList metadata API: import new titles, fill missing
fields, refresh images, and audit the whole catalogue against AniList.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.anisync.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".anisync")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".anisync.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("notion.api_key", "")
	viper.SetDefault("notion.catalog_db", "")
	viper.SetDefault("notion.genres_db", "")
	viper.SetDefault("anilist.url", anilist.DefaultURL)
	viper.SetDefault("anilist.token", "")
	viper.SetDefault("anilist.client_id", "")
	viper.SetDefault("anilist.client_secret", "")
	viper.SetDefault("anilist.interval", anilist.DefaultInterval)
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "")
	viper.SetDefault("titles.file", "")
	viper.SetDefault("images.overwrite_header", true)
	viper.SetDefault("images.overwrite_property", true)
	viper.SetDefault("output.dir", "output")
	viper.SetDefault("cache.path", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// requireConfig exits with a diagnostic when a required setting is absent.
// Configuration errors are the only fatal error kind; they fire before any
// work starts.
func requireConfig(keys ...string) {
	var missing []string
	for _, k := range keys {
		if viper.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "Missing required configuration values: %v\n", missing)
		fmt.Fprintf(os.Stderr, "Set them in ~/.anisync.yaml or via environment variables.\n")
		os.Exit(1)
	}
}
