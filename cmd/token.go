package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lorenzo-mcc/ani-sync/internal/utils"
	"github.com/lorenzo-mcc/ani-sync/pkg/anilist"
)

// tokenCmd fetches an AniList client-credentials token for the config file.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch an AniList API token via client credentials",
	Long: `Exchanges the configured anilist.client_id and anilist.client_secret
for a bearer token and prints it. Store it as anilist.token to raise the
import command's rate limits.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireConfig("anilist.client_id", "anilist.client_secret")

		token, err := anilist.ClientCredentialsToken(context.Background(), "",
			viper.GetString("anilist.client_id"),
			viper.GetString("anilist.client_secret"))
		if err != nil {
			utils.Log.Fatalf("Token request failed: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
