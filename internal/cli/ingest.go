package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var ingestLimit int

var ingestCmd = &cobra.Command{
	Use:   "ingest <subreddit> [subreddit...]",
	Short: "Fetch and persist posts and recent comments for subreddits",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		results, err := a.service.Ingest(cmd.Context(), args, ingestLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "posts per subreddit (1-100, default 25)")
	rootCmd.AddCommand(ingestCmd)
}
