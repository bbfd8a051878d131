package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeSubreddits []string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify stored posts and comments that have no verdict yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		sourceIDs, err := resolveSourceIDs(cmd.Context(), a, analyzeSubreddits)
		if err != nil {
			return err
		}

		summary, err := a.service.Analyze(cmd.Context(), sourceIDs)
		if err != nil {
			return err
		}

		fmt.Printf("posts: %d analyzed, %d leads\n", summary.Posts.Analyzed, summary.Posts.Leads)
		fmt.Printf("comments: %d analyzed, %d leads\n", summary.Comments.Analyzed, summary.Comments.Leads)
		return nil
	},
}

// resolveSourceIDs maps subreddit names to their stored ids. Unknown
// names are an error rather than a silent no-op.
func resolveSourceIDs(ctx context.Context, a *app, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	subs, err := a.store.SubredditsByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	known := make(map[string]string, len(subs))
	for _, sub := range subs {
		known[sub.Name] = sub.ID
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown subreddit %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeSubreddits, "subreddit", nil, "restrict analysis to these subreddits")
	rootCmd.AddCommand(analyzeCmd)
}
