package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/andrewhowdencom/newsrender/internal/formatter"
	"github.com/andrewhowdencom/newsrender/internal/ingest"
	"github.com/andrewhowdencom/newsrender/internal/model"
	"github.com/andrewhowdencom/newsrender/internal/sourcer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [uri...]",
	Short: "Turn Steam news feed documents into posts.",
	Long: `Turn Steam news feed documents into posts.

Each document is a GetNewsForApp response in JSON or YAML, read from a path,
a file:// URI, or stdin ("-", the default). Posts whose gid is passed with
--known are skipped. Invalid documents are reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if err := formatter.Check(output); err != nil {
			return err
		}
		knownGids, _ := cmd.Flags().GetStringSlice("known")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if len(args) == 0 {
			args = []string{sourcer.StdinURI}
		}

		s, err := buildSourcer(cmd.InOrStdin())
		if err != nil {
			return err
		}

		ing, err := buildIngester(ingest.Options{
			Workers:  viper.GetInt("ingest.workers"),
			MaxPosts: viper.GetInt("ingest.max_posts"),
			DryRun:   dryRun,
		})
		if err != nil {
			return err
		}

		known := make(map[string]bool, len(knownGids))
		for _, gid := range knownGids {
			known[gid] = true
		}

		var posts []model.Post
		for _, uri := range args {
			source, err := s.Source(uri)
			if errors.Is(err, sourcer.ErrInvalidDocument) {
				slog.Error("skipping invalid document", "uri", uri, "error", err)
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to source %s: %w", uri, err)
			}

			batch, err := ing.Run(cmd.Context(), source.AppNews.NewsItems, known)
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", uri, err)
			}
			for _, p := range batch {
				known[p.Gid] = true
			}
			slog.Info("ingested document", "uri", uri, "items", len(source.AppNews.NewsItems), "posts", len(batch))
			posts = append(posts, batch...)
		}

		return formatter.Write(cmd.OutOrStdout(), output, posts)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("output", "o", formatter.FormatJSON, "Output format (json, yaml, table)")
	ingestCmd.Flags().StringSlice("known", nil, "Gids of posts that are already stored")
	ingestCmd.Flags().Bool("dry-run", false, "Render posts without fetching or writing covers")
	ingestCmd.Flags().Int("workers", 4, "Posts processed at once")
	ingestCmd.Flags().Int("max-posts", 9, "New posts taken from each document, newest first (0 for all)")
}
