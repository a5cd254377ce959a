package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var debugExtractCmd = &cobra.Command{
	Use:   "extract [uri]",
	Short: "Show the cover image found in an HTML body.",
	Long: `Show the cover image found in an HTML body.

Prints the image URL, or nothing if there is none, followed by the body with
the image removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extractor, err := buildExtractor()
		if err != nil {
			return err
		}

		data, err := buildFetcher(cmd.InOrStdin()).Fetch(uriArg(args))
		if err != nil {
			return err
		}

		ref, body, _ := extractor.Extract(string(data))
		fmt.Fprintln(cmd.OutOrStdout(), "URL:", ref.URL)
		fmt.Fprintln(cmd.OutOrStdout(), "Body:", body)
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugExtractCmd)
}
