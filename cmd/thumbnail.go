package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotAnImage = errors.New("not a decodable image")

// thumbnailCmd represents the thumbnail command
var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail URL DEST",
	Short: "Fetch an image and store it as a cover.",
	Long: `Fetch an image and store it as a cover.

The image is shrunk to fit 989x427, keeping its aspect ratio, and written to
DEST as a JPEG.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		thumbs, err := buildThumbnailer()
		if err != nil {
			return err
		}

		saved, err := thumbs.Save(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if !saved {
			return fmt.Errorf("%s: %w", args[0], errNotAnImage)
		}

		fmt.Fprintln(cmd.OutOrStdout(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(thumbnailCmd)
}
