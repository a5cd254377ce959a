package cmd

import "github.com/spf13/cobra"

// debugCmd groups commands that run one stage of the pipeline on its own.
var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Run single pipeline stages.",
}

func init() {
	rootCmd.AddCommand(debugCmd)
}
