package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// debugValidateCmd represents the debug validate command
var debugValidateCmd = &cobra.Command{
	Use:   "validate [uri]",
	Short: "Validate a news feed document.",
	Long:  `Validate a news feed document against the GetNewsForApp schema.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSourcer(cmd.InOrStdin())
		if err != nil {
			return err
		}

		if _, err := s.Source(uriArg(args)); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugValidateCmd)
}
