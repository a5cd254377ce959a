package cmd

import (
	"fmt"

	"github.com/andrewhowdencom/newsrender/internal/processor"
	"github.com/spf13/cobra"
)

var debugRenderCmd = &cobra.Command{
	Use:   "render [uri]",
	Short: "Render BBCode text as HTML.",
	Long: `Render BBCode text as HTML.

The text is read from a path, a file:// URI, or stdin. --pass selects the
tag rewriter (1), the cleanup linker (2), or both (all).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, _ := cmd.Flags().GetString("pass")

		var stack processor.ProcessorStack
		switch pass {
		case "1":
			stack = processor.ProcessorStack{processor.NewTagRewriter()}
		case "2":
			stack = processor.ProcessorStack{processor.NewCleanupLinker()}
		case "all":
			stack = processor.NewBBCodeStack()
		default:
			return fmt.Errorf("unknown pass %q, expected 1, 2 or all", pass)
		}

		data, err := buildFetcher(cmd.InOrStdin()).Fetch(uriArg(args))
		if err != nil {
			return err
		}

		content, err := stack.Process(string(data), nil)
		if err != nil {
			return fmt.Errorf("failed to render content: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugRenderCmd)
	debugRenderCmd.Flags().String("pass", "all", "Pass to run (1, 2, all)")
}
