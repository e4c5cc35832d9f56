package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livp123/axtext/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show the current version of axtext`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "axtext %s\n", version.Version)
		},
	}
}
