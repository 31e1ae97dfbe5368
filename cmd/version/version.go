package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidkik/foldersync/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of foldersync.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "foldersync version: %s\n", version.Version)
		},
	}
}
