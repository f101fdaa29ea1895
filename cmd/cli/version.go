package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evenger-io/evenger/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	// Version needs no configuration
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "evenger %s\n", common.GetVersion())
	},
}

func init() {

	rootCmd.AddCommand(versionCmd)
}
