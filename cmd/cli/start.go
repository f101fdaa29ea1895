package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evenger-io/evenger/internal/common"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start every node of a lab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		client, err := newLabClient(ctx, cmd)
		if err != nil {
			return err
		}

		if err := client.StartAllNodes(ctx); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Nodes started in "+client.LabPath()))
		return nil
	},
}

func init() {
	addLabFlags(startCmd)

	rootCmd.AddCommand(startCmd)
}
