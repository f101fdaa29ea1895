package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evenger-io/evenger/internal/common"
)

var jumpCmd = &cobra.Command{
	Use:   "jump <node>",
	Short: "Print the console address of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		client, err := newLabClient(ctx, cmd)
		if err != nil {
			return err
		}

		target, err := client.NodeConsole(ctx, args[0])
		if err != nil {
			return err
		}

		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			fmt.Fprintln(cmd.OutOrStdout(), target.Address())
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", headerStyle.Render(args[0]), infoStyle.Render(target.String()))
		return nil
	},
}

func init() {
	addLabFlags(jumpCmd)
	jumpCmd.Flags().Bool("plain", false, "Print only host:port")

	rootCmd.AddCommand(jumpCmd)
}
