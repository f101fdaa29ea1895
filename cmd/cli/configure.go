package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evenger-io/evenger/internal/batch"
	"github.com/evenger-io/evenger/internal/common"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Push <node>.txt telnet scripts to the running nodes of a lab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := cfg.Batch.ConfigFolder
		if value, _ := cmd.Flags().GetString("config-folder"); len(value) > 0 {
			folder = value
		}
		if len(folder) == 0 {
			return errors.New("no config folder, set batch.config_folder or --config-folder")
		}

		logOutput := cfg.Batch.LogOutput
		if cmd.Flags().Changed("log-output") {
			logOutput, _ = cmd.Flags().GetBool("log-output")
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		client, err := newLabClient(ctx, cmd)
		if err != nil {
			return err
		}

		configured, failed, err := batch.ConfigureWithTelnet(ctx, nil, client, cfg.NewInterpreter(), folder, logOutput)
		printConfigured(cmd, configured, failed)
		if err != nil {
			return err
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d node(s) not configured", len(failed))
		}
		return nil
	},
}

func printConfigured(cmd *cobra.Command, configured, failed []string) {
	out := cmd.OutOrStdout()
	if len(configured) > 0 {
		fmt.Fprintf(out, "%s %s\n", successStyle.Render("Configured:"), strings.Join(configured, ", "))
	}
	if len(failed) > 0 {
		fmt.Fprintf(out, "%s %s\n", errorStyle.Render("Failed:"), strings.Join(failed, ", "))
	}
	if len(configured) == 0 && len(failed) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No node had both a telnet console and a script"))
	}
}

func init() {
	addLabFlags(configureCmd)
	configureCmd.Flags().String("config-folder", "", "Folder holding <node>.txt scripts")
	configureCmd.Flags().Bool("log-output", false, "Log each node's console transcript")

	rootCmd.AddCommand(configureCmd)
}
