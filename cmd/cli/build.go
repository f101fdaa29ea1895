package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evenger-io/evenger/internal/batch"
	"github.com/evenger-io/evenger/internal/common"
)

var buildCmd = &cobra.Command{
	Use:   "build <workbook>",
	Short: "Build a lab from an .xlsx, .yaml or .json workbook",
	Long: `Build a lab from a workbook.

The _LAB_INFO sheet holds the connection (eveng_server_url, username,
password, lab_path). Every other sheet named after an operation
(add_node_sros_cpm, add_network, connect_node_to_node, ...) is applied
row by row in workbook order. Failing rows are logged and skipped.

add_node_custom rows carry a custom_json_text column: a JSON node body whose
string values may hold jq expressions over the row, such as "${ .name }".
Older {{ name }} placeholders are rewritten to ${ .name }.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	wb, err := batch.Open(args[0])
	if err != nil {
		return err
	}

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Building lab from "+args[0]))
	if opts.AutoStart && len(opts.ConfigFolder) > 0 {
		fmt.Fprintln(out, mutedStyle.Render("Nodes get "+common.FormatDurationRemaining(opts.BootTime)+" to boot before configuration"))
	}

	result, err := batch.NewDriver(opts).Run(ctx, wb)
	if err != nil {
		return err
	}

	printResult(cmd, result)
	return nil
}

func buildOptions(cmd *cobra.Command) (batch.Options, error) {
	opts := cfg.GetBatchOptions()
	flags := cmd.Flags()

	if flags.Changed("auto-start") {
		opts.AutoStart, _ = flags.GetBool("auto-start")
	}
	if flags.Changed("log-output") {
		opts.LogOutput, _ = flags.GetBool("log-output")
	}
	if value, _ := flags.GetString("config-folder"); len(value) > 0 {
		opts.ConfigFolder = value
	}
	if value, _ := flags.GetString("jump-node"); len(value) > 0 {
		opts.JumpNode = value
	}
	if value, _ := flags.GetString("boot-time"); len(value) > 0 {
		bootTime, err := common.ParseDuration(value)
		if err != nil {
			return opts, fmt.Errorf("--boot-time: %w", err)
		}
		opts.BootTime = bootTime
	}

	return opts, nil
}

func printResult(cmd *cobra.Command, result *batch.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s %s\n", statusBadgeStyle.Render(result.LabPath), mutedStyle.Render("run "+result.RunID))

	for _, sheet := range result.Sheets {
		line := fmt.Sprintf("  %-24s %s", sheet.Name, successStyle.Render(fmt.Sprintf("%d applied", sheet.Applied)))
		if sheet.Failed > 0 {
			line += " " + errorStyle.Render(fmt.Sprintf("%d failed", sheet.Failed))
		}
		fmt.Fprintln(out, line)
	}

	if result.Started {
		fmt.Fprintln(out, successStyle.Render("Nodes started"))
	}
	if len(result.Configured) > 0 || len(result.ConfigFailures) > 0 {
		printConfigured(cmd, result.Configured, result.ConfigFailures)
	}
	if result.Jump != nil {
		fmt.Fprintf(out, "%s %s\n", headerStyle.Render("Jump:"), infoStyle.Render(result.Jump.String()))
	}

	if failed := result.FailedRows(); failed > 0 {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("%d row(s) failed, see the log above", failed)))
	}
	if recorder := cfg.GetRecorder(); recorder != nil {
		for _, entry := range recorder.GetRunEvents(result.RunID) {
			fmt.Fprintf(out, "  %s %s %s\n", errorStyle.Render(entry.Level.String()), entry.Message, mutedStyle.Render(entry.ErrorText()))
		}
	}
}

func init() {
	buildCmd.Flags().Bool("auto-start", false, "Start all nodes once the lab is built")
	buildCmd.Flags().String("config-folder", "", "Folder holding <node>.txt telnet scripts, applied after boot")
	buildCmd.Flags().String("boot-time", "", "Time to let nodes boot before configuring them (180, 3m or PT3M)")
	buildCmd.Flags().String("jump-node", "", "Node whose console address is printed at the end")
	buildCmd.Flags().Bool("log-output", false, "Log each node's console transcript")

	rootCmd.AddCommand(buildCmd)
}
