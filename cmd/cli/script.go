package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evenger-io/evenger/internal/common"
	"github.com/evenger-io/evenger/internal/models"
	"github.com/evenger-io/evenger/internal/telnet"
)

var scriptCmd = &cobra.Command{
	Use:   "script <host:port> <file>",
	Short: "Run a telnet script against one console and print the transcript",
	Long: `Run a telnet script against one console and print the transcript.

Each line of the script is sent as is, except for the directives:
  EXPECT: <text>   wait for <text> before every following line
  TIMEOUT: <secs>  bound every following wait (default 5)
  SLEEP: <secs>    pause without touching the console`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := models.ParseConsoleURL(args[0])
		if err != nil {
			return err
		}

		text, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}

		script, err := telnet.ParseScript(string(text))
		if err != nil {
			return fmt.Errorf("%s: %w", args[1], err)
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		output, err := cfg.NewInterpreter().Execute(ctx, script, target)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {

	rootCmd.AddCommand(scriptCmd)
}
