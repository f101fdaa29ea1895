package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/evenger-io/evenger/internal/config"
)

// Global configuration instance
var cfg *config.Config

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")

	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if len(cfg.File()) > 0 {
		logrus.WithField("file", cfg.File()).Debugln("Loaded configuration")
	}

	return nil
}

var rootCmd = &cobra.Command{
	Use:   "evenger",
	Short: "Build and configure EVE-NG labs from a workbook",
	Long: `evenger builds EVE-NG labs from a workbook describing the lab, its nodes,
networks and links, then optionally boots the nodes and pushes configuration
to their telnet consoles.

If no config file is specified, evenger looks in the following locations:
  - ./config.yaml
  - ./config/config.yaml
  - /etc/evenger/config.yaml
  - ~/.config/evenger/config.yaml`,
	PersistentPreRunE: preRunConfigE,
	SilenceUsage:      true,
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default is ./config.yaml)")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}
