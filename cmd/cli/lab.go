package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/evenger-io/evenger/internal/eveng"
)

var connectionValidator = validator.New(validator.WithRequiredStructEnabled())

// addLabFlags adds the flags selecting an existing lab, for commands that do
// not read a workbook.
func addLabFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", "", "EVE-NG server URL (overrides eveng.server_url)")
	cmd.Flags().String("username", "", "EVE-NG username (overrides eveng.username)")
	cmd.Flags().String("password", "", "EVE-NG password (overrides eveng.password)")
	cmd.Flags().String("lab", "", "Lab path such as folder/lab (overrides eveng.lab_path)")
}

// labConnection merges the lab flags over the configuration and asks for a
// missing password when attached to a terminal.
func labConnection(cmd *cobra.Command) (eveng.Connection, error) {
	conn := cfg.GetConnection()

	overrides := map[string]*string{
		"server":   &conn.ServerURL,
		"username": &conn.Username,
		"password": &conn.Password,
		"lab":      &conn.LabPath,
	}
	for flag, field := range overrides {
		if value, err := cmd.Flags().GetString(flag); err == nil && len(value) > 0 {
			*field = value
		}
	}

	if err := connectionValidator.Struct(conn); err != nil {
		return conn, fmt.Errorf("incomplete EVE-NG connection, set it in config or flags: %w", err)
	}

	if len(conn.Password) == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := promptPassword(conn)
		if err != nil {
			return conn, err
		}
		conn.Password = password
	}

	return conn, nil
}

func promptPassword(conn eveng.Connection) (string, error) {
	var password string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Password for %s", conn.Username)).
				Description(conn.ServerURL).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("password prompt cancelled: %w", err)
	}
	return password, nil
}

// newLabClient logs in to the lab selected by config and flags.
func newLabClient(ctx context.Context, cmd *cobra.Command) (*eveng.Client, error) {
	conn, err := labConnection(cmd)
	if err != nil {
		return nil, err
	}

	client := eveng.NewClient(ctx, conn, cfg.GetClientOptions())
	if !client.IsAuthenticated() {
		return nil, fmt.Errorf("%w: login to %s failed", eveng.ErrNotAuthenticated, conn.ServerURL)
	}
	return client, nil
}
