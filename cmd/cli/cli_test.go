package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenger-io/evenger/internal/eveng/evengtest"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: error\n"), 0o600))

	// cobra keeps flag values between executions
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--config", configPath))
	err := rootCmd.Execute()
	return buf.String(), err
}

func labFlags(server *evengtest.Server, lab string) []string {
	return []string{
		"--server", server.URL,
		"--username", server.Username,
		"--password", server.Password,
		"--lab", lab,
	}
}

func TestBuildCommand(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	workbook := filepath.Join(t.TempDir(), "lab.yaml")
	require.NoError(t, os.WriteFile(workbook, []byte(fmt.Sprintf(`lab:
  eveng_server_url: %s
  username: admin
  password: eve
  lab_path: cli/demo
sheets:
  - name: add_node_linux
    rows:
      - {image: linux-centos7, name: jump}
  - name: add_network
    rows:
      - {name: mgmt, type: pnet0}
      - {name: broken}
`, server.URL)), 0o600))

	out, err := executeCommand(t, "build", workbook, "--jump-node", "jump")
	require.NoError(t, err)

	assert.Contains(t, out, "cli/demo")
	assert.Contains(t, out, "1 applied")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "vnc://127.0.0.1:5901")

	_, ok := server.Labs()["/cli/demo"]
	assert.True(t, ok)
}

func TestBuildCommand_BadBootTime(t *testing.T) {
	_, err := executeCommand(t, "build", "missing.yaml", "--boot-time", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--boot-time")
}

func TestStartAndJumpCommands(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()
	server.AddNode("pe1", "telnet", "e0")

	_, err := executeCommand(t, append([]string{"start"}, labFlags(server, "cli/demo")...)...)
	require.NoError(t, err)
	assert.True(t, server.Started())

	out, err := executeCommand(t, append([]string{"jump", "pe1", "--plain"}, labFlags(server, "cli/demo")...)...)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:32769\n", out)
}

func TestLabCommands_NeedConnection(t *testing.T) {
	_, err := executeCommand(t, "start", "--server", "", "--lab", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete EVE-NG connection")
}

func TestLabCommands_BadCredentials(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	flags := labFlags(server, "cli/demo")
	flags[5] = "wrong"

	_, err := executeCommand(t, append([]string{"start"}, flags...)...)
	require.Error(t, err)
	assert.False(t, server.Started())
}

func TestConfigureCommand_NeedsFolder(t *testing.T) {
	_, err := executeCommand(t, "configure")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config folder")
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "evenger ")
}
