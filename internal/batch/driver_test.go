package batch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenger-io/evenger/internal/eveng"
	"github.com/evenger-io/evenger/internal/eveng/evengtest"
	"github.com/evenger-io/evenger/internal/models"
	"github.com/evenger-io/evenger/internal/telnet"
)

func labWorkbook(t *testing.T, server *evengtest.Server, sheets string) Workbook {
	t.Helper()

	text := fmt.Sprintf(`lab:
  eveng_server_url: %s
  username: %s
  password: %s
  lab_path: demo/core
sheets:
%s`, server.URL, server.Username, server.Password, sheets)

	wb, err := ParseYAML([]byte(text))
	require.NoError(t, err)
	return wb
}

// scriptedSession answers every wait and drain with nothing and records writes.
type scriptedSession struct {
	target models.ConsoleTarget
	writes *[]string
}

func (s *scriptedSession) ReadUntil(string, time.Duration) ([]byte, error) { return []byte("#"), nil }
func (s *scriptedSession) Drain() ([]byte, error)                          { return nil, nil }
func (s *scriptedSession) Close() error                                    { return nil }
func (s *scriptedSession) WriteLine(line string) error {
	*s.writes = append(*s.writes, fmt.Sprintf("%d %s", s.target.Port, line))
	return nil
}

func TestDriver_BuildsTopology(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	wb := labWorkbook(t, server, `
  - name: add_node_sros_cpm
    rows:
      - {image: timoscpm-20.7.R2, name: pe1, timos_line: "slot=A chassis=SR-12 card=cpm5", left: 100, top: 100}
      - {image: timoscpm-20.7.R2, name: pe2, left: 300, top: 100}
  - name: add_node_linux
    rows:
      - {image: linux-centos7, name: jump, cpu: 1, ram: 1024}
  - name: add_network
    rows:
      - {name: mgmt, type: pnet0, left: 200, top: 300}
  - name: connect_node_to_bridge
    rows:
      - {node_name: pe1, node_port: e0, bridge_name: mgmt}
      - {node_name: pe2, node_port: e0, bridge_name: mgmt}
  - name: connect_node_to_node
    rows:
      - {first_node: pe1, first_port: e1, second_node: pe2, second_port: e1}
  - name: unrelated_notes
    rows:
      - {note: ignored}
`)

	driver := NewDriver(Options{JumpNode: "jump"})
	result, err := driver.Run(context.Background(), wb)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "demo/core", result.LabPath)
	assert.Equal(t, []SheetResult{
		{Name: "add_node_sros_cpm", Applied: 2},
		{Name: "add_node_linux", Applied: 1},
		{Name: "add_network", Applied: 1},
		{Name: "connect_node_to_bridge", Applied: 2},
		{Name: "connect_node_to_node", Applied: 1},
	}, result.Sheets)
	assert.Zero(t, result.FailedRows())

	_, ok := server.Labs()["/demo/core"]
	assert.True(t, ok)

	pe1 := server.NodeByName("pe1")
	require.NotNil(t, pe1)
	assert.Equal(t, 1, pe1.Attached["0"])
	assert.Equal(t, 2, pe1.Attached["1"])
	assert.Equal(t, 2, server.NodeByName("pe2").Attached["1"])

	require.NotNil(t, result.Jump)
	assert.Equal(t, "vnc", result.Jump.Scheme)
	assert.False(t, result.Started)
}

func TestDriver_FailingRowDoesNotStopSheet(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	wb := labWorkbook(t, server, `
  - name: add_network
    rows:
      - {name: net1, type: bridge}
      - {name: net2, type: bridge}
      - {name: net3}
      - {name: net4, type: bridge}
`)

	result, err := NewDriver(Options{}).Run(context.Background(), wb)
	require.NoError(t, err)

	assert.Equal(t, []SheetResult{{Name: "add_network", Applied: 3, Failed: 1}}, result.Sheets)

	var names []string
	for _, n := range server.Networks() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"net1", "net2", "net4"}, names)
}

func TestDriver_LabCreationFailureIsFatal(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()
	server.Fail = func(method, path string) bool {
		return method == http.MethodPost && path == "/api/labs"
	}

	wb := labWorkbook(t, server, `
  - name: add_network
    rows:
      - {name: net1, type: bridge}
`)

	_, err := NewDriver(Options{}).Run(context.Background(), wb)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLabNotCreated)
	assert.Zero(t, server.CountRequests(http.MethodPost, "/networks"))
}

func TestDriver_BadCredentialsAbortAtLabCreation(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()
	server.Password = "changed"

	wb, err := ParseYAML([]byte(fmt.Sprintf(`lab:
  eveng_server_url: %s
  username: admin
  password: eve
  lab_path: demo/core
`, server.URL)))
	require.NoError(t, err)

	_, err = NewDriver(Options{}).Run(context.Background(), wb)
	assert.ErrorIs(t, err, ErrLabNotCreated)
}

func TestDriver_AutoStartAndConfigure(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "pe1.txt"), []byte("EXPECT: #\nconfigure\nexit all\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "pe2.txt"), []byte("admin\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "jump.txt"), []byte("root\n"), 0o600))

	wb := labWorkbook(t, server, `
  - name: add_node_sros_cpm
    rows:
      - {image: timoscpm, name: pe1}
      - {image: timoscpm, name: pe2}
      - {image: timoscpm, name: pe3}
  - name: add_node_linux
    rows:
      - {image: linux-centos7, name: jump}
`)

	var writes []string
	interp := telnet.NewInterpreter(telnet.WithDialer(func(_ context.Context, target models.ConsoleTarget) (telnet.Session, error) {
		if target.Port == 32770 {
			return nil, errors.New("connection refused")
		}
		return &scriptedSession{target: target, writes: &writes}, nil
	}))

	hook := logtest.NewGlobal()
	defer hook.Reset()

	var slept []time.Duration
	driver := NewDriver(Options{
		AutoStart:    true,
		ConfigFolder: folder,
		BootTime:     90 * time.Second,
		Interpreter:  interp,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	})

	result, err := driver.Run(context.Background(), wb)
	require.NoError(t, err)

	assert.True(t, server.Started())
	assert.True(t, result.Started)
	assert.Equal(t, []time.Duration{90 * time.Second}, slept)

	// pe1 configured, pe2 refused, pe3 has no script, jump is a vnc console
	assert.Equal(t, []string{"pe1"}, result.Configured)
	assert.Equal(t, []string{"pe2"}, result.ConfigFailures)
	assert.Equal(t, []string{"32769 configure", "32769 exit all"}, writes)

	// node failures carry the run id so the build summary can find them
	var failures []*logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Telnet problem" {
			failures = append(failures, entry)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, result.RunID, failures[0].Data["run"])
	assert.Equal(t, "pe2", failures[0].Data["node"])
}

func TestDriver_ConfigureNeedsAutoStart(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "pe1.txt"), []byte("admin\n"), 0o600))

	wb := labWorkbook(t, server, `
  - name: add_node_sros_cpm
    rows:
      - {image: timoscpm, name: pe1}
`)

	dialed := false
	interp := telnet.NewInterpreter(telnet.WithDialer(func(context.Context, models.ConsoleTarget) (telnet.Session, error) {
		dialed = true
		return nil, errors.New("unexpected dial")
	}))

	result, err := NewDriver(Options{ConfigFolder: folder, Interpreter: interp}).Run(context.Background(), wb)
	require.NoError(t, err)
	assert.False(t, dialed)
	assert.False(t, server.Started())
	assert.Empty(t, result.Configured)
}

func TestDriver_JumpNodeFailureIsLogged(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	wb := labWorkbook(t, server, `
  - name: add_network
    rows:
      - {name: net1, type: bridge}
`)

	result, err := NewDriver(Options{JumpNode: "missing"}).Run(context.Background(), wb)
	require.NoError(t, err)
	assert.Nil(t, result.Jump)
}

func TestDriver_CustomConnect(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	wb := labWorkbook(t, server, "  []\n")

	var seen eveng.Connection
	driver := NewDriver(Options{
		Connect: func(ctx context.Context, conn eveng.Connection) (Topology, error) {
			seen = conn
			return nil, errors.New("no route to host")
		},
	})

	_, err := driver.Run(context.Background(), wb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route to host")
	assert.Equal(t, "demo/core", seen.LabPath)
}

// cancelOnStart cancels the run once the nodes are started.
type cancelOnStart struct {
	Topology
	cancel context.CancelFunc
}

func (c *cancelOnStart) StartAllNodes(ctx context.Context) error {
	err := c.Topology.StartAllNodes(ctx)
	c.cancel()
	return err
}

func TestDriver_BootWaitStopsOnCancel(t *testing.T) {
	server := evengtest.NewServer()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wb := labWorkbook(t, server, `
  - name: add_node_sros_cpm
    rows:
      - {image: timoscpm, name: pe1}
`)

	driver := NewDriver(Options{
		AutoStart:    true,
		ConfigFolder: t.TempDir(),
		BootTime:     time.Hour,
		Connect: func(ctx context.Context, conn eveng.Connection) (Topology, error) {
			client := eveng.NewClient(ctx, conn, eveng.DefaultOptions())
			return &cancelOnStart{Topology: client, cancel: cancel}, nil
		},
	})

	start := time.Now()
	result, err := driver.Run(ctx, wb)
	require.NoError(t, err)
	assert.True(t, result.Started)
	assert.Empty(t, result.Configured)
	assert.Less(t, time.Since(start), 5*time.Second)
}
