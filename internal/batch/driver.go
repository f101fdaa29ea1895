package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/evenger-io/evenger/internal/eveng"
	"github.com/evenger-io/evenger/internal/models"
	"github.com/evenger-io/evenger/internal/telnet"
)

var ErrLabNotCreated = errors.New("lab not created")

const DefaultBootTime = 180 * time.Second

type Options struct {
	// AutoStart boots all nodes once the topology is built.
	AutoStart bool
	// ConfigFolder holds <node name>.txt telnet scripts, applied after
	// BootTime when AutoStart is set.
	ConfigFolder string
	BootTime     time.Duration
	// JumpNode names the node whose console address is returned.
	JumpNode string
	// LogOutput logs each node's telnet transcript.
	LogOutput bool

	Client      eveng.Options
	Registry    *Registry
	Interpreter *telnet.Interpreter
	Sleep       telnet.SleepFunc
	// Connect overrides how the topology client is created.
	Connect func(ctx context.Context, conn eveng.Connection) (Topology, error)
}

type SheetResult struct {
	Name    string `json:"name"`
	Applied int    `json:"applied"`
	Failed  int    `json:"failed"`
}

type Result struct {
	RunID          string                `json:"run_id"`
	LabPath        string                `json:"lab_path"`
	Sheets         []SheetResult         `json:"sheets"`
	Started        bool                  `json:"started"`
	Configured     []string              `json:"configured,omitempty"`
	ConfigFailures []string              `json:"config_failures,omitempty"`
	Jump           *models.ConsoleTarget `json:"jump,omitempty"`
}

func (r *Result) FailedRows() int {
	total := 0
	for _, s := range r.Sheets {
		total += s.Failed
	}
	return total
}

type Driver struct {
	opts Options
}

func NewDriver(opts Options) *Driver {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Interpreter == nil {
		opts.Interpreter = telnet.NewInterpreter()
	}
	if opts.Sleep == nil {
		opts.Sleep = telnet.ContextSleep
	}
	if opts.Client == (eveng.Options{}) {
		opts.Client = eveng.DefaultOptions()
	}
	if opts.BootTime <= 0 {
		opts.BootTime = DefaultBootTime
	}
	if opts.Connect == nil {
		clientOpts := opts.Client
		opts.Connect = func(ctx context.Context, conn eveng.Connection) (Topology, error) {
			return eveng.NewClient(ctx, conn, clientOpts), nil
		}
	}
	return &Driver{opts: opts}
}

// ConnectionFromWorkbook reads the single record of the lab info sheet.
func ConnectionFromWorkbook(wb Workbook) (eveng.Connection, error) {
	records, err := wb.Records(LabInfoSheet)
	if err != nil {
		return eveng.Connection{}, fmt.Errorf("%w: %w", ErrNoLabInfo, err)
	}
	if len(records) == 0 {
		return eveng.Connection{}, fmt.Errorf("%w: sheet %s is empty", ErrNoLabInfo, LabInfoSheet)
	}

	var conn eveng.Connection
	if err := decodeRecord(records[0].Values, &conn, true); err != nil {
		return eveng.Connection{}, fmt.Errorf("sheet %s: %w", LabInfoSheet, err)
	}
	return conn, nil
}

// Run builds the lab described by wb. Only a missing connection record or
// a lab that cannot be created stops the run; every other failure is
// logged, counted and skipped.
func (d *Driver) Run(ctx context.Context, wb Workbook) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	log := logrus.WithField("run", result.RunID)

	conn, err := ConnectionFromWorkbook(wb)
	if err != nil {
		return result, err
	}
	result.LabPath = conn.LabPath

	topo, err := d.opts.Connect(ctx, conn)
	if err != nil {
		return result, fmt.Errorf("failed to connect to %s: %w", conn.ServerURL, err)
	}

	if err := topo.AddLab(ctx, eveng.LabArgs{}); err != nil {
		log.WithError(err).Errorf("Check sheet %s, lab not created", LabInfoSheet)
		return result, fmt.Errorf("%w: %w", ErrLabNotCreated, err)
	}

	for _, sheet := range wb.SheetNames() {
		op, ok := d.opts.Registry.Lookup(sheet)
		if !ok {
			continue
		}
		result.Sheets = append(result.Sheets, d.applySheet(ctx, log, wb, topo, op))
	}

	if d.opts.AutoStart {
		d.startAndConfigure(ctx, log, topo, result)
	}

	if len(d.opts.JumpNode) > 0 {
		target, err := topo.NodeConsole(ctx, d.opts.JumpNode)
		if err != nil {
			log.WithField("node", d.opts.JumpNode).WithError(err).Errorln("Jump node console address failed")
		} else {
			result.Jump = &target
		}
	}

	return result, nil
}

func (d *Driver) applySheet(ctx context.Context, log *logrus.Entry, wb Workbook, topo Topology, op Operation) SheetResult {
	sheetResult := SheetResult{Name: op.Name}

	records, err := wb.Records(op.Name)
	if err != nil {
		log.WithField("sheet", op.Name).WithError(err).Errorln("Failed to read sheet")
		return sheetResult
	}

	for _, record := range records {
		if err := op.Handler(ctx, topo, record.Values); err != nil {
			sheetResult.Failed++
			log.WithFields(logrus.Fields{
				"sheet":  op.Name,
				"line":   record.Line,
				"values": record.Values,
			}).WithError(err).Errorln("Sheet row not completed")
			continue
		}
		sheetResult.Applied++
	}

	return sheetResult
}

func (d *Driver) startAndConfigure(ctx context.Context, log *logrus.Entry, topo Topology, result *Result) {
	if err := topo.StartAllNodes(ctx); err != nil {
		log.WithError(err).Errorln("Nodes start failed")
		return
	}
	result.Started = true

	if len(d.opts.ConfigFolder) == 0 {
		return
	}

	log.Infof("Waiting %s for nodes to boot", d.opts.BootTime)
	if err := d.opts.Sleep(ctx, d.opts.BootTime); err != nil {
		log.WithError(err).Errorln("Boot wait interrupted")
		return
	}

	configured, failed, err := ConfigureWithTelnet(ctx, log, topo, d.opts.Interpreter, d.opts.ConfigFolder, d.opts.LogOutput)
	if err != nil {
		log.WithField("folder", d.opts.ConfigFolder).WithError(err).Errorln("Telnet configuration failed")
		return
	}
	result.Configured = configured
	result.ConfigFailures = failed
}
