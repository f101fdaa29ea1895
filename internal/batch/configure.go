package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/evenger-io/evenger/internal/models"
	"github.com/evenger-io/evenger/internal/telnet"
)

// NodeLister is what the telnet configuration pass needs from the client.
type NodeLister interface {
	Nodes(ctx context.Context) ([]models.LabNode, error)
}

// ConfigureWithTelnet runs <folder>/<node name>.txt against every node with
// a telnet console, one node at a time. Nodes without a script are skipped;
// a failing node is logged on log and the pass moves on.
func ConfigureWithTelnet(ctx context.Context, log *logrus.Entry, lister NodeLister, interp *telnet.Interpreter, folder string, logOutput bool) (configured []string, failed []string, err error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	nodes, err := lister.Nodes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	for _, node := range nodes {
		target, err := models.ParseConsoleURL(node.URL)
		if err != nil || !target.IsTelnet() {
			continue
		}

		scriptPath := filepath.Join(folder, node.Name+".txt")
		text, err := os.ReadFile(scriptPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.WithField("file", scriptPath).WithError(err).Errorln("Failed to read node script")
				failed = append(failed, node.Name)
			}
			continue
		}

		nodeLog := log.WithFields(logrus.Fields{
			"node":    node.Name,
			"console": target.String(),
		})

		output, err := interp.Run(ctx, string(text), target)
		if err != nil {
			nodeLog.WithError(err).Errorln("Telnet problem")
			failed = append(failed, node.Name)
			if ctx.Err() != nil {
				return configured, failed, ctx.Err()
			}
			continue
		}

		if logOutput {
			nodeLog.Infoln("Telnet output:\n" + output)
		}
		nodeLog.Infoln("Telnet done")
		configured = append(configured, node.Name)
	}

	return configured, failed, nil
}
