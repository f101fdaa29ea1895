package eveng

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evenger-io/evenger/internal/models"
)

// StartAllNodes boots every node of the lab.
func (c *Client) StartAllNodes(ctx context.Context) error {
	if _, err := c.Get(ctx, c.labURL("/nodes/start")); err != nil {
		return fmt.Errorf("failed to start nodes of %s: %w", c.conn.LabPath, err)
	}

	logrus.WithField("lab", c.conn.LabPath).Infoln("Nodes started")
	return nil
}

// Nodes lists the lab's nodes ordered by id. Unlike NodeIDs this always
// asks the server, since console URLs only appear once nodes are running.
func (c *Client) Nodes(ctx context.Context) ([]models.LabNode, error) {
	nodes, err := c.labNodes(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.LabNode, 0, len(nodes))
	for _, id := range sortedIDs(nodes) {
		node := nodes[id]
		if len(node.ID) == 0 {
			node.ID = models.FlexString(id)
		}
		result = append(result, node)
	}
	return result, nil
}

// NodeConsole resolves the console address of a node by name.
func (c *Client) NodeConsole(ctx context.Context, name string) (models.ConsoleTarget, error) {
	id, err := c.nodeID(ctx, name)
	if err != nil {
		return models.ConsoleTarget{}, err
	}

	env, err := c.Get(ctx, c.labURL("/nodes/"+id))
	if err != nil {
		return models.ConsoleTarget{}, err
	}

	var node models.LabNode
	if err := env.DecodeData(&node); err != nil {
		return models.ConsoleTarget{}, fmt.Errorf("failed to decode node %s: %w", name, err)
	}

	target, err := models.ParseConsoleURL(node.URL)
	if err != nil {
		return models.ConsoleTarget{}, fmt.Errorf("node %s: %w", name, err)
	}
	return target, nil
}
