package eveng

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/evenger-io/evenger/internal/interpolate"
	"github.com/evenger-io/evenger/internal/models"
)

const (
	hiddenBridgeName = "Bridge_invisible"
	hiddenBridgeType = "bridge"
	hiddenBridgePos  = "500"
)

type LabArgs struct {
	Description string `mapstructure:"description"`
}

// SplitLabPath turns "folder/sub/lab" into name "lab" and path "/folder/sub".
// A lab without folder lives in "/".
func SplitLabPath(labPath string) (name string, path string) {
	labPath = strings.TrimSuffix(strings.Trim(labPath, "/"), ".unl")
	idx := strings.LastIndex(labPath, "/")
	if idx < 0 {
		return labPath, "/"
	}
	return labPath[idx+1:], "/" + labPath[:idx]
}

// AddLab creates the client's lab. The server refuses a lab that already exists.
func (c *Client) AddLab(ctx context.Context, args LabArgs) error {
	name, path := SplitLabPath(c.conn.LabPath)

	if _, err := c.Post(ctx, "/api/labs", models.NewLabRequest(name, path, args.Description)); err != nil {
		return fmt.Errorf("failed to add lab %s: %w", c.conn.LabPath, err)
	}

	logrus.WithFields(logrus.Fields{
		"name": name,
		"path": path,
	}).Infoln("Lab added")
	return nil
}

// AddNodeCustom posts a node built from args["custom_json_text"], a JSON
// document whose ${ <jq> } string values are evaluated against args.
// {{ name }} placeholders are accepted as ${ .name }.
func (c *Client) AddNodeCustom(ctx context.Context, args map[string]any) (string, error) {
	text, ok := args["custom_json_text"].(string)
	if !ok || len(strings.TrimSpace(text)) == 0 {
		return "", fmt.Errorf("custom_json_text is required")
	}

	body, err := interpolate.RenderJSON(interpolate.ConvertPlaceholders(text), args, nil)
	if err != nil {
		return "", fmt.Errorf("failed to render custom node: %w", err)
	}

	name, _ := args["name"].(string)
	return c.addNode(ctx, body, name)
}

func (c *Client) AddNodeSROSCPM(ctx context.Context, node models.SROSCPMNode) (string, error) {
	return c.addNode(ctx, node.Request(), node.Name)
}

func (c *Client) AddNodeSROSIOM(ctx context.Context, node models.SROSIOMNode) (string, error) {
	return c.addNode(ctx, node.Request(), node.Name)
}

func (c *Client) AddNodeLinux(ctx context.Context, node models.LinuxNode) (string, error) {
	return c.addNode(ctx, node.Request(), node.Name)
}

func (c *Client) addNode(ctx context.Context, body any, name string) (string, error) {
	env, err := c.Post(ctx, c.labURL("/nodes"), body)
	if err != nil {
		return "", fmt.Errorf("failed to add node %s: %w", name, err)
	}

	id, err := createdID(env)
	if err != nil {
		return "", fmt.Errorf("failed to add node %s: %w", name, err)
	}

	logrus.WithFields(logrus.Fields{
		"node": name,
		"id":   id,
	}).Infoln("Node added")
	return id, nil
}

type NetworkArgs struct {
	Name string `mapstructure:"name" validate:"required"`
	Type string `mapstructure:"type" validate:"required"`
	Left string `mapstructure:"left"`
	Top  string `mapstructure:"top"`
}

// AddNetwork creates a visible network (bridge or pnetX cloud) and returns its id.
func (c *Client) AddNetwork(ctx context.Context, args NetworkArgs) (string, error) {
	env, err := c.Post(ctx, c.labURL("/networks"),
		models.NewNetworkRequest(args.Name, args.Type, args.Left, args.Top))
	if err != nil {
		return "", fmt.Errorf("failed to add network %s: %w", args.Name, err)
	}

	id, err := createdID(env)
	if err != nil {
		return "", fmt.Errorf("failed to add network %s: %w", args.Name, err)
	}

	logrus.WithFields(logrus.Fields{
		"network": args.Name,
		"id":      id,
	}).Infoln("Network added")
	return id, nil
}

// ConnectNodeToBridge attaches one node interface to a visible network.
// Nodes and networks must exist before the first connect call, see NodeIDs.
func (c *Client) ConnectNodeToBridge(ctx context.Context, nodeName, nodePort, bridgeName string) error {
	nodeID, err := c.nodeID(ctx, nodeName)
	if err != nil {
		return err
	}
	networkID, err := c.bridgeID(ctx, bridgeName)
	if err != nil {
		return err
	}
	index, err := c.interfaceIndex(ctx, nodeName, nodePort)
	if err != nil {
		return err
	}

	if err := c.attachInterface(ctx, nodeID, index, networkID); err != nil {
		return fmt.Errorf("failed to connect %s %s to %s: %w", nodeName, nodePort, bridgeName, err)
	}

	logrus.WithFields(logrus.Fields{
		"node":   nodeName,
		"port":   nodePort,
		"bridge": bridgeName,
	}).Infoln("Node connected to bridge")
	return nil
}

// ConnectNodeToNode links two node interfaces back to back through a new
// hidden bridge.
func (c *Client) ConnectNodeToNode(ctx context.Context, firstNode, firstPort, secondNode, secondPort string) error {
	firstID, err := c.nodeID(ctx, firstNode)
	if err != nil {
		return err
	}
	secondID, err := c.nodeID(ctx, secondNode)
	if err != nil {
		return err
	}
	firstIndex, err := c.interfaceIndex(ctx, firstNode, firstPort)
	if err != nil {
		return err
	}
	secondIndex, err := c.interfaceIndex(ctx, secondNode, secondPort)
	if err != nil {
		return err
	}

	networkID, err := c.AddNetwork(ctx, NetworkArgs{
		Name: hiddenBridgeName,
		Type: hiddenBridgeType,
		Left: hiddenBridgePos,
		Top:  hiddenBridgePos,
	})
	if err != nil {
		return err
	}

	if err := c.attachInterface(ctx, firstID, firstIndex, networkID); err != nil {
		return fmt.Errorf("failed to connect %s %s: %w", firstNode, firstPort, err)
	}
	if err := c.attachInterface(ctx, secondID, secondIndex, networkID); err != nil {
		return fmt.Errorf("failed to connect %s %s: %w", secondNode, secondPort, err)
	}

	if _, err := c.Put(ctx, c.labURL("/networks/"+networkID), models.VisibilityRequest{Visibility: "0"}); err != nil {
		return fmt.Errorf("failed to hide network %s: %w", networkID, err)
	}

	logrus.WithFields(logrus.Fields{
		"first":  firstNode + " " + firstPort,
		"second": secondNode + " " + secondPort,
	}).Infoln("Nodes connected")
	return nil
}

// attachInterface sends {"<index>": <networkID>} for one node.
func (c *Client) attachInterface(ctx context.Context, nodeID, index, networkID string) error {
	var value any = networkID
	if n, err := strconv.Atoi(networkID); err == nil {
		value = n
	}

	_, err := c.Put(ctx, c.labURL("/nodes/"+nodeID+"/interfaces"), map[string]any{index: value})
	return err
}
