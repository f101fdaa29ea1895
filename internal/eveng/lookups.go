package eveng

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/evenger-io/evenger/internal/models"
)

// NodeIDs maps node name to node id. The table is fetched on first use and
// reused afterwards, so nodes added later through this client are not in it.
func (c *Client) NodeIDs(ctx context.Context) (map[string]string, error) {
	if c.nodeIDsComputed {
		return c.nodeIDs, nil
	}

	nodes, err := c.labNodes(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]string, len(nodes))
	for id, node := range nodes {
		ids[node.Name] = id
	}

	c.nodeIDs = ids
	c.nodeIDsComputed = true
	return c.nodeIDs, nil
}

// InterfaceIndexes maps node name to interface name to the interface index
// used in interface updates. Computed once, like NodeIDs.
func (c *Client) InterfaceIndexes(ctx context.Context) (map[string]map[string]string, error) {
	if c.ifaceIndexesComputed {
		return c.ifaceIndexes, nil
	}

	nodeIDs, err := c.NodeIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]map[string]string, len(nodeIDs))
	for name, id := range nodeIDs {
		env, err := c.Get(ctx, c.labURL("/nodes/"+id+"/interfaces"))
		if err != nil {
			return nil, fmt.Errorf("failed to list interfaces of %s: %w", name, err)
		}

		var ifaces models.NodeInterfaces
		if err := env.DecodeData(&ifaces); err != nil {
			return nil, fmt.Errorf("failed to decode interfaces of %s: %w", name, err)
		}

		indexes, err := ifaces.Indexes()
		if err != nil {
			return nil, fmt.Errorf("interfaces of %s: %w", name, err)
		}
		result[name] = indexes
	}

	c.ifaceIndexes = result
	c.ifaceIndexesComputed = true
	return c.ifaceIndexes, nil
}

// BridgeIDs maps the name of every visible network to its id. Hidden
// networks created for point to point links are left out. Computed once.
func (c *Client) BridgeIDs(ctx context.Context) (map[string]string, error) {
	if c.bridgeIDsComputed {
		return c.bridgeIDs, nil
	}

	env, err := c.Get(ctx, c.labURL("/networks"))
	if err != nil {
		return nil, err
	}

	networks := map[string]models.LabNetwork{}
	if err := env.DecodeData(&networks); err != nil {
		return nil, fmt.Errorf("failed to decode networks: %w", err)
	}

	ids := make(map[string]string, len(networks))
	for id, network := range networks {
		if network.IsVisible() {
			ids[network.Name] = id
		}
	}

	c.bridgeIDs = ids
	c.bridgeIDsComputed = true
	return c.bridgeIDs, nil
}

func (c *Client) nodeID(ctx context.Context, name string) (string, error) {
	ids, err := c.NodeIDs(ctx)
	if err != nil {
		return "", err
	}
	id, ok := ids[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return id, nil
}

func (c *Client) interfaceIndex(ctx context.Context, node, port string) (string, error) {
	indexes, err := c.InterfaceIndexes(ctx)
	if err != nil {
		return "", err
	}
	ports, ok := indexes[node]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNode, node)
	}
	index, ok := ports[port]
	if !ok {
		return "", fmt.Errorf("%w: %q on node %q", ErrUnknownInterface, port, node)
	}
	return index, nil
}

func (c *Client) bridgeID(ctx context.Context, name string) (string, error) {
	ids, err := c.BridgeIDs(ctx)
	if err != nil {
		return "", err
	}
	id, ok := ids[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBridge, name)
	}
	return id, nil
}

func (c *Client) labNodes(ctx context.Context) (map[string]models.LabNode, error) {
	env, err := c.Get(ctx, c.labURL("/nodes"))
	if err != nil {
		return nil, err
	}

	nodes := map[string]models.LabNode{}
	if err := env.DecodeData(&nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}
	return nodes, nil
}

// sortedIDs orders numeric ids numerically and anything else after them.
func sortedIDs[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}
