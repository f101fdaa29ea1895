package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/evenger-io/evenger/internal/eveng"
	"github.com/evenger-io/evenger/internal/models"
)

// Topology is the part of the EVE-NG client a batch run drives.
type Topology interface {
	AddLab(ctx context.Context, args eveng.LabArgs) error
	AddNodeCustom(ctx context.Context, args map[string]any) (string, error)
	AddNodeSROSCPM(ctx context.Context, node models.SROSCPMNode) (string, error)
	AddNodeSROSIOM(ctx context.Context, node models.SROSIOMNode) (string, error)
	AddNodeLinux(ctx context.Context, node models.LinuxNode) (string, error)
	AddNetwork(ctx context.Context, args eveng.NetworkArgs) (string, error)
	ConnectNodeToBridge(ctx context.Context, nodeName, nodePort, bridgeName string) error
	ConnectNodeToNode(ctx context.Context, firstNode, firstPort, secondNode, secondPort string) error
	StartAllNodes(ctx context.Context) error
	Nodes(ctx context.Context) ([]models.LabNode, error)
	NodeConsole(ctx context.Context, name string) (models.ConsoleTarget, error)
}

// Handler applies one record.
type Handler func(ctx context.Context, topo Topology, values map[string]string) error

type Operation struct {
	Name    string
	Handler Handler
}

// Registry maps sheet names to operations.
type Registry struct {
	ops map[string]Operation
}

func NewRegistry() *Registry {
	return &Registry{ops: map[string]Operation{}}
}

func (r *Registry) Register(name string, handler Handler) {
	r.ops[name] = Operation{Name: name, Handler: handler}
}

func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type BridgeLink struct {
	NodeName   string `mapstructure:"node_name" validate:"required"`
	NodePort   string `mapstructure:"node_port" validate:"required"`
	BridgeName string `mapstructure:"bridge_name" validate:"required"`
}

type NodeLink struct {
	FirstNode  string `mapstructure:"first_node" validate:"required"`
	FirstPort  string `mapstructure:"first_port" validate:"required"`
	SecondNode string `mapstructure:"second_node" validate:"required"`
	SecondPort string `mapstructure:"second_port" validate:"required"`
}

// DefaultRegistry holds every operation a workbook sheet can name.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("add_lab", typed(false, func(ctx context.Context, topo Topology, args eveng.LabArgs) error {
		return topo.AddLab(ctx, args)
	}))

	r.Register("add_node_custom", func(ctx context.Context, topo Topology, values map[string]string) error {
		args := make(map[string]any, len(values))
		for k, v := range values {
			args[k] = v
		}
		_, err := topo.AddNodeCustom(ctx, args)
		return err
	})

	r.Register("add_node_sros_cpm", typed(false, func(ctx context.Context, topo Topology, node models.SROSCPMNode) error {
		_, err := topo.AddNodeSROSCPM(ctx, node)
		return err
	}))

	r.Register("add_node_sros_iom", typed(false, func(ctx context.Context, topo Topology, node models.SROSIOMNode) error {
		_, err := topo.AddNodeSROSIOM(ctx, node)
		return err
	}))

	r.Register("add_node_linux", typed(false, func(ctx context.Context, topo Topology, node models.LinuxNode) error {
		_, err := topo.AddNodeLinux(ctx, node)
		return err
	}))

	r.Register("add_network", typed(false, func(ctx context.Context, topo Topology, args eveng.NetworkArgs) error {
		_, err := topo.AddNetwork(ctx, args)
		return err
	}))

	r.Register("connect_node_to_bridge", typed(true, func(ctx context.Context, topo Topology, link BridgeLink) error {
		return topo.ConnectNodeToBridge(ctx, link.NodeName, link.NodePort, link.BridgeName)
	}))

	r.Register("connect_node_to_node", typed(true, func(ctx context.Context, topo Topology, link NodeLink) error {
		return topo.ConnectNodeToNode(ctx, link.FirstNode, link.FirstPort, link.SecondNode, link.SecondPort)
	}))

	return r
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// typed wraps fn so the record is decoded into T and validated first.
// strict rejects columns T does not know.
func typed[T any](strict bool, fn func(ctx context.Context, topo Topology, args T) error) Handler {
	return func(ctx context.Context, topo Topology, values map[string]string) error {
		var args T
		if err := decodeRecord(values, &args, strict); err != nil {
			return err
		}
		return fn(ctx, topo, args)
	}
}

func decodeRecord(values map[string]string, out any, strict bool) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	return nil
}
