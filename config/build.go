package config

import (
	"fmt"

	"github.com/jakeread/osap-go"
)

// Build constructs a vertex tree from spec. Port and bus vertices are
// created without an adapter attached (config has no notion of what
// hardware or simulated link backs them); the returned name index
// lets a caller look them up and attach a real osap.PortLink/BusLink
// afterward via osap.NewPortVertex/NewBusVertex-equivalent wiring, or
// simply replace the placeholder in the tree before first Tick.
//
// Grounded on moby/moby's config-driven object graph construction
// (daemon config -> running containers): a declarative document
// assembled into live objects by a single recursive builder.
func Build(spec DeviceSpec) (root *osap.Vertex, byName map[string]*osap.Vertex, err error) {
	byName = make(map[string]*osap.Vertex)
	root, err = buildVertex(spec.Root, byName)
	if err != nil {
		return nil, nil, err
	}
	if root.Kind != osap.KindRoot {
		return nil, nil, fmt.Errorf("config: tree root must be kind \"root\", got %q", spec.Root.Kind)
	}
	return root, byName, nil
}

func buildVertex(s VertexSpec, byName map[string]*osap.Vertex) (*osap.Vertex, error) {
	var v *osap.Vertex
	switch s.Kind {
	case "root":
		v = osap.NewRootVertex(s.Name)
	case "generic":
		v = osap.NewVertex(s.Name, osap.KindGeneric)
	case "endpoint":
		v = osap.NewEndpointVertex(s.Name)
	case "rpc":
		v = osap.NewVertex(s.Name, osap.KindRPC)
	case "port":
		v = osap.NewVertex(s.Name, osap.KindPort)
	case "bus":
		v = osap.NewVertex(s.Name, osap.KindBus)
	default:
		return nil, fmt.Errorf("config: vertex %q: unknown kind %q", s.Name, s.Kind)
	}
	if s.MaxHold > 0 {
		v.SetMaxHold(s.MaxHold)
	}
	if _, exists := byName[s.Name]; exists {
		return nil, fmt.Errorf("config: duplicate vertex name %q", s.Name)
	}
	byName[s.Name] = v

	for _, childSpec := range s.Children {
		child, err := buildVertex(childSpec, byName)
		if err != nil {
			return nil, err
		}
		if _, err := v.AddChild(child); err != nil {
			return nil, fmt.Errorf("config: vertex %q: %w", s.Name, err)
		}
	}
	return v, nil
}
