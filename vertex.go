package osap

import "github.com/jakeread/osap-go/internal/slotset"

// VertexKind tags a Vertex with the capability payload it carries.
// OSAP dispatches on this tag rather than through a capability
// interface (see DESIGN.md): the vertex set is closed and small, and
// a switch keeps the hot scheduler path monomorphic and allocation
// free.
type VertexKind byte

const (
	KindRoot VertexKind = iota
	KindGeneric
	KindEndpoint
	KindRPC
	KindPort
	KindBus
)

func (k VertexKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindGeneric:
		return "generic"
	case KindEndpoint:
		return "endpoint"
	case KindRPC:
		return "rpc"
	case KindPort:
		return "port"
	case KindBus:
		return "bus"
	default:
		return "unknown"
	}
}

// MaxNameLen and MaxChildren bound a vertex's name and fan-out (spec
// §3.3, §6).
const (
	MaxNameLen  = 31
	MaxChildren = 16
)

// OnLoop is the per-tick hook a vertex runs during the scheduler's
// recursive descent (spec §4.4 step 1). Endpoint, Port and Bus
// vertices wire their own; KindGeneric leaves may set one for
// application code (sensor polling, periodic sends).
type OnLoop func(ctx *Context, v *Vertex)

// Vertex is one node in a device's routing tree.
type Vertex struct {
	Name string
	Kind VertexKind

	indice int
	parent *Vertex
	children slotset.Array[*Vertex]

	maxHold     int
	currentHold int

	scopeTimeTag uint32

	OnLoop OnLoop

	endpoint *Endpoint
	port     *PortAdapter
	bus      *BusAdapter
	rpc      *RPC
}

// defaultMaxHold returns the per-kind hold quota spec §3.3/§5 assigns
// new vertices of kind k.
func defaultMaxHold(k VertexKind) int {
	switch k {
	case KindPort:
		return 3
	case KindBus:
		return 4
	default:
		return 1
	}
}

// NewVertex creates a detached vertex of the given kind. Callers
// attach it to a tree with AddChild.
func NewVertex(name string, kind VertexKind) *Vertex {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	return &Vertex{
		Name:    name,
		Kind:    kind,
		maxHold: defaultMaxHold(kind),
	}
}

// Indice returns the vertex's position among its parent's children.
// The root's indice is always 0 and is meaningless (it has no
// parent).
func (v *Vertex) Indice() int { return v.indice }

// Parent returns v's parent, or ErrUnreachable if v is the root.
func (v *Vertex) Parent() (*Vertex, error) {
	if v.parent == nil {
		return nil, ErrUnreachable
	}
	return v.parent, nil
}

// Child returns v's child at the given indice.
func (v *Vertex) Child(indice int) (*Vertex, error) {
	if indice < 0 || indice >= MaxChildren {
		return nil, ErrUnreachable
	}
	c, ok := v.children.Get(uint(indice))
	if !ok {
		return nil, ErrUnreachable
	}
	return c, nil
}

// Sibling returns v's parent's child at the given indice (spec §4.1:
// SIB is resolved relative to the shared parent, not relative offset).
func (v *Vertex) Sibling(indice int) (*Vertex, error) {
	if v.parent == nil {
		return nil, ErrUnreachable
	}
	return v.parent.Child(indice)
}

// AddChild attaches child to v at the first free slot, up to
// MaxChildren. Returns the assigned indice.
func (v *Vertex) AddChild(child *Vertex) (int, error) {
	slot, ok := v.children.FirstFreeSlot(uint(MaxChildren))
	if !ok {
		return 0, ErrBoundsExceeded
	}
	v.children.InsertAt(slot, child)
	child.parent = v
	child.indice = int(slot)
	return int(slot), nil
}

// NumChildren reports how many children v currently has.
func (v *Vertex) NumChildren() int { return v.children.Len() }

// Children returns v's children in indice order.
func (v *Vertex) Children() []*Vertex {
	out := make([]*Vertex, 0, v.children.Len())
	for _, idx := range v.children.Set.AsSlice() {
		c, _ := v.children.Get(idx)
		out = append(out, c)
	}
	return out
}

// IsPort, IsBus, IsEndpoint, IsRPC, IsRoot report v's kind.
func (v *Vertex) IsPort() bool     { return v.Kind == KindPort }
func (v *Vertex) IsBus() bool      { return v.Kind == KindBus }
func (v *Vertex) IsEndpoint() bool { return v.Kind == KindEndpoint }
func (v *Vertex) IsRPC() bool      { return v.Kind == KindRPC }
func (v *Vertex) IsRoot() bool     { return v.Kind == KindRoot }

// CurrentHold and MaxHold expose a vertex's quota accounting (spec
// §4.2, used by transport.go's backpressure check and by metrics).
func (v *Vertex) CurrentHold() int { return v.currentHold }
func (v *Vertex) MaxHold() int     { return v.maxHold }

// SetMaxHold overrides the per-kind default hold quota.
func (v *Vertex) SetMaxHold(n int) { v.maxHold = n }

func (v *Vertex) String() string {
	return v.Kind.String() + ":" + v.Name
}
