package osap

// PortLink is the contract a point-to-point link adapter implements
// (spec §5's port capability): cts/send/isOpen, the minimal surface
// the transport needs to hand a packet across a wire without knowing
// anything about its framing.
type PortLink interface {
	// Send transmits data. Called only after CTS reports true.
	Send(data []byte) error
	// CTS ("clear to send") reports whether the link can accept a
	// send this tick.
	CTS() bool
	// IsOpen reports whether the underlying link is connected at all.
	IsOpen() bool
}

// PortReceiver is implemented by links that can also deliver inbound
// bytes; separated from PortLink so a send-only adapter (e.g. a log
// sink) doesn't need a no-op Recv.
type PortReceiver interface {
	// Recv returns the next inbound datagram, if one is ready.
	Recv() ([]byte, bool)
}

// PortAdapter is the capability payload a KindPort vertex carries.
type PortAdapter struct {
	adapter PortLink
}

// NewPortVertex creates a port vertex wired to adapter. Its OnLoop
// pulls at most one inbound datagram per tick into the pool (spec
// §5: pool insertion happens inside the adapter's own cooperative
// loop, never from an interrupt context).
func NewPortVertex(name string, adapter PortLink) *Vertex {
	v := NewVertex(name, KindPort)
	v.port = &PortAdapter{adapter: adapter}
	v.OnLoop = portLoop
	return v
}

// AttachPortAdapter wires adapter onto v, a vertex already created
// with Kind == KindPort (e.g. by config.Build, which has no adapter
// to construct one with up front).
func AttachPortAdapter(v *Vertex, adapter PortLink) error {
	if v.Kind != KindPort {
		return ErrCapabilityMismatch
	}
	v.port = &PortAdapter{adapter: adapter}
	v.OnLoop = portLoop
	return nil
}

// Link returns the underlying adapter, for adapter-specific control
// outside the OSAP core (e.g. a CLI's `graph` command probing status).
func (v *Vertex) Link() PortLink {
	if v.port == nil {
		return nil
	}
	return v.port.adapter
}

func portLoop(ctx *Context, v *Vertex) {
	if !v.port.adapter.IsOpen() {
		return
	}
	rx, ok := v.port.adapter.(PortReceiver)
	if !ok {
		return
	}
	data, ready := rx.Recv()
	if !ready {
		return
	}
	_, idx, err := ctx.Pool.Request(v)
	if err != nil {
		ctx.pushErr(err.Error())
		return
	}
	ctx.Pool.Load(idx, data, ctx.Now())
}
