package osap

// RPCHandler executes a remote call: args is the raw payload that
// followed DEST on the request, ret is copied into the reply payload.
// No reflection: callers marshal/unmarshal their own argument and
// return types, matching src/vt_rpc.cpp's fixed typed-argument calls
// rather than a generic RPC framework.
type RPCHandler func(args []byte) (ret []byte, err error)

// RPC is the capability payload a KindRPC vertex carries: a single
// handler reusing endpoint-style DEST dispatch and writeReply to
// answer (spec's supplemented vt_rpc.* feature).
type RPC struct {
	handler RPCHandler
}

// NewRPCVertex creates an RPC vertex that invokes handler on every
// DEST-addressed call.
func NewRPCVertex(name string, handler RPCHandler) *Vertex {
	v := NewVertex(name, KindRPC)
	v.rpc = &RPC{handler: handler}
	return v
}

// AttachRPCHandler wires handler onto v, a vertex already created with
// Kind == KindRPC (the config builder constructs RPC vertices bare,
// same as it does for port/bus, since a handler is a Go closure with
// no YAML representation).
func AttachRPCHandler(v *Vertex, handler RPCHandler) error {
	if v.Kind != KindRPC {
		return ErrCapabilityMismatch
	}
	v.rpc = &RPC{handler: handler}
	return nil
}

// rpcDest handles a terminal DEST opcode addressed to an RPC vertex:
// everything after DEST is the call's argument bytes.
func (c *Context) rpcDest(slot int32, v *Vertex, pkt *Packet) {
	ptrOff, err := findPTR(pkt.Bytes())
	if err != nil {
		c.drop(slot, err)
		return
	}
	argOff := ptrOff + opcodeWidth + opcodeWidth
	if argOff > pkt.Len {
		c.drop(slot, ErrMalformed)
		return
	}
	args := pkt.Data[argOff:pkt.Len]

	ret, err := v.rpc.handler(args)
	if err != nil {
		c.drop(slot, err)
		return
	}

	var out [MTU]byte
	n, werr := writeReply(pkt.Bytes(), out[:], withDestPrefix(ret))
	if werr != nil {
		c.drop(slot, werr)
		return
	}
	pkt.Len = copy(pkt.Data[:], out[:n])
	pkt.ArrivalTime = c.Now()
}
