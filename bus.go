package osap

// BusLink is the contract a shared-medium link adapter implements
// (spec §5's bus capability): addressed send, broadcast, and their
// respective clear-to-send checks, plus isOpen for a specific peer
// address.
type BusLink interface {
	Send(addr uint16, data []byte) error
	Broadcast(ch uint16, data []byte) error
	CTS(addr uint16) bool
	CTB(ch uint16) bool
	IsOpen(addr uint16) bool
}

// BusReceiver is implemented by links that can also deliver inbound
// addressed or broadcast datagrams.
type BusReceiver interface {
	// Recv returns the next inbound addressed datagram, if ready.
	Recv() ([]byte, bool)
	// RecvBroadcast returns the next inbound broadcast datagram and
	// the channel it arrived on, if ready.
	RecvBroadcast() ([]byte, uint16, bool)
}

// BusAdapter is the capability payload a KindBus vertex carries.
type BusAdapter struct {
	adapter BusLink

	// OwnRxAddr is this bus's own address on the medium, carried in
	// reversed BFWD/BBRD opcodes so a reply knows where to send back
	// to (spec §4.1's reversal table).
	OwnRxAddr uint16

	// channels maps each broadcast channel this bus currently accepts
	// to the onward route a spliced-in datagram should take, managed
	// by MAP_SET_REQ/MAP_RM_REQ (spec §4.6, §6; mirrors vertex.cpp's
	// broadcastChannels table).
	channels map[uint]*Route
}

// NewBusVertex creates a bus vertex wired to adapter with the given
// own receive address.
func NewBusVertex(name string, adapter BusLink, ownRxAddr uint16) *Vertex {
	v := NewVertex(name, KindBus)
	v.bus = &BusAdapter{adapter: adapter, OwnRxAddr: ownRxAddr, channels: make(map[uint]*Route)}
	v.OnLoop = busLoop
	return v
}

// AttachBusAdapter wires adapter onto v, a vertex already created
// with Kind == KindBus.
func AttachBusAdapter(v *Vertex, adapter BusLink, ownRxAddr uint16) error {
	if v.Kind != KindBus {
		return ErrCapabilityMismatch
	}
	v.bus = &BusAdapter{adapter: adapter, OwnRxAddr: ownRxAddr, channels: make(map[uint]*Route)}
	v.OnLoop = busLoop
	return nil
}

// BusLink returns the underlying adapter.
func (v *Vertex) BusLink() BusLink {
	if v.bus == nil {
		return nil
	}
	return v.bus.adapter
}

// SubscribeChannel stores route as the onward path for ch, accepted
// for ingestBroadcast (MAP_SET_REQ).
func (v *Vertex) SubscribeChannel(ch uint, route *Route) error {
	if v.bus == nil {
		return ErrCapabilityMismatch
	}
	if ch >= 64 {
		return ErrBoundsExceeded
	}
	v.bus.channels[ch] = route
	return nil
}

// UnsubscribeChannel removes ch from the accepted set (MAP_RM_REQ).
func (v *Vertex) UnsubscribeChannel(ch uint) error {
	if v.bus == nil {
		return ErrCapabilityMismatch
	}
	if ch >= 64 {
		return ErrBoundsExceeded
	}
	delete(v.bus.channels, ch)
	return nil
}

// IsSubscribed reports whether ch is currently accepted.
func (v *Vertex) IsSubscribed(ch uint) bool {
	if v.bus == nil {
		return false
	}
	_, ok := v.bus.channels[ch]
	return ok
}

// ingestBroadcast admits an inbound broadcast datagram into the pool
// if v subscribes to ch, splicing the channel's onward route into the
// datagram right after its PTR marker so the packet continues toward
// wherever that channel is mapped, rather than dead-ending at the bus
// (spec §4.6; mirrors vertex.cpp's injestBroadcastPacket). Returns
// (accepted, err): accepted is false (with nil err) when the channel
// isn't subscribed — that's normal filtering, not a failure.
func (c *Context) ingestBroadcast(v *Vertex, ch uint16, data []byte) (bool, error) {
	route, ok := v.bus.channels[uint(ch)]
	if !ok {
		return false, nil
	}

	ptrOff, err := findPTR(data)
	if err != nil {
		return false, err
	}
	hops := route.buf[opcodeWidth:route.n]
	spliced := make([]byte, ptrOff+opcodeWidth+len(hops)+len(data[ptrOff+opcodeWidth:]))
	n := copy(spliced, data[:ptrOff+opcodeWidth])
	n += copy(spliced[n:], hops)
	copy(spliced[n:], data[ptrOff+opcodeWidth:])

	_, idx, err := c.Pool.Request(v)
	if err != nil {
		return false, err
	}
	if err := c.Pool.Load(idx, spliced, c.Now()); err != nil {
		c.Pool.Release(idx)
		return false, err
	}
	return true, nil
}

// busDest handles a terminal DEST opcode addressed to a bus vertex:
// wire-level channel subscription CRUD (MAP_SET_REQ/MAP_RM_REQ, spec
// §6), the bus-vertex counterpart to endpointDest's route CRUD.
// MAP_SET_REQ carries a channel number byte followed by a full
// mode/ttl/segSize/path route spec, same layout as RouteSetReq.
func (c *Context) busDest(slot int32, v *Vertex, pkt *Packet) {
	ptrOff, err := findPTR(pkt.Bytes())
	if err != nil {
		c.drop(slot, err)
		return
	}
	subOff := ptrOff + opcodeWidth + opcodeWidth
	if subOff >= pkt.Len {
		c.drop(slot, ErrMalformed)
		return
	}
	sub := pkt.Data[subOff]
	body := append([]byte(nil), pkt.Data[subOff+1:pkt.Len]...)

	switch int(sub) {
	case MapSetReq:
		if len(body) == 0 {
			c.drop(slot, ErrMalformed)
			return
		}
		ch := body[0]
		_, route, perr := parseRouteSpec(body[1:])
		if perr != nil {
			c.drop(slot, perr)
			return
		}
		if err := v.SubscribeChannel(uint(ch), route); err != nil {
			c.drop(slot, err)
			return
		}
		c.replyEndpoint(slot, pkt, MapSetRes, []byte{ch})

	case MapRmReq:
		if len(body) == 0 {
			c.drop(slot, ErrMalformed)
			return
		}
		if err := v.UnsubscribeChannel(uint(body[0])); err != nil {
			c.drop(slot, err)
			return
		}
		c.replyEndpoint(slot, pkt, MapRmRes, []byte{body[0]})

	default:
		c.drop(slot, ErrMalformed)
	}
}

func busLoop(ctx *Context, v *Vertex) {
	rx, ok := v.bus.adapter.(BusReceiver)
	if !ok {
		return
	}
	if data, ready := rx.Recv(); ready {
		if _, idx, err := ctx.Pool.Request(v); err != nil {
			ctx.pushErr(err.Error())
		} else {
			ctx.Pool.Load(idx, data, ctx.Now())
		}
	}
	if data, ch, ready := rx.RecvBroadcast(); ready {
		if _, err := ctx.ingestBroadcast(v, ch, data); err != nil {
			ctx.pushErr(err.Error())
		}
	}
}
