package osap

// RouteState is an EndpointRoute's position in the ack/ackless resend
// state machine (spec §4.6, supplementing src/vt_endpoint.cpp's
// route bookkeeping).
type RouteState byte

const (
	RouteIdle RouteState = iota
	RouteFresh
	RouteAwaitingAck
	RouteAwaitingAndFresh
)

// EndpointRoute pairs a Route with the retry state needed to resend
// until acked, or fire-and-forget if Ackless.
type EndpointRoute struct {
	Route   *Route
	Ackless bool

	ackID         byte
	state         RouteState
	lastSent      uint32
	retryInterval uint32
}

// NewEndpointRoute wraps route with retry bookkeeping. retryInterval
// is ignored when ackless is true.
func NewEndpointRoute(route *Route, ackless bool, retryInterval uint32) *EndpointRoute {
	return &EndpointRoute{Route: route, Ackless: ackless, retryInterval: retryInterval, state: RouteIdle}
}

// MarkFresh queues data to be (re)sent on this route's next service
// opportunity.
func (r *EndpointRoute) MarkFresh() {
	switch r.state {
	case RouteAwaitingAck:
		r.state = RouteAwaitingAndFresh
	default:
		r.state = RouteFresh
	}
}

// DataVerdict is the disposition a user OnData callback returns for an
// inbound SS_ACKLESS/SS_ACKED delivery (spec §4.5, §7).
type DataVerdict int

const (
	// DataAccept stores the payload and completes delivery normally.
	DataAccept DataVerdict = iota
	// DataReject discards the payload without storing it.
	DataReject
	// DataWait leaves the packet queued and retries delivery next tick,
	// instead of releasing or acking it.
	DataWait
)

// Endpoint is the capability payload a KindEndpoint vertex carries: a
// local data store plus a set of outbound routes serviced round-robin
// (spec §3.3, §4.6).
type Endpoint struct {
	Data []byte

	// OnData, if set, is consulted on every SS_ACKLESS/SS_ACKED
	// delivery before the payload is stored (spec §4.5, §7). A nil
	// OnData accepts unconditionally.
	OnData func(data []byte) DataVerdict

	routes []*EndpointRoute
	rr     int
}

// NewEndpointVertex creates an endpoint vertex with an empty route set.
func NewEndpointVertex(name string) *Vertex {
	v := NewVertex(name, KindEndpoint)
	v.endpoint = &Endpoint{}
	v.OnLoop = endpointLoop
	return v
}

// AddRoute registers an outbound route, returning its index for later
// MarkFresh calls.
func (v *Vertex) AddRoute(r *EndpointRoute) int {
	v.endpoint.routes = append(v.endpoint.routes, r)
	return len(v.endpoint.routes) - 1
}

// Publish marks route idx fresh with a new payload, to be sent on the
// next loop tick that reaches it.
func (v *Vertex) Publish(idx int, data []byte) {
	ep := v.endpoint
	ep.Data = append(ep.Data[:0], data...)
	ep.routes[idx].MarkFresh()
}

// endpointLoop services at most one due route per tick, round-robin,
// so no single route can starve the others (spec §4.6).
func endpointLoop(ctx *Context, v *Vertex) {
	ep := v.endpoint
	n := len(ep.routes)
	if n == 0 {
		return
	}
	now := ctx.Now()
	for i := 0; i < n; i++ {
		idx := (ep.rr + i) % n
		r := ep.routes[idx]
		if serviceRoute(ctx, v, r, now) {
			ep.rr = (idx + 1) % n
			return
		}
	}
}

func serviceRoute(ctx *Context, v *Vertex, r *EndpointRoute, now uint32) bool {
	due := r.state == RouteFresh || r.state == RouteAwaitingAndFresh
	if r.state == RouteAwaitingAck && now-r.lastSent >= r.retryInterval {
		due = true
	}
	if !due {
		return false
	}

	var body []byte
	if r.Ackless {
		body = make([]byte, 1+len(v.endpoint.Data))
		body[0] = byte(SSAckless)
		copy(body[1:], v.endpoint.Data)
	} else {
		r.ackID++
		body = make([]byte, 2+len(v.endpoint.Data))
		body[0] = byte(SSAcked)
		body[1] = r.ackID
		copy(body[2:], v.endpoint.Data)
	}

	pkt, idx, err := ctx.Pool.Request(v)
	if err != nil {
		return false
	}
	var out [MTU]byte
	n, berr := r.Route.Build(out[:], withDestPrefix(body))
	if berr != nil {
		ctx.Pool.Release(idx)
		ctx.pushErr(berr.Error())
		return false
	}
	ctx.Pool.Load(idx, out[:n], now)
	_ = pkt

	r.lastSent = now
	if r.Ackless {
		r.state = RouteIdle
	} else {
		r.state = RouteAwaitingAck
	}
	return true
}

// withDestPrefix prepends the DEST opcode pair to body, since an
// endpoint's outbound sub-key dispatch always arrives behind DEST.
func withDestPrefix(body []byte) []byte {
	out := make([]byte, opcodeWidth+len(body))
	encodeOpcode(out, 0, KeyDEST, 0)
	copy(out[opcodeWidth:], body)
	return out
}

// endpointDest handles a terminal DEST opcode addressed to an
// endpoint vertex: reads the sub-key byte immediately after DEST and
// dispatches it (spec §4.5, §6).
func (c *Context) endpointDest(slot int32, v *Vertex, pkt *Packet) {
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
	ep := v.endpoint

	switch int(sub) {
	case SSAckless:
		switch ep.dispatchData(body) {
		case DataAccept:
			c.Pool.Release(slot)
		case DataReject:
			c.Pool.Release(slot)
		case DataWait:
			pkt.ArrivalTime = c.Now()
		}

	case SSAcked:
		if len(body) == 0 {
			c.drop(slot, ErrMalformed)
			return
		}
		ackID := body[0]
		data := body[1:]
		switch ep.dispatchData(data) {
		case DataAccept:
			c.replyEndpoint(slot, pkt, SSAck, []byte{ackID})
		case DataReject:
			c.Pool.Release(slot)
		case DataWait:
			pkt.ArrivalTime = c.Now()
		}

	case SSAck:
		if len(body) == 0 {
			c.drop(slot, ErrMalformed)
			return
		}
		ackID := body[0]
		for _, r := range ep.routes {
			if r.ackID != ackID {
				continue
			}
			switch r.state {
			case RouteAwaitingAck:
				r.state = RouteIdle
			case RouteAwaitingAndFresh:
				r.state = RouteFresh
			}
		}
		c.Pool.Release(slot)

	case Query:
		c.replyEndpoint(slot, pkt, QueryResp, ep.Data)

	case RouteQueryReq:
		c.replyEndpoint(slot, pkt, RouteQueryRes, []byte{byte(len(ep.routes))})

	case RouteSetReq:
		ackless, route, perr := parseRouteSpec(body)
		if perr != nil {
			c.drop(slot, perr)
			return
		}
		idx := v.AddRoute(NewEndpointRoute(route, ackless, 1000))
		c.replyEndpoint(slot, pkt, RouteSetRes, []byte{byte(idx)})

	case RouteRmReq:
		if len(body) == 0 || int(body[0]) >= len(ep.routes) {
			c.drop(slot, ErrMalformed)
			return
		}
		i := int(body[0])
		ep.routes = append(ep.routes[:i], ep.routes[i+1:]...)
		c.replyEndpoint(slot, pkt, RouteRmRes, nil)

	default:
		c.drop(slot, ErrMalformed)
	}
}

// dispatchData runs OnData (if set) and stores data on DataAccept.
func (ep *Endpoint) dispatchData(data []byte) DataVerdict {
	verdict := DataAccept
	if ep.OnData != nil {
		verdict = ep.OnData(data)
	}
	if verdict == DataAccept {
		ep.Data = append(ep.Data[:0], data...)
	}
	return verdict
}

// routeSpecHeaderLen is the mode+ttl+segSize prefix every RouteSetReq
// and MapSetReq body carries ahead of its raw opcode-pair path (spec
// §4.5, §4.6; mirrors vt_endpoint.cpp's EP_ROUTE_SET_REQ layout).
const routeSpecHeaderLen = 5

// parseRouteSpec decodes a RouteSetReq/MapSetReq body into an ackless
// flag and a built Route: body[0] bit 0 is the ackless flag, body[1:3]
// and body[3:5] are little-endian ttl and segSize, and the remainder
// is a stream of opcodeWidth-sized SIB/PARENT/CHILD/PFWD/BFWD/BBRD
// pairs appended to the route in order.
func parseRouteSpec(body []byte) (ackless bool, route *Route, err error) {
	if len(body) < routeSpecHeaderLen {
		return false, nil, ErrMalformed
	}
	ackless = body[0]&0x01 != 0
	ttl := readU16(body, 1)
	segSize := readU16(body, 3)
	route = NewRoute().TTL(ttl).SegSize(segSize)

	path := body[routeSpecHeaderLen:]
	if len(path)%opcodeWidth != 0 {
		return false, nil, ErrMalformed
	}
	for off := 0; off < len(path); off += opcodeWidth {
		key, arg := decodeOpcode(path, off)
		switch key {
		case KeySIB:
			route = route.Sib(int(arg))
		case KeyPARENT:
			route = route.Parent()
		case KeyCHILD:
			route = route.Child(int(arg))
		case KeyPFWD:
			route = route.Pfwd()
		case KeyBFWD:
			route = route.Bfwd(arg)
		case KeyBBRD:
			route = route.Bbrd(arg)
		default:
			return false, nil, ErrMalformed
		}
	}
	return ackless, route, nil
}

func (c *Context) replyEndpoint(slot int32, pkt *Packet, sub int, data []byte) {
	payload := append([]byte{byte(sub)}, data...)
	var out [MTU]byte
	n, err := writeReply(pkt.Bytes(), out[:], withDestPrefix(payload))
	if err != nil {
		c.drop(slot, err)
		return
	}
	pkt.Len = copy(pkt.Data[:], out[:n])
	pkt.ArrivalTime = c.Now()
}
