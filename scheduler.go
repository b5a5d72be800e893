package osap

import "container/heap"

// deadlineHeap orders collected slot indices by ascending Packet.Deadline
// so Tick dispatches the most time-pressed datagrams first (spec §4.4's
// "sort collected slots by deadline" step, left as a named TODO in the
// original scheduler notes; container/heap gives it here for free).
type deadlineHeap struct {
	pool *Pool
	idx  []int32
}

func (h *deadlineHeap) Len() int { return len(h.idx) }
func (h *deadlineHeap) Less(i, j int) bool {
	return h.pool.Slot(h.idx[i]).Deadline < h.pool.Slot(h.idx[j]).Deadline
}
func (h *deadlineHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *deadlineHeap) Push(x any)    { h.idx = append(h.idx, x.(int32)) }
func (h *deadlineHeap) Pop() any {
	n := len(h.idx)
	v := h.idx[n-1]
	h.idx = h.idx[:n-1]
	return v
}

// Tick runs one cooperative scheduler pass (spec §4.4):
//
//  1. Recurse the vertex tree depth-first, running each non-root
//     vertex's OnLoop hook.
//  2. Collect up to MaxItemsPerLoop queued slots.
//  3. Recompute each slot's deadline and order them soonest-first.
//  4. Dispatch each by the opcode immediately after its PTR.
//
// Tick reuses its collected-slot buffer across calls but builds a new
// deadline heap on every pass. It never blocks: a destination with no
// hold quota this tick just leaves its packet queued for the next one.
func (c *Context) Tick() error {
	if int(c.Pool.InUse()) > MaxItemsPerLoop-2 {
		return ErrLoopOverrun
	}

	c.runLoops(c.Root)

	collected := c.Pool.Collect(MaxItemsPerLoop, c.collectBuf[:0])
	c.collectBuf = collected

	now := c.Now()
	dh := &deadlineHeap{pool: c.Pool, idx: make([]int32, 0, len(collected))}
	for _, slot := range collected {
		pkt := c.Pool.Slot(slot)
		pkt.Deadline = deadlineFor(pkt, now)
		dh.Push(slot)
	}
	heap.Init(dh)

	for dh.Len() > 0 {
		slot := heap.Pop(dh).(int32)
		c.dispatch(slot, now)
	}

	return nil
}

// deadlineFor computes a packet's current deadline from its ttl field
// and arrival time (spec §3.1: ttl is consumed per hop, not end to
// end — each vertex re-stamps ArrivalTime when it takes ownership, so
// the remaining budget is always relative to the most recent hop).
func deadlineFor(pkt *Packet, now uint32) uint32 {
	ttl := readTTL(pkt.Bytes())
	return pkt.ArrivalTime + uint32(ttl)
}

func (c *Context) runLoops(v *Vertex) {
	if v.Kind != KindRoot && v.OnLoop != nil {
		v.OnLoop(c, v)
	}
	for _, child := range v.children.Items {
		c.runLoops(child)
	}
}

// dispatch routes one collected slot by the opcode immediately after
// its PTR (spec §4.4's dispatch table).
func (c *Context) dispatch(slot int32, now uint32) {
	pkt := c.Pool.Slot(slot)

	if ttl := readTTL(pkt.Bytes()); now-pkt.ArrivalTime > uint32(ttl) {
		c.drop(slot, ErrDeadlineExpired)
		return
	}

	ptrOff, err := findPTR(pkt.Bytes())
	if err != nil {
		c.drop(slot, err)
		return
	}
	key, arg, err := peekForward(pkt.Bytes(), ptrOff)
	if err != nil {
		c.drop(slot, err)
		return
	}

	v := pkt.vt

	switch {
	case key.isTreeWalk():
		if err := c.resolveTreeWalk(slot); err != nil && err != ErrBackpressure {
			c.drop(slot, err)
		}

	case key == KeyPFWD:
		if err := c.sendViaPort(slot, v); err != nil && err != ErrBackpressure {
			c.drop(slot, err)
		}

	case key == KeyBFWD || key == KeyBBRD:
		if err := c.sendViaBus(slot, v, key, arg); err != nil && err != ErrBackpressure {
			c.drop(slot, err)
		}

	case key == KeyPINGREQ:
		c.replyPing(slot, v, pkt)

	case key == KeySCOPEREQ:
		c.replyScope(slot, v, pkt)

	case key == KeyDEST:
		c.dispatchDest(slot, v, pkt)

	default:
		c.drop(slot, ErrMalformed)
	}
}

// replyPing answers a PINGREQ in place with PINGRES and the echoed
// single-byte id that follows the opcode (spec §8's self-ping
// scenario).
func (c *Context) replyPing(slot int32, v *Vertex, pkt *Packet) {
	ptrOff, err := findPTR(pkt.Bytes())
	if err != nil {
		c.drop(slot, err)
		return
	}
	fwdOff := ptrOff + opcodeWidth
	var id byte
	if fwdOff+opcodeWidth < pkt.Len {
		id = pkt.Data[fwdOff+opcodeWidth]
	}

	var payload [opcodeWidth + 1]byte
	encodeOpcode(payload[:], 0, KeyPINGRES, 0)
	payload[opcodeWidth] = id

	var out [MTU]byte
	n, err := writeReply(pkt.Bytes(), out[:], payload[:])
	if err != nil {
		c.drop(slot, err)
		return
	}
	pkt.Len = copy(pkt.Data[:], out[:n])
	pkt.ArrivalTime = c.Now()
}

// replyScope answers a SCOPEREQ in place with SCOPERES carrying the
// vertex's kind, child count and name, for introspection tooling
// (spec §8's `graph` style use case).
func (c *Context) replyScope(slot int32, v *Vertex, pkt *Packet) {
	payload := make([]byte, opcodeWidth+2+len(v.Name))
	encodeOpcode(payload, 0, KeySCOPERES, 0)
	payload[opcodeWidth] = byte(v.Kind)
	payload[opcodeWidth+1] = byte(v.NumChildren())
	copy(payload[opcodeWidth+2:], v.Name)

	var out [MTU]byte
	n, err := writeReply(pkt.Bytes(), out[:], payload)
	if err != nil {
		c.drop(slot, err)
		return
	}
	pkt.Len = copy(pkt.Data[:], out[:n])
	pkt.ArrivalTime = c.Now()
}

// dispatchDest hands a terminal DEST opcode to the owning vertex's
// capability-specific handler (endpoint sub-key dispatch, RPC
// argument dispatch); vertices with no such handler drop the packet.
func (c *Context) dispatchDest(slot int32, v *Vertex, pkt *Packet) {
	switch {
	case v.endpoint != nil:
		c.endpointDest(slot, v, pkt)
	case v.rpc != nil:
		c.rpcDest(slot, v, pkt)
	case v.bus != nil:
		c.busDest(slot, v, pkt)
	case v.Kind == KindRoot:
		c.rootDest(slot, v, pkt)
	default:
		c.drop(slot, ErrCapabilityMismatch)
	}
}
