package osap

// PersistedState is the subset of a device's configuration that
// survives a restart: assigned bus addresses and subscribed broadcast
// channels, keyed by bus vertex name. Non-volatile storage
// itself is out of scope (spec §1's Non-goals) — Persister is the
// seam a host application wires to flash, a file, or nothing.
type PersistedState struct {
	BusAddrs map[string]uint16
	Channels map[string]map[uint]*Route
}

// Persister loads and saves a device's PersistedState. The default,
// noopPersister, makes persistence opt-in: a Context works with no
// backing store at all.
type Persister interface {
	Load() (PersistedState, error)
	Save(PersistedState) error
}

type noopPersister struct{}

func (noopPersister) Load() (PersistedState, error) { return PersistedState{}, nil }
func (noopPersister) Save(PersistedState) error      { return nil }

// NewRootVertex creates the root vertex of a device's tree.
func NewRootVertex(name string) *Vertex {
	return NewVertex(name, KindRoot)
}

// ApplyPersisted restores bus addresses and channel subscriptions from
// state onto the tree rooted at root, by vertex name.
func ApplyPersisted(root *Vertex, state PersistedState) {
	walkVertices(root, func(v *Vertex) {
		if v.bus == nil {
			return
		}
		if addr, ok := state.BusAddrs[v.Name]; ok {
			v.bus.OwnRxAddr = addr
		}
		for ch, route := range state.Channels[v.Name] {
			v.SubscribeChannel(ch, route)
		}
	})
}

// CapturePersisted snapshots bus addresses and channel subscriptions
// from the tree rooted at root into a PersistedState.
func CapturePersisted(root *Vertex) PersistedState {
	state := PersistedState{BusAddrs: map[string]uint16{}, Channels: map[string]map[uint]*Route{}}
	walkVertices(root, func(v *Vertex) {
		if v.bus == nil {
			return
		}
		state.BusAddrs[v.Name] = v.bus.OwnRxAddr
		if len(v.bus.channels) > 0 {
			chans := make(map[uint]*Route, len(v.bus.channels))
			for ch, route := range v.bus.channels {
				chans[ch] = route
			}
			state.Channels[v.Name] = chans
		}
	})
	return state
}

func walkVertices(v *Vertex, fn func(*Vertex)) {
	fn(v)
	for _, child := range v.children.Items {
		walkVertices(child, fn)
	}
}

// rootDest handles the root's debug sub-protocol (spec §6, supplementing
// src/osap.cpp's DBG handling): DBG_STAT reports counters, DBG_ERRMSG
// and DBG_DBGMSG read back ring entries by index, DBG_RES is the
// combined readback used by introspection tooling.
func (c *Context) rootDest(slot int32, v *Vertex, pkt *Packet) {
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
	var body []byte
	if subOff+1 < pkt.Len {
		body = pkt.Data[subOff+1 : pkt.Len]
	}

	switch int(sub) {
	case DbgStat:
		counts := make([]byte, 6)
		writeU16(counts, 0, uint16(c.Pool.HighWater()))
		writeU16(counts, 2, uint16(c.errCount))
		writeU16(counts, 4, uint16(c.dbgCount))
		c.replyEndpoint(slot, pkt, DbgRes, counts)

	case DbgErrMsg:
		c.replyRing(slot, pkt, DbgErrMsg, c.RecentErrors(len(c.errRing)), body)

	case DbgDbgMsg:
		c.replyRing(slot, pkt, DbgDbgMsg, c.RecentDebugs(len(c.dbgRing)), body)

	case DbgRes:
		var msgs []string
		if len(body) > 0 && body[0] == 1 {
			msgs = c.RecentDebugs(len(c.dbgRing))
		} else {
			msgs = c.RecentErrors(len(c.errRing))
		}
		c.replyRing(slot, pkt, DbgRes, msgs, body[min(1, len(body)):])

	default:
		c.drop(slot, ErrMalformed)
	}
}

func (c *Context) replyRing(slot int32, pkt *Packet, sub int, ring []string, body []byte) {
	idx := 0
	if len(body) > 0 {
		idx = int(body[0])
	}
	var msg string
	if idx < len(ring) {
		msg = ring[idx]
	}
	c.replyEndpoint(slot, pkt, sub, []byte(msg))
}
