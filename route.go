package osap

// Route is a reusable, value-data path: a PTR marker followed by zero
// or more opcode pairs, plus the ttl/segSize header fields a datagram
// built from it should carry. Building a datagram concatenates a
// Route's bytes with a payload; nothing here touches a live pool, so
// routes are constructed once (e.g. from config) and reused across
// many sends (spec §3.4).
//
// Grounded on kabili207/meshcore-go's path-prefixed packet builder
// (other_examples): a small fluent builder over a fixed byte buffer,
// no allocation beyond the buffer itself.
type Route struct {
	ttl     uint16
	segSize uint16
	buf     [MaxPathSteps * opcodeWidth]byte
	n       int // bytes used in buf, always a multiple of opcodeWidth
	err     error
}

// DefaultTTL and DefaultSegSize are the values NewRoute starts from
// when the caller doesn't override them (spec §3.1's per-hop TTL,
// §6's reference MTU).
const (
	DefaultTTL     = 8
	DefaultSegSize = MTU
)

// NewRoute starts an empty route: just the leading PTR marker.
func NewRoute() *Route {
	r := &Route{ttl: DefaultTTL, segSize: DefaultSegSize}
	r.n = opcodeWidth // PTR occupies the first pair; encoded lazily in Build
	return r
}

// TTL overrides the route's ttl field.
func (r *Route) TTL(ttl uint16) *Route {
	r.ttl = ttl
	return r
}

// SegSize overrides the route's segSize field.
func (r *Route) SegSize(segSize uint16) *Route {
	r.segSize = segSize
	return r
}

func (r *Route) push(key Key, arg uint16) *Route {
	if r.err != nil {
		return r
	}
	if r.n+opcodeWidth > len(r.buf) {
		r.err = ErrBoundsExceeded
		return r
	}
	encodeOpcode(r.buf[:], r.n, key, arg)
	r.n += opcodeWidth
	return r
}

// Sib appends a move to parent.children[indice].
func (r *Route) Sib(indice int) *Route { return r.push(KeySIB, uint16(indice)) }

// Parent appends a move to the current vertex's parent.
func (r *Route) Parent() *Route { return r.push(KeyPARENT, 0) }

// Child appends a move to children[indice].
func (r *Route) Child(indice int) *Route { return r.push(KeyCHILD, uint16(indice)) }

// Pfwd appends a hop out through the current (port) vertex.
func (r *Route) Pfwd() *Route { return r.push(KeyPFWD, 0) }

// Bfwd appends a hop out through the current (bus) vertex addressed
// directly at addr.
func (r *Route) Bfwd(addr uint16) *Route { return r.push(KeyBFWD, addr) }

// Bbrd appends a broadcast out through the current (bus) vertex on
// channel ch.
func (r *Route) Bbrd(ch uint16) *Route { return r.push(KeyBBRD, ch) }

// Dest terminates the route at the current vertex's destHandler.
func (r *Route) Dest() *Route { return r.push(KeyDEST, 0) }

// PingReq terminates the route with a canned ping request.
func (r *Route) PingReq() *Route { return r.push(KeyPINGREQ, 0) }

// ScopeReq terminates the route with a canned introspection request.
func (r *Route) ScopeReq() *Route { return r.push(KeySCOPEREQ, 0) }

// Build writes the route's header and opcode stream into out, then
// appends payload, returning the total length. out must be at least
// len(header)+r.Len()+len(payload) bytes.
func (r *Route) Build(out []byte, payload []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	need := offOpcodes + r.n + len(payload)
	if need > len(out) {
		return 0, ErrBoundsExceeded
	}
	writeTTL(out, r.ttl)
	writeSegSize(out, r.segSize)
	encodeOpcode(out, offOpcodes, KeyPTR, 0)
	copy(out[offOpcodes+opcodeWidth:], r.buf[opcodeWidth:r.n])
	n := offOpcodes + r.n
	n += copy(out[n:], payload)
	return n, nil
}

// Len reports the number of opcode-stream bytes the route occupies,
// including the leading PTR pair.
func (r *Route) Len() int { return r.n }
