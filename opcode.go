package osap

// Key is the 4-bit routing instruction that leads every opcode pair in
// a datagram's opcode stream (spec §3.1).
type Key byte

// Opcode keys. The high nibble of the pair's first byte; values match
// the wire encoding exactly so Key(b&0xF0) is a valid cast.
const (
	KeyPTR      Key = 0xF0 // marks current position
	KeyDEST     Key = 0xE0 // terminal: deliver to current vertex
	KeyPINGREQ  Key = 0xC0 // terminal: respond with PINGRES
	KeyPINGRES  Key = 0xB0
	KeySCOPEREQ Key = 0xA0 // terminal: respond with SCOPERES
	KeySCOPERES Key = 0x90
	KeyLLESCAPE Key = 0x70 // terminal: link-level escape, unused in-device
	KeySIB      Key = 0x10 // tree walk: move to sibling(arg)
	KeyPARENT   Key = 0x20 // tree walk: move to parent, arg ignored
	KeyCHILD    Key = 0x30 // tree walk: move to child(arg)
	KeyPFWD     Key = 0x40 // network: send via current vertex's port
	KeyBFWD     Key = 0x50 // network: send via bus to address arg
	KeyBBRD     Key = 0x60 // network: broadcast via bus on channel arg
)

// keyMask extracts the key nibble from an opcode pair's first byte.
const keyMask = 0xF0

func (k Key) String() string {
	switch k {
	case KeyPTR:
		return "PTR"
	case KeyDEST:
		return "DEST"
	case KeyPINGREQ:
		return "PINGREQ"
	case KeyPINGRES:
		return "PINGRES"
	case KeySCOPEREQ:
		return "SCOPEREQ"
	case KeySCOPERES:
		return "SCOPERES"
	case KeyLLESCAPE:
		return "LLESCAPE"
	case KeySIB:
		return "SIB"
	case KeyPARENT:
		return "PARENT"
	case KeyCHILD:
		return "CHILD"
	case KeyPFWD:
		return "PFWD"
	case KeyBFWD:
		return "BFWD"
	case KeyBBRD:
		return "BBRD"
	default:
		return "UNKNOWN"
	}
}

// isTreeWalk reports whether k is one of SIB/PARENT/CHILD.
func (k Key) isTreeWalk() bool {
	return k == KeySIB || k == KeyPARENT || k == KeyCHILD
}

// isNetwork reports whether k is one of PFWD/BFWD/BBRD.
func (k Key) isNetwork() bool {
	return k == KeyPFWD || k == KeyBFWD || k == KeyBBRD
}

// isTerminal reports whether k ends an in-device tree walk: either a
// vertex handler consumes it directly (DEST, PINGREQ, SCOPEREQ,
// LLESCAPE) or a link adapter forwards it off the device (PFWD, BFWD,
// BBRD).
func (k Key) isTerminal() bool {
	switch k {
	case KeyDEST, KeyPINGREQ, KeySCOPEREQ, KeyLLESCAPE, KeyPFWD, KeyBFWD, KeyBBRD:
		return true
	default:
		return false
	}
}

// Endpoint sub-keys (spec §6), read at data[ptr+4]: the byte after the
// PTR pair and the DEST pair that follows it.
const (
	SSAck     = 101
	SSAckless = 121
	SSAcked   = 122

	Query     = 131
	QueryResp = 132

	RouteQueryReq = 141
	RouteQueryRes = 142
	RouteSetReq   = 143
	RouteSetRes   = 144
	MapSetReq     = 145
	MapSetRes     = 146
	RouteRmReq    = 147
	RouteRmRes    = 148
	MapRmReq      = 149
	MapRmRes      = 150
)

// Root debug sub-keys (spec §6).
const (
	DbgStat   = 151
	DbgErrMsg = 152
	DbgDbgMsg = 153
	DbgRes    = 161
)
