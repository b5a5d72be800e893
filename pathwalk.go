package osap

// findPTR scans data's opcode stream from offOpcodes for the PTR
// marker, bounded to MaxPathSteps pairs (spec §3.1, §4.3). Any key
// outside the tree-walk/network set before PTR is found means the
// datagram is malformed.
func findPTR(data []byte) (int, error) {
	off := offOpcodes
	for step := 0; step < MaxPathSteps; step++ {
		if off+opcodeWidth > len(data) {
			return 0, ErrMalformed
		}
		key := Key(data[off] & keyMask)
		if key == KeyPTR {
			return off, nil
		}
		if !key.isTreeWalk() && !key.isNetwork() {
			return 0, ErrMalformed
		}
		off += opcodeWidth
	}
	return 0, ErrBoundsExceeded
}

// peekForward reads, without mutating, the opcode pair immediately
// after the PTR at ptrOff — the instruction a vertex is about to act
// on.
func peekForward(data []byte, ptrOff int) (key Key, arg uint16, err error) {
	fwdOff := ptrOff + opcodeWidth
	if fwdOff+opcodeWidth > len(data) {
		return 0, 0, ErrMalformed
	}
	key, arg = decodeOpcode(data, fwdOff)
	return key, arg, nil
}

// walkStep consumes the tree-walk or network opcode immediately after
// ptrOff, rewriting it in place into its exact reverse and advancing
// PTR past it (spec §4.1's reversal table). source is the vertex that
// currently owns the packet, i.e. the one being left.
func walkStep(data []byte, ptrOff int, source *Vertex) (newPtrOff int, consumed Key, arg uint16, err error) {
	fwdOff := ptrOff + opcodeWidth
	if fwdOff+opcodeWidth > len(data) {
		return 0, 0, 0, ErrMalformed
	}
	key, fwdArg := decodeOpcode(data, fwdOff)

	var revKey Key
	var revArg uint16
	switch key {
	case KeySIB:
		revKey, revArg = KeySIB, uint16(source.indice)
	case KeyPARENT:
		revKey, revArg = KeyCHILD, uint16(source.indice)
	case KeyCHILD:
		revKey, revArg = KeyPARENT, 0
	case KeyPFWD:
		revKey, revArg = KeyPFWD, 0
	case KeyBFWD:
		if source.bus == nil {
			return 0, 0, 0, ErrCapabilityMismatch
		}
		revKey, revArg = KeyBFWD, source.bus.OwnRxAddr
	case KeyBBRD:
		if source.bus == nil {
			return 0, 0, 0, ErrCapabilityMismatch
		}
		revKey, revArg = KeyBBRD, source.bus.OwnRxAddr
	default:
		return 0, 0, 0, ErrMalformed
	}

	encodeOpcode(data, ptrOff, revKey, revArg)
	encodeOpcode(data, fwdOff, KeyPTR, 0)
	return fwdOff, key, fwdArg, nil
}
