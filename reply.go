package osap

// writeReply builds, into out, the datagram that answers original: the
// same ttl/segSize header, a fresh PTR, a forward plan that is
// original's return trail read back to front (each pair there is
// already the exact reverse of the hop it records, so replaying them
// start-to-end retraces the path home), and payload appended after.
//
// Pure function, no pool or vertex dependency, per spec §4.7 — every
// terminal handler calls this to answer in place without bespoke
// path-rewriting logic of its own.
func writeReply(original []byte, out []byte, payload []byte) (int, error) {
	if len(original) < offOpcodes+opcodeWidth {
		return 0, ErrMalformed
	}
	ptrOff, err := findPTR(original)
	if err != nil {
		return 0, err
	}
	if len(out) < offOpcodes+opcodeWidth {
		return 0, ErrBoundsExceeded
	}

	copy(out[offTTL:offOpcodes], original[offTTL:offOpcodes])

	w := offOpcodes
	encodeOpcode(out, w, KeyPTR, 0)
	w += opcodeWidth

	for p := ptrOff - opcodeWidth; p >= offOpcodes; p -= opcodeWidth {
		if w+opcodeWidth > len(out) {
			return 0, ErrBoundsExceeded
		}
		out[w] = original[p]
		out[w+1] = original[p+1]
		w += opcodeWidth
	}

	if w+len(payload) > len(out) {
		return 0, ErrBoundsExceeded
	}
	w += copy(out[w:], payload)
	return w, nil
}
