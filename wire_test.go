package osap

import "testing"

func TestTTLSegSizeRoundTrip(t *testing.T) {
	var b [8]byte
	writeTTL(b[:], 1234)
	writeSegSize(b[:], 256)

	if got := readTTL(b[:]); got != 1234 {
		t.Errorf("readTTL() = %d, want 1234", got)
	}
	if got := readSegSize(b[:]); got != 256 {
		t.Errorf("readSegSize() = %d, want 256", got)
	}
}

func TestOpcodeRoundTrip(t *testing.T) {
	cases := []struct {
		key Key
		arg uint16
	}{
		{KeyPTR, 0},
		{KeySIB, 15},
		{KeyBFWD, 0x0FFF},
		{KeyCHILD, 1},
	}
	for _, c := range cases {
		var b [2]byte
		encodeOpcode(b[:], 0, c.key, c.arg)
		gotKey, gotArg := decodeOpcode(b[:], 0)
		if gotKey != c.key || gotArg != c.arg {
			t.Errorf("encode/decode(%v, %d) round-tripped to (%v, %d)", c.key, c.arg, gotKey, gotArg)
		}
	}
}

func TestEncodeOpcodeMasksArg(t *testing.T) {
	var b [2]byte
	encodeOpcode(b[:], 0, KeySIB, 0xFFFF)
	_, arg := decodeOpcode(b[:], 0)
	if arg != 0x0FFF {
		t.Errorf("arg = 0x%X, want masked to 0x0FFF", arg)
	}
}
