package osap

import "encoding/binary"

// Wire layout constants (spec §3.1).
const (
	offTTL     = 0
	offSegSize = 2
	offOpcodes = 4

	opcodeWidth = 2 // bytes per opcode pair

	// MaxPathSteps bounds both the PTR scan and any single tree/network
	// walk (spec §3.1, §4.1, §5).
	MaxPathSteps = 16
)

// readU16 reads a little-endian u16 at off.
func readU16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// writeU16 writes a little-endian u16 at off.
func writeU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// readTTL returns the datagram's ttl field.
func readTTL(b []byte) uint16 { return readU16(b, offTTL) }

// writeTTL sets the datagram's ttl field.
func writeTTL(b []byte, v uint16) { writeU16(b, offTTL, v) }

// readSegSize returns the datagram's segSize (MTU hint) field.
func readSegSize(b []byte) uint16 { return readU16(b, offSegSize) }

// writeSegSize sets the datagram's segSize field.
func writeSegSize(b []byte, v uint16) { writeU16(b, offSegSize, v) }

// decodeOpcode unpacks the key/arg pair at b[off:off+2]: high nibble of
// b[off] is the key, the low nibble of b[off] plus b[off+1] form the
// 12-bit little-endian arg.
func decodeOpcode(b []byte, off int) (key Key, arg uint16) {
	key = Key(b[off] & keyMask)
	arg = uint16(b[off]&0x0F) | uint16(b[off+1])<<4
	return
}

// encodeOpcode packs key/arg into b[off:off+2]. arg must fit in 12 bits.
func encodeOpcode(b []byte, off int, key Key, arg uint16) {
	arg &= 0x0FFF
	b[off] = byte(key) | byte(arg&0x0F)
	b[off+1] = byte(arg >> 4)
}
