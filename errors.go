package osap

import "errors"

// Sentinel errors returned by core operations. Scheduler-internal
// drops never propagate a Go panic (spec §7); they're folded into the
// device's error ring (see Context.errRing) and, where the failing
// call has a direct caller (e.g. Pool.Request), also returned here.
var (
	// ErrPoolExhausted is returned by Pool.Request when no free slot
	// remains in the ring.
	ErrPoolExhausted = errors.New("osap: packet pool exhausted")

	// ErrQuotaExceeded is returned by Pool.Request when the requesting
	// vertex already holds its maxHold quota.
	ErrQuotaExceeded = errors.New("osap: vertex hold quota exceeded")

	// ErrMalformed marks a datagram that failed to parse: the opcode
	// stream ends before a PTR is found, an unknown opcode key, or a
	// truncated field.
	ErrMalformed = errors.New("osap: malformed datagram")

	// ErrUnreachable marks an addressing failure: SIB/CHILD arg out of
	// range, or PARENT requested at the root.
	ErrUnreachable = errors.New("osap: unreachable vertex")

	// ErrCapabilityMismatch marks an opcode directed at a vertex that
	// doesn't implement the required capability (PFWD on a non-port,
	// BFWD/BBRD on a non-bus).
	ErrCapabilityMismatch = errors.New("osap: vertex lacks required capability")

	// ErrBoundsExceeded marks a walk or scan that ran past its fixed
	// step bound (MaxPathSteps) without reaching its target.
	ErrBoundsExceeded = errors.New("osap: path walk exceeded bound")

	// ErrDeadlineExpired marks a packet released because its TTL was
	// consumed before it could be dispatched.
	ErrDeadlineExpired = errors.New("osap: packet deadline expired")

	// ErrBackpressure is not a failure: the operation would have
	// succeeded but the destination has no capacity this tick. Callers
	// leave the packet queued and retry on the next tick.
	ErrBackpressure = errors.New("osap: backpressure, retry next tick")

	// ErrLoopOverrun is fatal: more than MaxItemsPerLoop-2 slots were
	// queued in a single tick, a loop-property violation spec §5 says
	// should halt the device.
	ErrLoopOverrun = errors.New("osap: scheduler loop overrun, halting")
)
