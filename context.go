package osap

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakeread/osap-go/internal/metrics"
)

// TimeSource returns the device's current tick time, in whatever unit
// Vertex deadlines and packet ArrivalTime are expressed in
// (milliseconds, by convention, but the core never assumes wall-clock
// semantics). Swapped for a fake clock in tests.
type TimeSource func() uint32

// MaxItemsPerLoop bounds how many queued slots a single Tick will
// collect and dispatch (spec §4.4, §5's loop-overrun halt condition).
const MaxItemsPerLoop = 64

// DebugRingSize bounds the Context's in-memory error/debug ring (spec
// §6's DBG_RES readback); it is not a wire buffer, just local history
// for introspection.
const DebugRingSize = 32

// Context is a device: the vertex tree rooted at Root, the packet Pool
// every vertex borrows from, and the bookkeeping the scheduler needs
// to drive Tick. Every dropped or debug-worthy event lands in the
// bounded error/debug ring backing DBG_RES (spec §6), and is also
// logged to Logger at debug level (a no-op logger when none is
// attached), including drops made inside Tick.
type Context struct {
	Root *Vertex
	Pool *Pool
	Now  TimeSource

	Logger  *zap.Logger
	Metrics *metrics.Recorder

	SessionID uuid.UUID

	Persister Persister

	collectBuf []int32

	errRing []string
	errHead int
	errCount uint32

	dbgRing []string
	dbgHead int
	dbgCount uint32
}

// NewContext builds a device around poolSize packet slots and root.
// rec and logger may be nil.
func NewContext(root *Vertex, poolSize int, now TimeSource, rec *metrics.Recorder, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Root:      root,
		Pool:      NewPool(poolSize, rec),
		Now:       now,
		Logger:    logger,
		Metrics:   rec,
		SessionID: uuid.New(),
		Persister: noopPersister{},
		errRing:   make([]string, DebugRingSize),
		dbgRing:   make([]string, DebugRingSize),
	}
}

func (c *Context) pushErr(msg string) {
	c.errRing[c.errHead] = msg
	c.errHead = (c.errHead + 1) % len(c.errRing)
	c.errCount++
	c.Metrics.IncErrors()
	c.Logger.Debug("osap error", zap.String("msg", msg))
}

func (c *Context) pushDbg(msg string) {
	c.dbgRing[c.dbgHead] = msg
	c.dbgHead = (c.dbgHead + 1) % len(c.dbgRing)
	c.dbgCount++
	c.Metrics.IncDebugs()
	c.Logger.Debug("osap debug", zap.String("msg", msg))
}

// drop releases slot and records err in the error ring. It is the
// single point every dispatch/transport failure funnels through so
// DBG_RES and the error counter stay consistent (spec §6).
func (c *Context) drop(slot int32, err error) {
	c.pushErr(err.Error())
	c.Pool.Release(slot)
}

// ErrorCount and DebugCount expose the DBG_STAT counters (spec §6).
func (c *Context) ErrorCount() uint32 { return c.errCount }
func (c *Context) DebugCount() uint32 { return c.dbgCount }

// RecentErrors and RecentDebugs return up to n most recent ring
// entries, newest first, backing DBG_RES readback.
func (c *Context) RecentErrors(n int) []string { return recent(c.errRing, c.errHead, n) }
func (c *Context) RecentDebugs(n int) []string { return recent(c.dbgRing, c.dbgHead, n) }

func recent(ring []string, head, n int) []string {
	if n > len(ring) {
		n = len(ring)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (head - 1 - i + len(ring)) % len(ring)
		if ring[idx] == "" {
			break
		}
		out = append(out, ring[idx])
	}
	return out
}
