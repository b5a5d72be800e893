package osap

import "github.com/jakeread/osap-go/internal/metrics"

// Pool is the fixed-size ring of packet slots every vertex borrows
// from and returns to (spec §4.2). It is an arena: a flat slice
// allocated once at NewPool and never grown, indexed by int32 so
// vertices and in-flight datagrams can reference a slot without
// holding a pointer into it across a release/reuse cycle.
//
// Grounded on gaissmai-bart's node/table split of storage from index
// (bitset-compressed arrays over a fixed backing slice): the same
// "no per-item allocation, index into an arena" discipline, applied
// here to packet buffers instead of route entries.
type Pool struct {
	slots []Packet

	freeHead int32 // singly-linked free list, LIFO

	queueHead, queueTail int32 // doubly-linked FIFO of held slots
	count                int32

	highWater int32
	metrics   *metrics.Recorder
}

// NewPool allocates a Pool with the given number of slots.
func NewPool(size int, rec *metrics.Recorder) *Pool {
	p := &Pool{
		slots:     make([]Packet, size),
		freeHead:  0,
		queueHead: nilSlot,
		queueTail: nilSlot,
		metrics:   rec,
	}
	for i := range p.slots {
		p.slots[i].indice = int32(i)
		p.slots[i].next = nilSlot
		p.slots[i].prev = nilSlot
		if i == len(p.slots)-1 {
			p.slots[i].free = nilSlot
		} else {
			p.slots[i].free = int32(i + 1)
		}
	}
	return p
}

// Len returns the number of slots allocated in total.
func (p *Pool) Len() int { return len(p.slots) }

// InUse returns the number of currently held (queued) slots.
func (p *Pool) InUse() int32 { return p.count }

// HighWater returns the largest InUse() value observed since NewPool.
func (p *Pool) HighWater() int32 { return p.highWater }

// Slot returns a pointer to the slot at idx. idx must be a value
// previously returned by Request.
func (p *Pool) Slot(idx int32) *Packet { return &p.slots[idx] }

// Request borrows a free slot on behalf of v, failing if the pool is
// exhausted or v already holds its maxHold quota (spec §4.2, §5).
func (p *Pool) Request(v *Vertex) (*Packet, int32, error) {
	if p.freeHead == nilSlot {
		return nil, nilSlot, ErrPoolExhausted
	}
	if v.currentHold >= v.maxHold {
		return nil, nilSlot, ErrQuotaExceeded
	}

	idx := p.freeHead
	slot := &p.slots[idx]
	p.freeHead = slot.free
	slot.free = nilSlot

	slot.prev = p.queueTail
	slot.next = nilSlot
	if p.queueTail != nilSlot {
		p.slots[p.queueTail].next = idx
	} else {
		p.queueHead = idx
	}
	p.queueTail = idx

	slot.vt = v
	v.currentHold++

	p.count++
	if p.count > p.highWater {
		p.highWater = p.count
		p.metrics.SetHighWater(int(p.highWater))
	}
	p.metrics.SetHold(v.Name, v.currentHold)

	return slot, idx, nil
}

// Load copies data into the slot at idx and stamps its arrival time.
func (p *Pool) Load(idx int32, data []byte, arrivalTime uint32) error {
	if len(data) > MTU {
		return ErrBoundsExceeded
	}
	slot := &p.slots[idx]
	slot.Len = copy(slot.Data[:], data)
	slot.ArrivalTime = arrivalTime
	return nil
}

// Release returns the slot at idx to the free list. Safe to call on
// an already-free slot (no-op), matching the ackless-resend and
// drop-on-error call sites that don't track whether a prior release
// already happened.
func (p *Pool) Release(idx int32) {
	slot := &p.slots[idx]
	if slot.vt == nil {
		return
	}

	if slot.prev != nilSlot {
		p.slots[slot.prev].next = slot.next
	} else {
		p.queueHead = slot.next
	}
	if slot.next != nilSlot {
		p.slots[slot.next].prev = slot.prev
	} else {
		p.queueTail = slot.prev
	}

	v := slot.vt
	v.currentHold--
	p.count--
	p.metrics.SetHold(v.Name, v.currentHold)

	*slot = Packet{}
	slot.indice = idx
	slot.next = nilSlot
	slot.prev = nilSlot
	slot.free = p.freeHead
	p.freeHead = idx
}

// Collect returns up to max slot indices currently held, oldest
// first, without mutating pool state (spec §4.2's per-tick scan).
func (p *Pool) Collect(max int, out []int32) []int32 {
	out = out[:0]
	for idx := p.queueHead; idx != nilSlot && len(out) < max; idx = p.slots[idx].next {
		out = append(out, idx)
	}
	return out
}
