package slotset

// Array is a popcount-compressed sparse array over a domain of at most
// 64 slots, payload T. Index i does not move in the logical domain even
// though its payload is stored compacted in Items — that's the point:
// callers address slots by a small stable index (a vertex's child
// position) without paying for 64 empty slots.
type Array[T any] struct {
	Set   BitSet64
	Items []T
}

// Get returns the value at i, if present.
func (a *Array[T]) Get(i uint) (value T, ok bool) {
	if a.Set.Test(i) {
		return a.Items[a.Set.Rank0(i)], true
	}
	return
}

// MustGet returns the value at i. Callers must have tested i first.
func (a *Array[T]) MustGet(i uint) T {
	return a.Items[a.Set.Rank0(i)]
}

// Len returns the number of occupied slots.
func (a *Array[T]) Len() int {
	return len(a.Items)
}

// InsertAt places value at slot i, returning true if i was already
// occupied (in which case the old value is overwritten).
func (a *Array[T]) InsertAt(i uint, value T) (exists bool) {
	if a.Set.Test(i) {
		a.Items[a.Set.Rank0(i)] = value
		return true
	}

	a.Set.MustSet(i)
	a.insertItem(a.Set.Rank0(i), value)
	return false
}

// DeleteAt removes the value at slot i, if present.
func (a *Array[T]) DeleteAt(i uint) (value T, existed bool) {
	if !a.Set.Test(i) {
		return
	}

	rank0 := a.Set.Rank0(i)
	value = a.Items[rank0]

	a.deleteItem(rank0)
	a.Set.MustClear(i)

	return value, true
}

// FirstFreeSlot returns the lowest unoccupied index below domain, for
// callers that auto-assign a slot (e.g. AddChild picking the next free
// child index).
func (a *Array[T]) FirstFreeSlot(domain uint) (slot uint, ok bool) {
	for slot = range domain {
		if !a.Set.Test(slot) {
			return slot, true
		}
	}
	return 0, false
}

func (a *Array[T]) insertItem(i int, item T) {
	var zero T
	a.Items = append(a.Items, zero)
	copy(a.Items[i+1:], a.Items[i:])
	a.Items[i] = item
}

func (a *Array[T]) deleteItem(i int) {
	var zero T
	nl := len(a.Items) - 1
	copy(a.Items[i:], a.Items[i+1:])
	a.Items[nl] = zero
	a.Items = a.Items[:nl]
}
