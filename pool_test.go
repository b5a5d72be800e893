package osap

import "testing"

func TestPoolRequestReleaseRoundTrip(t *testing.T) {
	p := NewPool(4, nil)
	v := NewVertex("v", KindGeneric)
	v.SetMaxHold(4)

	_, idx1, err := p.Request(v)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if p.InUse() != 1 {
		t.Errorf("InUse() = %d, want 1", p.InUse())
	}
	if v.CurrentHold() != 1 {
		t.Errorf("CurrentHold() = %d, want 1", v.CurrentHold())
	}

	p.Release(idx1)
	if p.InUse() != 0 {
		t.Errorf("InUse() after release = %d, want 0", p.InUse())
	}
	if v.CurrentHold() != 0 {
		t.Errorf("CurrentHold() after release = %d, want 0", v.CurrentHold())
	}
}

func TestPoolExhaustion(t *testing.T) {
	p := NewPool(2, nil)
	v := NewVertex("v", KindGeneric)
	v.SetMaxHold(4)

	if _, _, err := p.Request(v); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Request(v); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Request(v); err != ErrPoolExhausted {
		t.Errorf("Request() error = %v, want ErrPoolExhausted", err)
	}
}

func TestPoolQuotaExceeded(t *testing.T) {
	p := NewPool(8, nil)
	v := NewVertex("v", KindGeneric) // default maxHold 1

	if _, _, err := p.Request(v); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Request(v); err != ErrQuotaExceeded {
		t.Errorf("Request() error = %v, want ErrQuotaExceeded", err)
	}
}

func TestPoolReleaseIsIdempotent(t *testing.T) {
	p := NewPool(2, nil)
	v := NewVertex("v", KindGeneric)
	v.SetMaxHold(2)

	_, idx, _ := p.Request(v)
	p.Release(idx)
	p.Release(idx) // must not double-decrement currentHold or corrupt free list

	if v.CurrentHold() != 0 {
		t.Errorf("CurrentHold() = %d, want 0", v.CurrentHold())
	}
	if p.InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", p.InUse())
	}

	// pool should still be fully usable afterwards
	for i := 0; i < p.Len(); i++ {
		if _, _, err := p.Request(v); err != nil {
			t.Fatalf("Request() #%d error = %v", i, err)
		}
	}
}

func TestPoolCollectOrder(t *testing.T) {
	p := NewPool(4, nil)
	v := NewVertex("v", KindGeneric)
	v.SetMaxHold(4)

	var indices []int32
	for i := 0; i < 3; i++ {
		_, idx, err := p.Request(v)
		if err != nil {
			t.Fatal(err)
		}
		indices = append(indices, idx)
	}

	got := p.Collect(10, nil)
	if len(got) != 3 {
		t.Fatalf("Collect() len = %d, want 3", len(got))
	}
	for i, idx := range indices {
		if got[i] != idx {
			t.Errorf("Collect()[%d] = %d, want %d (FIFO order)", i, got[i], idx)
		}
	}
}

func TestPoolHighWaterMark(t *testing.T) {
	p := NewPool(4, nil)
	v := NewVertex("v", KindGeneric)
	v.SetMaxHold(4)

	idxs := make([]int32, 0, 3)
	for i := 0; i < 3; i++ {
		_, idx, _ := p.Request(v)
		idxs = append(idxs, idx)
	}
	for _, idx := range idxs {
		p.Release(idx)
	}
	if p.HighWater() != 3 {
		t.Errorf("HighWater() = %d, want 3", p.HighWater())
	}
}
