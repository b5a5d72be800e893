package osap

import "testing"

func newTestContext(root *Vertex, poolSize int) *Context {
	var tick uint32
	now := func() uint32 { tick++; return tick }
	return NewContext(root, poolSize, now, nil, nil)
}

func TestResolveTreeWalkMovesOwnership(t *testing.T) {
	parent := NewVertex("parent", KindGeneric)
	a := NewVertex("a", KindGeneric)
	b := NewVertex("b", KindGeneric)
	parent.AddChild(a)
	parent.AddChild(b)
	b.SetMaxHold(2)

	ctx := newTestContext(parent, 8)

	r := NewRoute().Sib(1).PingReq()
	var buf [64]byte
	n, err := r.Build(buf[:], nil)
	if err != nil {
		t.Fatal(err)
	}
	_, idx, err := ctx.Pool.Request(a)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Pool.Load(idx, buf[:n], 0); err != nil {
		t.Fatal(err)
	}

	if err := ctx.resolveTreeWalk(idx); err != nil {
		t.Fatalf("resolveTreeWalk() error = %v", err)
	}

	pkt := ctx.Pool.Slot(idx)
	if pkt.Vertex() != b {
		t.Errorf("packet owner = %v, want b", pkt.Vertex())
	}
	if a.CurrentHold() != 0 || b.CurrentHold() != 1 {
		t.Errorf("hold counts = %d,%d want 0,1", a.CurrentHold(), b.CurrentHold())
	}
}

func TestResolveTreeWalkBackpressure(t *testing.T) {
	parent := NewVertex("parent", KindGeneric)
	a := NewVertex("a", KindGeneric)
	b := NewVertex("b", KindGeneric)
	parent.AddChild(a)
	parent.AddChild(b)
	// b's default maxHold is 1; fill it first so the move has no room.

	ctx := newTestContext(parent, 8)
	if _, _, err := ctx.Pool.Request(b); err != nil {
		t.Fatal(err)
	}

	r := NewRoute().Sib(1).PingReq()
	var buf [64]byte
	n, _ := r.Build(buf[:], nil)
	_, idx, err := ctx.Pool.Request(a)
	if err != nil {
		t.Fatal(err)
	}
	ctx.Pool.Load(idx, buf[:n], 0)

	if err := ctx.resolveTreeWalk(idx); err != ErrBackpressure {
		t.Errorf("resolveTreeWalk() error = %v, want ErrBackpressure", err)
	}
	if ctx.Pool.Slot(idx).Vertex() != a {
		t.Errorf("packet should remain with a under backpressure")
	}
}

type fakePort struct {
	sent  [][]byte
	cts   bool
	open  bool
	inbox [][]byte
}

func (f *fakePort) Send(data []byte) error {
	cp := append([]byte(nil), data...)
	f.sent = append(f.sent, cp)
	return nil
}
func (f *fakePort) CTS() bool    { return f.cts }
func (f *fakePort) IsOpen() bool { return f.open }
func (f *fakePort) Recv() ([]byte, bool) {
	if len(f.inbox) == 0 {
		return nil, false
	}
	d := f.inbox[0]
	f.inbox = f.inbox[1:]
	return d, true
}

func TestSendViaPort(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	link := &fakePort{cts: true, open: true}
	portV := NewPortVertex("port", link)
	root.AddChild(portV)

	ctx := newTestContext(root, 8)

	r := NewRoute().Pfwd().PingReq()
	var buf [64]byte
	n, _ := r.Build(buf[:], nil)
	_, idx, err := ctx.Pool.Request(portV)
	if err != nil {
		t.Fatal(err)
	}
	ctx.Pool.Load(idx, buf[:n], 0)

	if err := ctx.sendViaPort(idx, portV); err != nil {
		t.Fatalf("sendViaPort() error = %v", err)
	}
	if len(link.sent) != 1 {
		t.Fatalf("link.sent = %d messages, want 1", len(link.sent))
	}
	if portV.CurrentHold() != 0 {
		t.Errorf("CurrentHold() = %d, want 0 (slot released)", portV.CurrentHold())
	}
}

func TestSendViaPortBackpressure(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	link := &fakePort{cts: false, open: true}
	portV := NewPortVertex("port", link)
	root.AddChild(portV)

	ctx := newTestContext(root, 8)
	r := NewRoute().Pfwd().PingReq()
	var buf [64]byte
	n, _ := r.Build(buf[:], nil)
	_, idx, _ := ctx.Pool.Request(portV)
	ctx.Pool.Load(idx, buf[:n], 0)

	if err := ctx.sendViaPort(idx, portV); err != ErrBackpressure {
		t.Errorf("sendViaPort() error = %v, want ErrBackpressure", err)
	}
	if len(link.sent) != 0 {
		t.Errorf("link.sent = %d, want 0 under backpressure", len(link.sent))
	}
}
