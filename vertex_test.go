package osap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// shape is a comparable summary of a vertex subtree's names and kinds,
// for diffing whole trees without wrestling unexported fields or
// pointer identity into cmp.
type shape struct {
	Name     string
	Kind     VertexKind
	Children []shape
}

func treeShape(v *Vertex) shape {
	s := shape{Name: v.Name, Kind: v.Kind}
	for _, c := range v.Children() {
		s.Children = append(s.Children, treeShape(c))
	}
	return s
}

func TestTreeShapeMatchesConstruction(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	a := NewVertex("a", KindGeneric)
	b := NewVertex("b", KindEndpoint)
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(NewVertex("leaf", KindGeneric))

	got := treeShape(root)
	want := shape{
		Name: "root",
		Kind: KindGeneric,
		Children: []shape{
			{Name: "a", Kind: KindGeneric, Children: []shape{
				{Name: "leaf", Kind: KindGeneric},
			}},
			{Name: "b", Kind: KindEndpoint},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree shape mismatch (-want +got):\n%s", diff)
	}
}

func TestAddChildAssignsIndices(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	a := NewVertex("a", KindGeneric)
	b := NewVertex("b", KindGeneric)

	ia, err := root.AddChild(a)
	if err != nil || ia != 0 {
		t.Fatalf("AddChild(a) = %d, %v; want 0, nil", ia, err)
	}
	ib, err := root.AddChild(b)
	if err != nil || ib != 1 {
		t.Fatalf("AddChild(b) = %d, %v; want 1, nil", ib, err)
	}

	if root.NumChildren() != 2 {
		t.Errorf("NumChildren() = %d, want 2", root.NumChildren())
	}
	if a.Indice() != 0 || b.Indice() != 1 {
		t.Errorf("indices = %d,%d want 0,1", a.Indice(), b.Indice())
	}
}

func TestSiblingParentChildLookup(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	a := NewVertex("a", KindGeneric)
	b := NewVertex("b", KindGeneric)
	root.AddChild(a)
	root.AddChild(b)

	sib, err := a.Sibling(1)
	if err != nil || sib != b {
		t.Fatalf("a.Sibling(1) = %v, %v; want b, nil", sib, err)
	}

	p, err := a.Parent()
	if err != nil || p != root {
		t.Fatalf("a.Parent() = %v, %v; want root, nil", p, err)
	}

	c, err := root.Child(0)
	if err != nil || c != a {
		t.Fatalf("root.Child(0) = %v, %v; want a, nil", c, err)
	}
}

func TestParentAtRootIsUnreachable(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	if _, err := root.Parent(); err != ErrUnreachable {
		t.Errorf("root.Parent() error = %v, want ErrUnreachable", err)
	}
}

func TestChildOutOfRangeIsUnreachable(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	if _, err := root.Child(3); err != ErrUnreachable {
		t.Errorf("root.Child(3) error = %v, want ErrUnreachable", err)
	}
}

func TestDefaultMaxHoldByKind(t *testing.T) {
	cases := []struct {
		kind VertexKind
		want int
	}{
		{KindGeneric, 1},
		{KindEndpoint, 1},
		{KindPort, 3},
		{KindBus, 4},
	}
	for _, c := range cases {
		v := NewVertex("v", c.kind)
		if v.MaxHold() != c.want {
			t.Errorf("NewVertex(%v).MaxHold() = %d, want %d", c.kind, v.MaxHold(), c.want)
		}
	}
}

func TestAddChildBeyondMaxChildren(t *testing.T) {
	root := NewVertex("root", KindGeneric)
	for i := 0; i < MaxChildren; i++ {
		if _, err := root.AddChild(NewVertex("c", KindGeneric)); err != nil {
			t.Fatalf("AddChild() #%d error = %v", i, err)
		}
	}
	if _, err := root.AddChild(NewVertex("overflow", KindGeneric)); err != ErrBoundsExceeded {
		t.Errorf("AddChild() beyond MaxChildren error = %v, want ErrBoundsExceeded", err)
	}
}
