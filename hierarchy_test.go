package thicket

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// containerCount returns how many containers (the root list or children
// lists) hold e.
func containerCount(s *Scene, e Entity) int {
	n := 0
	for _, r := range s.RootEntities() {
		if r == e {
			n++
		}
	}
	s.EachEntity(func(p Entity) {
		for _, c := range s.Transform(p).Children() {
			if c == e {
				n++
			}
		}
	})
	return n
}

func assertSingleContainer(t *testing.T, s *Scene) {
	t.Helper()
	s.EachEntity(func(e Entity) {
		if n := containerCount(s, e); n != 1 {
			t.Errorf("%s is in %d containers, want 1", s.Name(e), n)
		}
	})
}

func assertEntities(t *testing.T, name string, got, want []Entity) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

// --- SetParent ---

func TestSetParentBasic(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	b := s.CreateEntity("B")

	s.Transform(b).SetParent(a)

	if s.Transform(b).Parent() != a {
		t.Error("B.Parent should be A")
	}
	assertEntities(t, "A.Children", s.Transform(a).Children(), []Entity{b})
	assertEntities(t, "roots", s.RootEntities(), []Entity{a})
	assertSingleContainer(t, s)
}

func TestSetParentReparentUpdatesWorld(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	c := s.CreateEntity("C")
	b := s.CreateChildEntity(a, "B")
	s.Transform(a).SetLocalPosition(mgl32.Vec3{10, 0, 0})
	s.Transform(c).SetLocalPosition(mgl32.Vec3{100, 0, 0})
	s.Transform(b).SetLocalPosition(mgl32.Vec3{1, 0, 0})

	s.Transform(b).SetParent(c)

	if len(s.Transform(a).Children()) != 0 {
		t.Error("B should be gone from A's children")
	}
	assertEntities(t, "C.Children", s.Transform(c).Children(), []Entity{b})
	assertVec3(t, "B.Position", s.Transform(b).Position(), mgl32.Vec3{101, 0, 0})
	assertSingleContainer(t, s)
	assertWorldInvariant(t, s)
}

func TestSetParentMovesSubtree(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	b := s.CreateChildEntity(a, "B")
	c := s.CreateChildEntity(b, "C")
	d := s.CreateEntity("D")
	s.Transform(d).SetLocalScale(mgl32.Vec3{2, 2, 2})
	s.Transform(c).SetLocalPosition(mgl32.Vec3{1, 1, 0})

	s.Transform(b).SetParent(d)
	assertVec3(t, "C.Position", s.Transform(c).Position(), mgl32.Vec3{2, 2, 0})
	assertWorldInvariant(t, s)
}

func TestSetParentToSameParentMovesToEnd(t *testing.T) {
	s := NewScene()
	p := s.CreateEntity("P")
	a := s.CreateChildEntity(p, "a")
	b := s.CreateChildEntity(p, "b")

	s.Transform(a).SetParent(p)
	assertEntities(t, "children", s.Transform(p).Children(), []Entity{b, a})
	assertSingleContainer(t, s)
}

func TestSetParentCyclePanic(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	b := s.CreateChildEntity(a, "B")
	c := s.CreateChildEntity(b, "C")

	expectPanic(t, "cycle", func() { s.Transform(a).SetParent(c) })
	expectPanic(t, "self", func() { s.Transform(a).SetParent(a) })
	assertSingleContainer(t, s)
}

func TestSetParentDeadEntityPanic(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	dead := s.CreateEntity("dead")
	s.DestroyEntity(dead)
	expectPanic(t, "dead parent", func() { s.Transform(a).SetParent(dead) })
}

func TestSetParentNoEntityDetaches(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	b := s.CreateChildEntity(a, "B")

	s.Transform(b).SetParent(NoEntity)
	assertEntities(t, "roots", s.RootEntities(), []Entity{a, b})
	assertSingleContainer(t, s)
}

// --- detach ---

func TestDetachFromParent(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	z := s.CreateEntity("Z")
	b := s.CreateChildEntity(a, "B")
	s.Transform(a).SetLocalPosition(mgl32.Vec3{10, 0, 0})
	s.Transform(b).SetLocalPosition(mgl32.Vec3{1, 0, 0})

	s.Transform(b).DetachFromParent()

	assertEntities(t, "roots", s.RootEntities(), []Entity{a, z, b})
	if s.Transform(b).Parent() != NoEntity {
		t.Error("B should have no parent")
	}
	assertVec3(t, "B.Position", s.Transform(b).Position(), mgl32.Vec3{1, 0, 0})
	assertWorldInvariant(t, s)
}

func TestDetachFromParentRootNoOp(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	b := s.CreateEntity("B")
	s.Transform(a).DetachFromParent()
	assertEntities(t, "roots", s.RootEntities(), []Entity{a, b})
}

func TestDetachChildrenKeepsOrder(t *testing.T) {
	s := NewScene()
	p := s.CreateEntity("P")
	a := s.CreateChildEntity(p, "a")
	b := s.CreateChildEntity(p, "b")
	c := s.CreateChildEntity(p, "c")

	s.Transform(p).DetachChildren()

	if s.Transform(p).ChildCount() != 0 {
		t.Error("P should have no children")
	}
	assertEntities(t, "roots", s.RootEntities(), []Entity{p, a, b, c})
	assertSingleContainer(t, s)
}

// --- sibling index ---

func TestSiblingIndex(t *testing.T) {
	s := NewScene()
	p := s.CreateEntity("P")
	r2 := s.CreateEntity("R2")
	a := s.CreateChildEntity(p, "a")
	b := s.CreateChildEntity(p, "b")

	if got := s.Transform(b).SiblingIndex(); got != 1 {
		t.Errorf("b.SiblingIndex = %d, want 1", got)
	}
	if got := s.Transform(a).SiblingIndex(); got != 0 {
		t.Errorf("a.SiblingIndex = %d, want 0", got)
	}
	if got := s.Transform(r2).SiblingIndex(); got != 1 {
		t.Errorf("R2.SiblingIndex = %d, want 1", got)
	}
}

func TestSetSiblingIndex(t *testing.T) {
	s := NewScene()
	p := s.CreateEntity("P")
	a := s.CreateChildEntity(p, "a")
	b := s.CreateChildEntity(p, "b")
	c := s.CreateChildEntity(p, "c")
	d := s.CreateChildEntity(p, "d")
	pt := s.Transform(p)

	s.Transform(a).SetSiblingIndex(3)
	assertEntities(t, "first to last", pt.Children(), []Entity{b, c, d, a})

	s.Transform(a).SetSiblingIndex(0)
	assertEntities(t, "last to first", pt.Children(), []Entity{a, b, c, d})

	s.Transform(d).SetSiblingIndex(1)
	assertEntities(t, "into middle", pt.Children(), []Entity{a, d, b, c})

	s.Transform(b).SetSiblingIndex(2)
	assertEntities(t, "same position", pt.Children(), []Entity{a, d, b, c})
}

func TestSetSiblingIndexRoots(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("a")
	b := s.CreateEntity("b")
	c := s.CreateEntity("c")
	s.Transform(c).SetSiblingIndex(0)
	assertEntities(t, "roots", s.RootEntities(), []Entity{c, a, b})
}

func TestSetSiblingIndexOutOfRangePanic(t *testing.T) {
	s := NewScene()
	p := s.CreateEntity("P")
	a := s.CreateChildEntity(p, "a")
	expectPanic(t, "index 1", func() { s.Transform(a).SetSiblingIndex(1) })
	expectPanic(t, "index -1", func() { s.Transform(a).SetSiblingIndex(-1) })
}

// --- events & debug ---

type recordingSink struct {
	events []SceneEvent
}

func (r *recordingSink) EmitEvent(ev SceneEvent) {
	r.events = append(r.events, ev)
}

func TestReparentEmitsEvents(t *testing.T) {
	s := NewScene()
	sink := &recordingSink{}
	s.SetEventSink(sink)

	a := s.CreateEntityWithID(1, "A")
	b := s.CreateEntityWithID(2, "B")
	s.Transform(b).SetParent(a)
	s.Transform(b).DetachFromParent()

	want := []SceneEvent{
		{Type: EventEntityCreated, Entity: a, ID: 1},
		{Type: EventEntityCreated, Entity: b, ID: 2},
		{Type: EventEntityReparented, Entity: b, Parent: a},
		{Type: EventEntityReparented, Entity: b, Parent: NoEntity},
	}
	if len(sink.events) != len(want) {
		t.Fatalf("events = %v, want %v", sink.events, want)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Errorf("event[%d] = %+v, want %+v", i, sink.events[i], want[i])
		}
	}
}

func TestDebugModeWarnsOnDeepTree(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	s := NewScene()
	s.SetDebugMode(true)
	parent := s.CreateEntity("root")
	for i := 0; i < debugMaxTreeDepth; i++ {
		parent = s.CreateChildEntity(parent, "n")
	}

	if got := logs.FilterMessage("tree depth exceeds threshold").Len(); got != 1 {
		t.Errorf("depth warnings = %d, want 1", got)
	}
}

func TestDebugModeWarnsOnWideTree(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	s := NewScene()
	s.SetDebugMode(true)
	p := s.CreateEntity("wide")
	for i := 0; i < debugMaxChildCount+1; i++ {
		s.CreateChildEntity(p, "n")
	}
	extra := s.CreateEntity("extra")
	s.Transform(extra).SetParent(p)

	if got := logs.FilterMessage("child count exceeds threshold").Len(); got != 2 {
		t.Errorf("child count warnings = %d, want 2", got)
	}
}
