package thicket

import "fmt"

// --- Hierarchy ---

// Parent returns the parent entity, or NoEntity for roots.
func (t *Transform) Parent() Entity {
	return t.parent
}

// Children returns the child entities in sibling order. The returned slice
// MUST NOT be mutated.
func (t *Transform) Children() []Entity {
	return t.children
}

// ChildCount returns the number of children.
func (t *Transform) ChildCount() int {
	return len(t.children)
}

// ChildAt returns the child at the given sibling index.
func (t *Transform) ChildAt(index int) Entity {
	return t.children[index]
}

// SetParent moves the entity under parent, appending it as the last child.
// The local transform is kept, so the world transform follows the new
// ancestor chain. NoEntity detaches it to the scene root list. Panics on a
// dead parent or when the move would create a cycle.
func (t *Transform) SetParent(parent Entity) {
	if parent == NoEntity {
		t.DetachFromParent()
		return
	}
	s := t.scene
	if !s.IsAlive(parent) {
		panic(fmt.Sprintf("thicket: SetParent to dead entity %v", parent))
	}
	if s.isAncestor(t.entity, parent) {
		panic("thicket: SetParent would create a cycle")
	}

	pt := s.transform(parent)
	s.unlink(t)
	pt.children = append(pt.children, t.entity)
	t.parent = parent

	t.flags |= flagLocalToWorldStale
	t.Invalidate()
	t.change()

	s.emit(SceneEvent{Type: EventEntityReparented, Entity: t.entity, Parent: parent})
	if s.debug {
		s.debugCheckTreeDepth(t.entity)
		s.debugCheckChildCount(parent)
	}
}

// DetachFromParent moves the entity to the end of the scene root list. It is
// a no-op for roots.
func (t *Transform) DetachFromParent() {
	if t.parent == NoEntity {
		return
	}
	s := t.scene
	s.unlink(t)
	t.parent = NoEntity
	s.roots = append(s.roots, t.entity)

	t.flags |= flagLocalToWorldStale
	t.Invalidate()
	t.change()

	s.emit(SceneEvent{Type: EventEntityReparented, Entity: t.entity, Parent: NoEntity})
}

// DetachChildren moves every child to the scene root list, preserving their
// order.
func (t *Transform) DetachChildren() {
	children := append([]Entity(nil), t.children...)
	for _, c := range children {
		t.scene.transform(c).DetachFromParent()
	}
}

// SiblingIndex returns the entity's position in its parent's children, or in
// the scene root list for roots.
func (t *Transform) SiblingIndex() int {
	container := t.scene.containerOf(t)
	for i, e := range *container {
		if e == t.entity {
			return i
		}
	}
	panic(fmt.Sprintf("thicket: entity %v missing from its container", t.entity))
}

// SetSiblingIndex moves the entity to index within its container, keeping
// the relative order of its siblings.
func (t *Transform) SetSiblingIndex(index int) {
	container := *t.scene.containerOf(t)
	if index < 0 || index >= len(container) {
		panic("thicket: sibling index out of range")
	}
	moveElement(container, t.SiblingIndex(), index)
}

// --- Scene helpers ---

// containerOf returns the slice holding t's entity: its parent's children or
// the root list.
func (s *Scene) containerOf(t *Transform) *[]Entity {
	if t.parent == NoEntity {
		return &s.roots
	}
	return &s.transform(t.parent).children
}

// unlink removes t's entity from its current container. Exactly one
// occurrence must exist.
func (s *Scene) unlink(t *Transform) {
	container := s.containerOf(t)
	for i, e := range *container {
		if e == t.entity {
			*container = append((*container)[:i], (*container)[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("thicket: entity %v missing from its container", t.entity))
}

// isAncestor reports whether candidate is e or one of e's ancestors.
func (s *Scene) isAncestor(candidate, e Entity) bool {
	for p := e; p != NoEntity; p = s.transform(p).parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// walk visits the subtree rooted at e depth-first in sibling order. It
// returns false once fn does.
func (s *Scene) walk(e Entity, fn func(Entity) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range s.transform(e).children {
		if !s.walk(c, fn) {
			return false
		}
	}
	return true
}
