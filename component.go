package thicket

import (
	"errors"
	"sync/atomic"
)

var (
	ErrEntityNotAlive = errors.New("thicket: entity not alive")
	ErrNilComponent   = errors.New("thicket: component is nil")

	// ErrTransformComponent is returned when adding a Transform to an entity
	// that already owns one.
	ErrTransformComponent = errors.New("thicket: transform cannot be replaced")
)

// ComponentID is the stable runtime identifier of a component type.
type ComponentID uint32

var nextComponentID atomic.Uint32

// componentInfo is the type-erased metadata shared by every ComponentType.
type componentInfo struct {
	name string
	copy func(any) any
}

// componentInfos is written only while package-level ComponentType variables
// are initialized.
var componentInfos = map[ComponentID]componentInfo{}

// ComponentType is a typed key into the registry. Declare one package-level
// value per component type with NewComponentType.
type ComponentType[T any] struct {
	id ComponentID
}

// NewComponentType allocates a new ComponentID for T.
func NewComponentType[T any](name string) ComponentType[T] {
	id := ComponentID(nextComponentID.Add(1))
	componentInfos[id] = componentInfo{
		name: name,
		copy: func(v any) any {
			if c, ok := v.(Cloner); ok {
				return c.CloneComponent()
			}
			dup := *v.(*T)
			return &dup
		},
	}
	return ComponentType[T]{id: id}
}

// ID returns the component type's stable identifier.
func (c ComponentType[T]) ID() ComponentID {
	return c.id
}

// Name returns the name the component type was registered with.
func (c ComponentType[T]) Name() string {
	return componentInfos[c.id].name
}

// ComponentName returns the registered name of a component ID, or "" if unknown.
func ComponentName(id ComponentID) string {
	return componentInfos[id].name
}

// Cloner is implemented by components that hold slices or maps and need a
// deep copy when a Scene is cloned. The result must be a pointer of the same
// type as the receiver.
type Cloner interface {
	CloneComponent() any
}

// attacher is implemented by components that keep a back-reference to their
// owning scene and entity. The registry calls attach after insertion and
// after a scene copy.
type attacher interface {
	attach(s *Scene, e Entity)
}

// --- sparse set ---

// sparseSet stores one component type keyed by entity slot index.
type sparseSet struct {
	dense  []Entity
	values []any
	sparse []int32 // slot index-1 -> position in dense, -1 when absent
}

func (s *sparseSet) has(e Entity) bool {
	i := int(e.index()) - 1
	if i < 0 || i >= len(s.sparse) {
		return false
	}
	pos := s.sparse[i]
	return pos >= 0 && int(pos) < len(s.dense) && s.dense[pos] == e
}

func (s *sparseSet) get(e Entity) any {
	if !s.has(e) {
		return nil
	}
	return s.values[s.sparse[e.index()-1]]
}

func (s *sparseSet) set(e Entity, v any) {
	i := int(e.index()) - 1
	for len(s.sparse) <= i {
		s.sparse = append(s.sparse, -1)
	}
	if s.has(e) {
		s.values[s.sparse[i]] = v
		return
	}
	s.dense = append(s.dense, e)
	s.values = append(s.values, v)
	s.sparse[i] = int32(len(s.dense) - 1)
}

func (s *sparseSet) remove(e Entity) bool {
	if !s.has(e) {
		return false
	}
	i := e.index() - 1
	pos := s.sparse[i]
	last := len(s.dense) - 1
	moved := s.dense[last]

	s.dense[pos] = moved
	s.values[pos] = s.values[last]
	s.sparse[moved.index()-1] = pos

	s.dense[last] = NoEntity
	s.values[last] = nil
	s.dense = s.dense[:last]
	s.values = s.values[:last]
	s.sparse[i] = -1
	return true
}

func (s *sparseSet) clone(id ComponentID) *sparseSet {
	dup := &sparseSet{
		dense:  append([]Entity(nil), s.dense...),
		values: make([]any, len(s.values)),
		sparse: append([]int32(nil), s.sparse...),
	}
	cp := componentInfos[id].copy
	for i, v := range s.values {
		dup.values[i] = cp(v)
	}
	return dup
}

// --- registry ---

// registry owns component storage and the per-entity component order.
type registry struct {
	pools map[ComponentID]*sparseSet
	order map[Entity][]ComponentID
}

func newRegistry() registry {
	return registry{
		pools: make(map[ComponentID]*sparseSet),
		order: make(map[Entity][]ComponentID),
	}
}

func (r *registry) pool(id ComponentID) *sparseSet {
	p := r.pools[id]
	if p == nil {
		p = &sparseSet{}
		r.pools[id] = p
	}
	return p
}

func (r *registry) set(e Entity, id ComponentID, v any) {
	p := r.pool(id)
	if !p.has(e) {
		r.order[e] = append(r.order[e], id)
	}
	p.set(e, v)
}

func (r *registry) get(e Entity, id ComponentID) any {
	if p := r.pools[id]; p != nil {
		return p.get(e)
	}
	return nil
}

func (r *registry) remove(e Entity, id ComponentID) bool {
	p := r.pools[id]
	if p == nil || !p.remove(e) {
		return false
	}
	ids := r.order[e]
	for i, c := range ids {
		if c == id {
			r.order[e] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return true
}

// removeAll drops every component of e.
func (r *registry) removeAll(e Entity) {
	for _, id := range r.order[e] {
		r.pools[id].remove(e)
	}
	delete(r.order, e)
}

func (r *registry) clone() registry {
	dup := registry{
		pools: make(map[ComponentID]*sparseSet, len(r.pools)),
		order: make(map[Entity][]ComponentID, len(r.order)),
	}
	for id, p := range r.pools {
		dup.pools[id] = p.clone(id)
	}
	for e, ids := range r.order {
		dup.order[e] = append([]ComponentID(nil), ids...)
	}
	return dup
}

// --- typed access ---

// AddComponent stores v on e, replacing any existing component of the same
// type, and returns a pointer to the stored value. The Transform is created
// with the entity and cannot be replaced.
func AddComponent[T any](s *Scene, e Entity, ct ComponentType[T], v T) (*T, error) {
	if !s.IsAlive(e) {
		return nil, ErrEntityNotAlive
	}
	if ct.id == TransformType.id {
		return nil, ErrTransformComponent
	}
	ptr := &v
	s.registry.set(e, ct.id, ptr)
	if a, ok := any(ptr).(attacher); ok {
		a.attach(s, e)
	}
	return ptr, nil
}

// GetComponent returns a pointer to e's component of type T.
func GetComponent[T any](s *Scene, e Entity, ct ComponentType[T]) (*T, bool) {
	if !s.IsAlive(e) {
		return nil, false
	}
	v := s.registry.get(e, ct.id)
	if v == nil {
		return nil, false
	}
	ptr, ok := v.(*T)
	return ptr, ok
}

// HasComponent reports whether e carries a component of type T.
func HasComponent[T any](s *Scene, e Entity, ct ComponentType[T]) bool {
	if !s.IsAlive(e) {
		return false
	}
	p := s.registry.pools[ct.id]
	return p != nil && p.has(e)
}

// RemoveComponent removes e's component of type T. The Transform component
// cannot be removed; it lives as long as the entity.
func RemoveComponent[T any](s *Scene, e Entity, ct ComponentType[T]) bool {
	if !s.IsAlive(e) || ct.id == TransformType.id {
		return false
	}
	v := s.registry.get(e, ct.id)
	if d, ok := v.(interface{ detach(s *Scene) }); ok {
		d.detach(s)
	}
	return s.registry.remove(e, ct.id)
}

// Each calls fn for every entity carrying a component of type T, in storage order.
func Each[T any](s *Scene, ct ComponentType[T], fn func(Entity, *T)) {
	p := s.registry.pools[ct.id]
	if p == nil {
		return
	}
	for i := 0; i < len(p.dense); i++ {
		fn(p.dense[i], p.values[i].(*T))
	}
}

// Components returns e's components in their editable order.
func (s *Scene) Components(e Entity) []any {
	ids := s.registry.order[e]
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.registry.get(e, id))
	}
	return out
}

// ComponentOrder returns the IDs of e's components in their editable order.
// The returned slice MUST NOT be mutated.
func (s *Scene) ComponentOrder(e Entity) []ComponentID {
	return s.registry.order[e]
}

// MoveComponent moves e's component id to position index in its component
// list, preserving the relative order of the others.
func (s *Scene) MoveComponent(e Entity, id ComponentID, index int) {
	ids := s.registry.order[e]
	from := -1
	for i, c := range ids {
		if c == id {
			from = i
			break
		}
	}
	if from < 0 {
		panic("thicket: component not attached to entity")
	}
	if index < 0 || index >= len(ids) {
		panic("thicket: component index out of range")
	}
	moveElement(ids, from, index)
}

// moveElement moves s[from] to s[to], shifting the elements in between.
func moveElement[E any](s []E, from, to int) {
	if from == to {
		return
	}
	v := s[from]
	if from < to {
		copy(s[from:], s[from+1:to+1])
	} else {
		copy(s[to+1:], s[to:from])
	}
	s[to] = v
}
