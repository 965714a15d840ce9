package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/thicket"
)

// SceneEventType is the Donburi event type for thicket hierarchy events.
// Subscribe to it in your ECS systems to receive entity creation,
// destruction and reparenting.
var SceneEventType = events.NewEventType[thicket.SceneEvent]()

// SceneEntityData links a Donburi entity to the scene entity it mirrors.
type SceneEntityData struct {
	Entity thicket.Entity
	ID     uint64
	Parent thicket.Entity
}

// SceneEntity is the component carried by every mirrored entity.
var SceneEntity = donburi.NewComponentType[SceneEntityData]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Scene events are published to SceneEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) thicket.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event thicket.SceneEvent) {
	SceneEventType.Publish(s.world, event)
}

// Mirror is an EventSink that keeps one Donburi entity per live scene entity,
// carrying a SceneEntity component, and also publishes every event like the
// sink returned by NewDonburiSink.
//
// Install it before creating entities; entities created earlier are not
// mirrored.
type Mirror struct {
	world   donburi.World
	mirrors map[thicket.Entity]donburi.Entity
}

// NewMirror returns a Mirror writing into world.
func NewMirror(world donburi.World) *Mirror {
	return &Mirror{world: world, mirrors: make(map[thicket.Entity]donburi.Entity)}
}

// EmitEvent implements thicket.EventSink.
func (m *Mirror) EmitEvent(event thicket.SceneEvent) {
	switch event.Type {
	case thicket.EventEntityCreated:
		de := m.world.Create(SceneEntity)
		SceneEntity.SetValue(m.world.Entry(de), SceneEntityData{
			Entity: event.Entity,
			ID:     event.ID,
			Parent: event.Parent,
		})
		m.mirrors[event.Entity] = de
	case thicket.EventEntityDestroyed:
		if de, ok := m.mirrors[event.Entity]; ok {
			m.world.Remove(de)
			delete(m.mirrors, event.Entity)
		}
	case thicket.EventEntityReparented:
		if de, ok := m.mirrors[event.Entity]; ok {
			SceneEntity.Get(m.world.Entry(de)).Parent = event.Parent
		}
	}
	SceneEventType.Publish(m.world, event)
}

// Lookup returns the Donburi entity mirroring e.
func (m *Mirror) Lookup(e thicket.Entity) (donburi.Entity, bool) {
	de, ok := m.mirrors[e]
	return de, ok
}

// Len returns the number of mirrored entities.
func (m *Mirror) Len() int {
	return len(m.mirrors)
}
