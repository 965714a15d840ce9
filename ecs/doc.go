// Package ecs provides ECS adapters for thicket's scene event system.
//
// [NewDonburiSink] bridges scene hierarchy events (created, destroyed,
// reparented) into a [Donburi] world as typed events. Subscribe to
// [SceneEventType] in your ECS systems to receive them.
//
// [Mirror] additionally keeps a Donburi entity with a [SceneEntity]
// component for every live scene entity, so Donburi queries can iterate
// the scene.
//
// Usage:
//
//	world := donburi.NewWorld()
//	scene.SetEventSink(ecs.NewMirror(world))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
