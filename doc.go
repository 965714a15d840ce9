// Package thicket is an entity-based 2D engine core for [Ebitengine].
//
// Thicket provides the transform hierarchy, scene graph, batched quad
// renderer and physics bridge that a 2D game builds on. Rendering goes
// through a small [Device] interface; [EbitenDevice] draws with Ebitengine
// and [HeadlessDevice] records draw calls for tests and tools.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := thicket.NewScene()
//	cam := scene.CreateEntity("Camera")
//	thicket.AddComponent(scene, cam, thicket.CameraType,
//		thicket.NewCameraComponent(thicket.NewSceneCamera()))
//	// ... add entities ...
//	thicket.Run(scene, thicket.RunConfig{Window: thicket.DefaultConfig().Window})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.OnUpdate], [Scene.OnRender] and [Scene.EndFrame] directly with a
// [Renderer2D] built on an [EbitenDevice].
//
// # Entities and components
//
// Every entity carries a [NameComponent], an [IDComponent] and a
// [Transform]. Other components are attached with the generic
// [AddComponent] and looked up with [GetComponent]:
//
//	e := scene.CreateEntity("hero")
//	sprite, _ := thicket.AddComponent(scene, e, thicket.SpriteRendererType,
//		thicket.NewSpriteRenderer(atlas.Texture("hero_idle")))
//	sprite.Tint = thicket.Color{R: 1, G: 0.8, B: 0.8, A: 1}
//
// # Transforms
//
// A [Transform] stores local position, rotation and scale and caches its
// local-to-parent and local-to-world matrices. Mutations mark the entity and
// its subtree stale; matrices are recomputed lazily on read. Reparenting
// with [Transform.SetParent] keeps the world placement.
//
// # Rendering
//
// [Renderer2D] batches quads into one vertex buffer per flush. Opaque quads
// draw before translucent ones and translucent quads draw back to front.
// Up to [Renderer2D.MaxTextureSlots] distinct textures share a draw call;
// the next texture forces a flush. Statistics for the frame are available
// from [Renderer2D.Stats].
//
// # Physics
//
// [Scene.InitializePhysics] creates a body for every [RigidBody2DComponent]
// and attaches each [Colliders2DComponent] to the nearest body up the
// hierarchy. [Scene.OnPhysicsUpdate] steps the world, pushes transforms
// moved by game code into their bodies and pulls simulated bodies back
// into their transforms. The solver lives in package physics2d, built on
// [Chipmunk2D].
//
// # Configuration and logging
//
// [LoadConfig] reads YAML or TOML; [WatchConfig] reloads it on change. The
// package logs through [zap]; install a logger with [SetLogger].
//
// # Key features
//
// Thicket also includes TexturePacker atlases, camera follow and
// scroll-to (via [gween]), and ECS integration (via [Donburi] adapter in
// thicket/ecs).
//
// [Ebitengine]: https://ebitengine.org
// [Chipmunk2D]: https://github.com/jakecoffman/cp
// [zap]: https://github.com/uber-go/zap
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package thicket
