// Package physics2d is a thin rigid-body layer over the Chipmunk2D port
// github.com/jakecoffman/cp.
//
// Engine code works in terms of RigidBodyProps and ColliderProps and never
// touches cp directly. A World owns one cp.Space and steps it with a fixed
// timestep; bodies and colliders are created and destroyed through it.
// Rotations are in radians and +Y is up.
//
// Destroying a body first clears the body reference held by each of its
// colliders, then releases the colliders' shapes. Destroying a body or
// collider that is already gone is a no-op.
package physics2d
