// Package physics is a small 3D rigid-body engine.
//
// The API follows a set-and-handle layout: bodies live in a RigidBodySet,
// shapes in a ColliderSet (optionally parented to a body), and a
// PhysicsPipeline advances both by one IntegrationParameters.Dt using a
// broad phase (sweep and prune over AABBs), a narrow phase (analytic ball
// and cuboid contacts, SAT for cuboid pairs, GJK+EPA for hulls and mesh
// triangles), an island manager for sleeping, and a sequential-impulse
// solver for contacts and spherical joints.
//
// Nothing in this package is safe for concurrent use.
package physics
