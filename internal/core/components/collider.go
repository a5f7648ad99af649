package components

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/glengine/internal/core/physics"
)

var ErrInvalidMesh = errors.New("components: invalid mesh")

// Mesh is the flat geometry of an imported model: xyz triples and triangle
// index triples.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

func (m Mesh) points(scale float32) ([]physics.Vec3, error) {
	if len(m.Vertices) == 0 || len(m.Vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d vertex scalars", ErrInvalidMesh, len(m.Vertices))
	}
	out := make([]physics.Vec3, 0, len(m.Vertices)/3)
	for i := 0; i < len(m.Vertices); i += 3 {
		out = append(out, physics.Vec3{m.Vertices[i] * scale, m.Vertices[i+1] * scale, m.Vertices[i+2] * scale})
	}
	return out, nil
}

func (m Mesh) triangles() ([][3]uint32, error) {
	if len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrInvalidMesh, len(m.Indices))
	}
	out := make([][3]uint32, 0, len(m.Indices)/3)
	for i := 0; i < len(m.Indices); i += 3 {
		out = append(out, [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]})
	}
	return out, nil
}

// Collider holds the collision shapes of an object. It only simulates when
// the same object also carries a RigidBody.
type Collider struct {
	colliders []physics.Collider
	touching  []uuid.UUID
}

func NewCollider(colliders ...physics.Collider) *Collider {
	c := &Collider{colliders: make([]physics.Collider, 0, len(colliders))}
	for i := range colliders {
		c.colliders = append(c.colliders, colliders[i].Detached())
	}
	return c
}

func TriMeshFromMesh(mesh Mesh, scale float32) (*Collider, error) {
	return TriMeshFromMeshes([]Mesh{mesh}, scale)
}

func TriMeshFromMeshes(meshes []Mesh, scale float32) (*Collider, error) {
	out := make([]physics.Collider, 0, len(meshes))
	for i, mesh := range meshes {
		points, err := mesh.points(scale)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		tris, err := mesh.triangles()
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		builder, err := physics.TriMeshCollider(points, tris)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		out = append(out, builder.Build())
	}
	return NewCollider(out...), nil
}

func HullFromMesh(mesh Mesh, scale float32) (*Collider, error) {
	return HullFromMeshes([]Mesh{mesh}, scale)
}

func HullFromMeshes(meshes []Mesh, scale float32) (*Collider, error) {
	out := make([]physics.Collider, 0, len(meshes))
	for i, mesh := range meshes {
		points, err := mesh.points(scale)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		builder, err := physics.ConvexHullCollider(points)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		out = append(out, builder.Build())
	}
	return NewCollider(out...), nil
}

func (c *Collider) TypeName() string { return "collider" }

// Colliders returns the stored shapes. Callers must not modify them.
func (c *Collider) Colliders() []physics.Collider { return c.colliders }

func (c *Collider) Len() int { return len(c.colliders) }

// Touching lists the objects this collider touched during the last tick.
func (c *Collider) Touching() []uuid.UUID { return c.touching }

// SetTouching replaces the contact list; the slice is retained.
func (c *Collider) SetTouching(ids []uuid.UUID) { c.touching = ids }

// IsTouching reports whether id was among the last tick's contacts.
func (c *Collider) IsTouching(id uuid.UUID) bool {
	for _, t := range c.touching {
		if t == id {
			return true
		}
	}
	return false
}
