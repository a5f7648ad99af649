package physics

import "sort"

// ColliderPair is an unordered pair with First holding the lower index.
type ColliderPair struct {
	First, Second ColliderHandle
}

func makePair(a, b ColliderHandle) ColliderPair {
	if b.index < a.index {
		a, b = b, a
	}
	return ColliderPair{First: a, Second: b}
}

type sapEntry struct {
	handle ColliderHandle
	aabb   AABB
}

// BroadPhase finds overlapping bounds with a sweep along the X axis.
type BroadPhase struct {
	entries []sapEntry
	pairs   []ColliderPair
}

func NewBroadPhase() *BroadPhase { return &BroadPhase{} }

// Update returns the candidate pairs for this step. The returned slice is
// reused on the next call.
func (bp *BroadPhase) Update(colliders *ColliderSet, bodies *RigidBodySet, margin float32) []ColliderPair {
	bp.entries = bp.entries[:0]
	bp.pairs = bp.pairs[:0]
	colliders.Each(func(h ColliderHandle, c *Collider) {
		bp.entries = append(bp.entries, sapEntry{handle: h, aabb: c.aabb.Loosened(margin)})
	})
	sort.Slice(bp.entries, func(i, j int) bool {
		return bp.entries[i].aabb.Min[0] < bp.entries[j].aabb.Min[0]
	})
	for i := range bp.entries {
		a := &bp.entries[i]
		for j := i + 1; j < len(bp.entries); j++ {
			b := &bp.entries[j]
			if b.aabb.Min[0] > a.aabb.Max[0] {
				break
			}
			if !a.aabb.Intersects(b.aabb) {
				continue
			}
			if !pairCanCollide(colliders, bodies, a.handle, b.handle) {
				continue
			}
			bp.pairs = append(bp.pairs, makePair(a.handle, b.handle))
		}
	}
	return bp.pairs
}

func pairCanCollide(colliders *ColliderSet, bodies *RigidBodySet, ha, hb ColliderHandle) bool {
	a, _ := colliders.Get(ha)
	b, _ := colliders.Get(hb)
	var ba, bb *RigidBody
	if a.hasParent {
		ba, _ = bodies.Get(a.parent)
	}
	if b.hasParent {
		bb, _ = bodies.Get(b.parent)
	}
	if ba != nil && bb != nil && a.parent == b.parent {
		return false
	}
	// sleeping bodies stay in: their resting contacts are reported and
	// tell the island manager whether they are still supported
	return (ba != nil && ba.IsDynamic()) || (bb != nil && bb.IsDynamic())
}
