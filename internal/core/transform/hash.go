package transform

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

const hashWidth = 10 * 4

// Hash fingerprints the bit patterns of all scalars of the transform:
// position xyz, rotation xyzw, scale xyz. Two transforms with identical
// bits always hash equal; -0 and +0 hash differently.
func (t Transform) Hash() uint64 {
	var buf [hashWidth]byte
	scalars := [10]float32{
		t.Position[0], t.Position[1], t.Position[2],
		t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2], t.Rotation.W,
		t.Scale[0], t.Scale[1], t.Scale[2],
	}
	for i, s := range scalars {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return xxhash.Sum64(buf[:])
}

// Equal reports bitwise equality of the ten scalars.
func (t Transform) Equal(other Transform) bool {
	return t.Position == other.Position &&
		t.Rotation == other.Rotation &&
		t.Scale == other.Scale
}
