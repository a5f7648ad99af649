package scene

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/physics"
	"github.com/zeusync/glengine/internal/core/transform"
)

func BenchmarkBridgeStep(b *testing.B) {
	for _, n := range []int{8, 64} {
		b.Run(fmt.Sprintf("bodies=%d", n), func(b *testing.B) {
			s := New(nil, newBridge(b, nil))
			addFloor(b, s)
			for i := 0; i < n; i++ {
				obj := models.NewWithTransform(nil, "body", transform.At(mgl32.Vec3{float32(i%8) * 1.5, 1 + float32(i/8)*1.5, 0}))
				addPhysics(b, obj, physics.Dynamic().Build(), physics.CuboidCollider(0.5, 0.5, 0.5).Build())
				if err := s.Add(obj); err != nil {
					b.Fatal(err)
				}
			}
			clock := models.Clock{Delta: tick}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.FixedStepRecursive(clock); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
