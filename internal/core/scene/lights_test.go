package scene

import (
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/transform"
)

func lightObject(t *testing.T, name string, c models.Component, at mgl32.Vec3) *models.GameObject {
	t.Helper()
	obj := models.NewWithTransform(nil, name, transform.At(at))
	require.NoError(t, obj.AddComponent(c))
	return obj
}

func TestLightLimits(t *testing.T) {
	l := NewLights()
	keep := make([]*models.GameObject, 0, MaxPointLights)
	for i := 0; i < MaxPointLights; i++ {
		obj := lightObject(t, "point", &PointLight{Color: mgl32.Vec3{1, 1, 1}, Intensity: 1, Range: 10}, mgl32.Vec3{float32(i), 0, 0})
		require.NoError(t, l.AddPoint(obj))
		keep = append(keep, obj)
	}
	extra := lightObject(t, "extra", &PointLight{}, mgl32.Vec3{})
	assert.ErrorIs(t, l.AddPoint(extra), ErrTooManyLights)
	assert.ErrorIs(t, l.AddSpot(extra), ErrNotALight)

	data := l.Data()
	assert.Len(t, data, MaxPointLights)
	assert.Equal(t, components.LightPoint, data[3].Kind)
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, data[3].Position)
	runtime.KeepAlive(keep)
}

func TestLightData(t *testing.T) {
	l := NewLights()
	sun := lightObject(t, "sun", &DirectionalLight{Color: mgl32.Vec3{1, 1, 0.9}, Intensity: 0.8}, mgl32.Vec3{})
	require.NoError(t, l.SetDirectional(sun))
	spot := lightObject(t, "spot", &SpotLight{Intensity: 2, Range: 20, Angle: 0}, mgl32.Vec3{0, 4, 0})
	require.NoError(t, l.AddSpot(spot))

	data := l.Data()
	require.Len(t, data, 2)
	assert.Equal(t, components.LightDirectional, data[0].Kind)
	assert.InDelta(t, -1, data[0].Direction[2], 1e-6)
	assert.Equal(t, components.LightSpot, data[1].Kind)
	assert.InDelta(t, 1, data[1].Cutoff, 1e-6)
	assert.Equal(t, mgl32.Vec3{0, 4, 0}, data[1].Position)
	runtime.KeepAlive(sun)
	runtime.KeepAlive(spot)
}

func TestDroppedLightsArePruned(t *testing.T) {
	l := NewLights()
	func() {
		obj := lightObject(t, "temp", &PointLight{Intensity: 1}, mgl32.Vec3{})
		require.NoError(t, l.AddPoint(obj))
	}()
	runtime.GC()
	assert.Empty(t, l.Data())
}
