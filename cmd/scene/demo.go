package main

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/config"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/physics"
	"github.com/zeusync/glengine/internal/core/scene"
	"github.com/zeusync/glengine/internal/core/transform"
)

// drawCounter stands in for a GPU backend.
type drawCounter struct {
	draws atomic.Uint64
}

func (d *drawCounter) Draw(mgl32.Mat4, mgl32.Mat4, []components.LightData) {
	d.draws.Add(1)
}

type demo struct {
	floor   *models.GameObject
	bodies  []*models.GameObject
	spinner *models.GameObject
	camera  *models.GameObject
	lights  []*models.GameObject
	drawer  *drawCounter
}

func physicsObject(name string, at mgl32.Vec3, body physics.RigidBody, col physics.Collider, drawer components.Drawer) (*models.GameObject, error) {
	obj := models.NewWithTransform(nil, name, transform.At(at))
	for _, c := range []models.Component{
		components.NewRigidBody(body),
		components.NewCollider(col),
		components.NewDrawable(drawer),
	} {
		if err := obj.AddComponent(c); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// buildDemo populates s with a floor, a stack of falling bodies, a
// spinning marker, a camera and a light rig.
func buildDemo(s *scene.Scene, cfg config.Config) (*demo, error) {
	d := &demo{drawer: &drawCounter{}}

	floor, err := physicsObject("floor", mgl32.Vec3{0, -0.5, 0},
		physics.Fixed().Build(),
		physics.CuboidCollider(20, 0.5, 20).Friction(0.8).Build(), d.drawer)
	if err != nil {
		return nil, err
	}
	d.floor = floor

	for i := 0; i < 4; i++ {
		at := mgl32.Vec3{float32(i%2) * 0.3, 2 + float32(i)*1.5, 0}
		var col physics.Collider
		if i%2 == 0 {
			col = physics.CuboidCollider(0.5, 0.5, 0.5).Build()
		} else {
			col = physics.BallCollider(0.5).Restitution(0.3).Build()
		}
		// damping stands in for rolling resistance so balls come to rest
		body := physics.Dynamic().LinearDamping(0.2).AngularDamping(3).Build()
		obj, err := physicsObject("body", at, body, col, d.drawer)
		if err != nil {
			return nil, err
		}
		d.bodies = append(d.bodies, obj)
	}

	d.spinner = models.NewWithTransform(nil, "spinner", transform.At(mgl32.Vec3{-4, 1, 0}))
	if err := d.spinner.AddComponent(components.NewRotating(mgl32.Vec3{0, math.Pi / 2, 0})); err != nil {
		return nil, err
	}
	if err := d.spinner.AddComponent(components.NewDrawable(d.drawer)); err != nil {
		return nil, err
	}
	// orbits with its parent
	moon := models.NewWithTransform(d.spinner, "moon", transform.At(mgl32.Vec3{2, 0, 0}))
	if err := moon.AddComponent(components.NewDrawable(d.drawer)); err != nil {
		return nil, err
	}

	d.camera, err = scene.NewCamera(nil, "camera", mgl32.Vec3{0, 4, 12}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}, cfg.Display.Projection())
	if err != nil {
		return nil, err
	}

	for _, obj := range append([]*models.GameObject{d.floor, d.spinner, d.camera}, d.bodies...) {
		if err := s.Add(obj); err != nil {
			return nil, err
		}
	}
	if err := s.SetCamera(d.camera); err != nil {
		return nil, err
	}
	return d, d.addLights(s)
}

func (d *demo) addLights(s *scene.Scene) error {
	sun := models.NewWithTransform(nil, "sun",
		transform.Identity().WithRotation(mgl32.QuatRotate(-math.Pi/3, mgl32.Vec3{1, 0, 0})))
	if err := sun.AddComponent(&scene.DirectionalLight{Color: mgl32.Vec3{1, 0.95, 0.9}, Intensity: 0.8}); err != nil {
		return err
	}
	lamp := models.NewWithTransform(nil, "lamp", transform.At(mgl32.Vec3{2, 3, 2}))
	if err := lamp.AddComponent(&scene.PointLight{Color: mgl32.Vec3{1, 0.8, 0.6}, Intensity: 2, Range: 10}); err != nil {
		return err
	}
	// the headlight follows the camera
	headlight := models.NewWithTransform(d.camera, "headlight", transform.Identity())
	if err := headlight.AddComponent(&scene.SpotLight{Color: mgl32.Vec3{1, 1, 1}, Intensity: 1, Range: 30, Angle: mgl32.DegToRad(25)}); err != nil {
		return err
	}
	for _, obj := range []*models.GameObject{sun, lamp} {
		if err := s.Add(obj); err != nil {
			return err
		}
	}
	d.lights = []*models.GameObject{sun, lamp, headlight}

	lights := s.Lights()
	if err := lights.SetDirectional(sun); err != nil {
		return err
	}
	if err := lights.AddPoint(lamp); err != nil {
		return err
	}
	return lights.AddSpot(headlight)
}
