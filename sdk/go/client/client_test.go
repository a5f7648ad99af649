package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/glengine/internal/core/engine"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/scene"
	"github.com/zeusync/glengine/internal/core/transform"
	"github.com/zeusync/glengine/internal/server"
)

func newInspector(t *testing.T, token string) (*httptest.Server, *engine.Engine) {
	t.Helper()
	s := scene.New(nil, nil)
	require.NoError(t, s.Add(models.NewWithTransform(nil, "marker", transform.At(mgl32.Vec3{1, 2, 3}))))
	e, err := engine.New(s)
	require.NoError(t, err)

	cfg := server.DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	cfg.Token = token
	srv, err := server.New(nil, e, nil, cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return ts, e
}

func newClient(t *testing.T, baseURL, token string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Token = token
	cfg.ReadTimeout = 2 * time.Second
	c, err := New(nil, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFetch(t *testing.T) {
	ts, _ := newInspector(t, "secret")

	snap, err := newClient(t, ts.URL, "secret").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Objects, 1)
	assert.Equal(t, "marker", snap.Objects[0].Name)
	assert.Equal(t, [3]float32{1, 2, 3}, snap.Objects[0].Position)

	_, err = newClient(t, ts.URL, "wrong").Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStream(t *testing.T) {
	ts, e := newInspector(t, "")
	c := newClient(t, ts.URL, "")

	_, err := c.Next()
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, c.Connect(context.Background()))
	assert.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyConnected)

	first, err := c.Next()
	require.NoError(t, err)
	assert.Zero(t, first.Engine.Frames)

	_, err = e.Frame()
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap, err := c.Next()
		return err == nil && snap.Engine.Frames == 1
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, c.Close())
	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestConnectUnauthorized(t *testing.T) {
	ts, _ := newInspector(t, "secret")
	err := newClient(t, ts.URL, "").Connect(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestInvalidBaseURL(t *testing.T) {
	_, err := New(nil, Config{BaseURL: "ftp://example"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(nil, Config{BaseURL: "http://"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
