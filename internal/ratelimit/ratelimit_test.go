package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Post("/login", handler, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func hit(t *testing.T, app *fiber.App) int {
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginLimiter(t *testing.T) {
	app := newApp(Login())

	for i := 0; i < LoginMax; i++ {
		assert.Equal(t, 200, hit(t, app), "request %d", i+1)
	}
	assert.Equal(t, 429, hit(t, app))
}

func TestPurposesAreIndependent(t *testing.T) {
	app := fiber.New()
	app.Post("/a", New("a", 1, time.Minute), func(c *fiber.Ctx) error { return c.SendString("a") })
	app.Post("/b", New("b", 1, time.Minute), func(c *fiber.Ctx) error { return c.SendString("b") })

	for _, path := range []string{"/a", "/b"} {
		resp, err := app.Test(httptest.NewRequest("POST", path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode, path)
	}
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStorage(mr.Addr(), "")
	require.NoError(t, err)
	defer store.Close()

	t.Run("Round trip", func(t *testing.T) {
		require.NoError(t, store.Set("login:1.2.3.4", []byte("counter"), time.Minute))

		val, err := store.Get("login:1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, []byte("counter"), val)
		assert.True(t, mr.Exists(defaultPrefix+"login:1.2.3.4"))
	})

	t.Run("Missing key", func(t *testing.T) {
		val, err := store.Get("nope")
		assert.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, store.Set("short", []byte("x"), time.Second))
		mr.FastForward(2 * time.Second)
		val, err := store.Get("short")
		assert.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("Reset keeps foreign keys", func(t *testing.T) {
		require.NoError(t, mr.Set("other:key", "v"))
		require.NoError(t, store.Set("k", []byte("v"), 0))

		require.NoError(t, store.Reset())
		assert.False(t, mr.Exists(defaultPrefix+"k"))
		assert.True(t, mr.Exists("other:key"))
	})
}

func TestLimiterWithRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStorage(mr.Addr(), "")
	require.NoError(t, err)
	defer store.Close()

	Storage = store
	t.Cleanup(func() { Storage = nil })

	app := newApp(New("login", 2, time.Minute))
	assert.Equal(t, 200, hit(t, app))
	assert.Equal(t, 200, hit(t, app))
	assert.Equal(t, 429, hit(t, app))
}

func TestRedisStorageRequiresAddr(t *testing.T) {
	store, err := NewRedisStorage("", "")
	assert.Error(t, err)
	assert.Nil(t, store)
}
