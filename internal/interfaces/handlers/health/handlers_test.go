package health

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	healthsvc "pettie-backend/internal/application/health"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	rdb, mr := testutil.Redis(t)
	h := &Handlers{
		Collector:      &healthsvc.Collector{Rdb: rdb},
		Rdb:            rdb,
		HealthAdminKey: "test-admin-key",
	}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(rdb)})
	app.Use(middleware.HealthMarker(rdb))
	app.Get("/", h.Dashboard)
	app.Get("/reset", h.Reset)
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("kaboom") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app, mr
}

func getJSON(t *testing.T, app *fiber.App, path string, v interface{}) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, v))
	return resp.StatusCode
}

func TestReset_Unauthorized(t *testing.T) {
	app, _ := setupApp(t)
	var out map[string]interface{}
	assert.Equal(t, fiber.StatusForbidden, getJSON(t, app, "/reset", &out))
	assert.Equal(t, "Unauthorized", out["error"].(map[string]interface{})["message"])
	assert.Equal(t, fiber.StatusForbidden, getJSON(t, app, "/reset?key=wrong", &out))
}

func TestReset_Success(t *testing.T) {
	app, mr := setupApp(t)
	require.NoError(t, mr.Set(middleware.KeyReqTotal, "42"))

	var out map[string]interface{}
	assert.Equal(t, fiber.StatusOK, getJSON(t, app, "/reset?key=test-admin-key", &out))
	assert.False(t, mr.Exists(middleware.KeyReqTotal))
	assert.True(t, mr.Exists(middleware.KeyStartTime))
}

func TestTrafficAndErrorLog(t *testing.T) {
	app, _ := setupApp(t)
	for _, p := range []string{"/ok", "/ok", "/boom"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}

	var health map[string]interface{}
	require.Equal(t, fiber.StatusOK, getJSON(t, app, "/health/json", &health))
	assert.Equal(t, "pettie-api", health["service"])
	traffic := health["traffic"].(map[string]interface{})
	assert.Equal(t, 3.0, traffic["totalRequests"])
	assert.Equal(t, 1.0, traffic["failedCount"])

	var errs []map[string]interface{}
	require.Equal(t, fiber.StatusOK, getJSON(t, app, "/health/errors", &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "kaboom", errs[0]["message"])
	assert.Equal(t, "/boom", errs[0]["path"])
}

func TestDashboard(t *testing.T) {
	app, _ := setupApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Pettie")
}
