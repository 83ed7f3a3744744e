package user

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	usersvc "pettie-backend/internal/application/user"
	"pettie-backend/internal/domain"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T, signedIn *domain.User) (*fiber.App, *usersvc.Service) {
	svc := &usersvc.Service{DB: testutil.DB(t)}
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if signedIn != nil {
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: signedIn.ID.String(), DisplayName: signedIn.DisplayName})
		}
		return c.Next()
	})
	app.Get("/users/me", middleware.RequireAuth(), h.Me)
	app.Patch("/users/me", middleware.RequireAuth(), h.UpdateMe)
	app.Get("/users/:id", h.GetUser)
	return app, svc
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestGetUser(t *testing.T) {
	app, svc := setupApp(t, nil)
	u := &domain.User{Email: "ada@pettie.test", DisplayName: "Ada", PasswordHash: "x"}
	require.NoError(t, svc.DB.Create(u).Error)

	resp, out := do(t, app, "GET", "/users/"+u.ID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada", out["data"].(map[string]interface{})["user"].(map[string]interface{})["display_name"])

	resp, _ = do(t, app, "GET", "/users/"+uuid.New().String(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, "GET", "/users/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMe_RequiresSession(t *testing.T) {
	app, _ := setupApp(t, nil)
	resp, _ := do(t, app, "GET", "/users/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateMe(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Email: "ada@pettie.test", DisplayName: "Ada", PasswordHash: "x"}
	app, svc := setupApp(t, u)
	require.NoError(t, svc.DB.Create(u).Error)

	resp, out := do(t, app, "PATCH", "/users/me", map[string]string{"phone": "+351 900", "display_name": "Ada L"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "+351 900", got["phone"])
	assert.Equal(t, "Ada L", got["display_name"])

	resp, out = do(t, app, "PATCH", "/users/me", map[string]string{"display_name": ""})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Display name cannot be empty", out["error"].(map[string]interface{})["message"])

	resp, _ = do(t, app, "GET", "/users/me", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
