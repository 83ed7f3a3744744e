package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	favsvc "pettie-backend/internal/application/favorites"
	listsvc "pettie-backend/internal/application/listings"
	"pettie-backend/internal/application/uploads"
	"pettie-backend/internal/domain"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	uploaded map[string][]byte
}

func (m *memStorage) Upload(ctx context.Context, bucket, path, contentType string, body []byte) error {
	m.uploaded[path] = body
	return nil
}

func (m *memStorage) DownloadURL(bucket, path string) (string, error) {
	return "https://cdn.test/" + bucket + "/" + path, nil
}

func (m *memStorage) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	return "https://cdn.test/sign/" + path, nil
}

var sellerID = uuid.New()

func setupApp(t *testing.T) (*fiber.App, *listsvc.Service, *memStorage) {
	store := &memStorage{uploaded: map[string][]byte{}}
	svc := &listsvc.Service{
		DB:       testutil.DB(t),
		Uploader: &uploads.Service{Client: store, ListingImagesBucket: "listing-images"},
	}
	h := &Handlers{Service: svc, Favorites: &favsvc.Service{DB: svc.DB}}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		switch c.Get("X-Test-User") {
		case "seller":
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: sellerID.String(), DisplayName: "Ada"})
		case "other":
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: uuid.New().String(), DisplayName: "Bob"})
		}
		return c.Next()
	})
	app.Get("/listings/recent", h.Recent)
	app.Get("/listings/user/:user_id", h.ByUser)
	app.Get("/listings/:id", h.Get)
	app.Post("/listings", h.Create)
	app.Patch("/listings/:id", middleware.RequireAuth(), h.Update)
	app.Patch("/listings/:id/status", middleware.RequireAuth(), h.UpdateStatus)
	return app, svc, store
}

func send(t *testing.T, app *fiber.App, req *http.Request, user string) (*http.Response, map[string]interface{}) {
	t.Helper()
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func jsonReq(method, path string, body interface{}) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errMsg(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	s, _ := e["message"].(string)
	return s
}

func TestCreate_JSON(t *testing.T) {
	app, _, _ := setupApp(t)
	body := map[string]interface{}{"title": "Rex", "species": "Dog", "price": 120, "location": "Porto"}

	resp, out := send(t, app, jsonReq("POST", "/listings", body), "seller")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	listing := out["data"].(map[string]interface{})["listing"].(map[string]interface{})
	assert.Equal(t, "Rex", listing["title"])
	assert.Equal(t, 120.0, listing["price"])
	assert.Equal(t, "Ada", listing["seller_name"])
	assert.Equal(t, "AVAILABLE", listing["status"])
}

func TestCreate_ValidationBeforeAuth(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, out := send(t, app, jsonReq("POST", "/listings", map[string]interface{}{"title": "Rex"}), "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please fill in all required fields", errMsg(out))

	body := map[string]interface{}{"title": "Rex", "species": "Dog", "price": "abc", "location": "Porto"}
	resp, out = send(t, app, jsonReq("POST", "/listings", body), "seller")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please enter a valid price", errMsg(out))

	body["price"] = "10"
	body["currency"] = "dollars"
	resp, out = send(t, app, jsonReq("POST", "/listings", body), "seller")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Currency must be a 3-letter code", errMsg(out))

	delete(body, "currency")
	resp, out = send(t, app, jsonReq("POST", "/listings", body), "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authenticated", errMsg(out))
}

func TestCreate_Multipart(t *testing.T) {
	app, _, store := setupApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"title": "Tom", "species": "Cat", "price": "35.5", "location": "Faro"} {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, name := range []string{"a.jpg", "b.jpg"} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photos"; filename="`+name+`"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte("jpeg-" + name))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/listings", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, out := send(t, app, req, "seller")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	listing := out["data"].(map[string]interface{})["listing"].(map[string]interface{})
	photos := listing["photo_urls"].([]interface{})
	assert.Len(t, photos, 2)
	assert.Len(t, store.uploaded, 2)
	assert.Equal(t, 35.5, listing["price"])
}

func TestReads(t *testing.T) {
	app, svc, _ := setupApp(t)
	l := &domain.PetListing{SellerID: sellerID, Title: "Rex", Species: "Dog", Price: 5, Location: "Porto"}
	require.NoError(t, svc.DB.Create(l).Error)

	resp, out := send(t, app, httptest.NewRequest("GET", "/listings/recent?limit=500", nil), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"].(map[string]interface{})["listings"], 1)
	assert.Equal(t, 100.0, out["metadata"].(map[string]interface{})["limit"])

	resp, out = send(t, app, httptest.NewRequest("GET", "/listings/user/"+sellerID.String(), nil), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"].(map[string]interface{})["listings"], 1)

	resp, _ = send(t, app, httptest.NewRequest("GET", "/listings/"+l.ID.String(), nil), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, out = send(t, app, httptest.NewRequest("GET", "/listings/"+uuid.New().String(), nil), "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Listing not found", errMsg(out))
}

func TestGet_FavoriteFlag(t *testing.T) {
	app, svc, _ := setupApp(t)
	l := &domain.PetListing{SellerID: uuid.New(), Title: "Rex", Species: "Dog", Price: 5, Location: "Porto"}
	require.NoError(t, svc.DB.Create(l).Error)
	favs := &favsvc.Service{DB: svc.DB}
	require.NoError(t, favs.Add(context.Background(), sellerID, l.ID))
	path := "/listings/" + l.ID.String()

	for user, want := range map[string]bool{"seller": true, "other": false, "": false} {
		resp, out := send(t, app, httptest.NewRequest("GET", path, nil), user)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, user)
		assert.Equal(t, want, out["data"].(map[string]interface{})["favorite"], user)
	}
}

func TestUpdateAndStatus_OwnerOnly(t *testing.T) {
	app, svc, _ := setupApp(t)
	l := &domain.PetListing{SellerID: sellerID, Title: "Rex", Species: "Dog", Price: 5, Location: "Porto"}
	require.NoError(t, svc.DB.Create(l).Error)
	path := "/listings/" + l.ID.String()

	resp, out := send(t, app, jsonReq("PATCH", path, map[string]interface{}{"price": "7.25"}), "other")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You can only modify your own listings", errMsg(out))

	resp, out = send(t, app, jsonReq("PATCH", path, map[string]interface{}{"price": 7.25}), "seller")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 7.25, out["data"].(map[string]interface{})["listing"].(map[string]interface{})["price"])

	resp, _ = send(t, app, jsonReq("PATCH", path+"/status", map[string]string{"status": "bogus"}), "seller")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, out = send(t, app, jsonReq("PATCH", path+"/status", map[string]string{"status": "sold"}), "seller")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "SOLD", out["data"].(map[string]interface{})["listing"].(map[string]interface{})["status"])

	resp, _ = send(t, app, jsonReq("PATCH", path+"/status", map[string]string{"status": "sold"}), "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
