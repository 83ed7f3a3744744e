package uploads

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	uploads []string
	failAt  int
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, path, contentType string, body []byte) error {
	if f.failAt > 0 && len(f.uploads)+1 == f.failAt {
		return errors.New("quota exceeded")
	}
	f.uploads = append(f.uploads, bucket+"/"+path)
	return nil
}

func (f *fakeStorage) DownloadURL(bucket, path string) (string, error) {
	return "https://cdn.test/" + bucket + "/" + path, nil
}

func (f *fakeStorage) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	return "https://cdn.test/sign/" + bucket + "/" + path, nil
}

func TestUploadImages_SequentialInOrder(t *testing.T) {
	st := &fakeStorage{}
	svc := &Service{Client: st, ListingImagesBucket: "listing-images"}

	urls, err := svc.UploadImages(context.Background(), []Image{
		{ContentType: "image/jpeg", Data: []byte("a")},
		{ContentType: "image/png", Data: []byte("b")},
	})
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.Len(t, st.uploads, 2)
	for i, u := range urls {
		assert.Equal(t, "https://cdn.test/"+st.uploads[i], u)
		assert.Contains(t, u, "/listing_images/")
	}
	assert.NotEqual(t, urls[0], urls[1])
}

func TestUploadImages_StopsAtFirstFailure(t *testing.T) {
	st := &fakeStorage{failAt: 2}
	svc := &Service{Client: st, ListingImagesBucket: "listing-images"}

	urls, err := svc.UploadImages(context.Background(), []Image{{}, {}, {}})
	assert.Nil(t, urls)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Len(t, st.uploads, 1)
}

func TestUploadImages_NoImages(t *testing.T) {
	svc := &Service{}
	urls, err := svc.UploadImages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestUploadImages_NoClient(t *testing.T) {
	svc := &Service{}
	_, err := svc.UploadImages(context.Background(), []Image{{}})
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestGetSignedUploadURL(t *testing.T) {
	svc := &Service{Client: &fakeStorage{}}
	res, err := svc.GetSignedUploadURL(context.Background(), "profile-photos", "me.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Path, "-me.png"))
	assert.Equal(t, "https://cdn.test/profile-photos/"+res.Path, res.PublicURL)
	assert.Contains(t, res.UploadURL, "/sign/profile-photos/")
}

func TestHTTPClient_UploadAndDownloadURL(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"Key":"ok"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL + "/", SecretKey: "service"}
	require.NoError(t, c.Upload(context.Background(), "listing-images", "listing_images/abc", "image/jpeg", []byte("jpeg")))
	assert.Equal(t, "/storage/v1/object/listing-images/listing_images/abc", gotPath)
	assert.Equal(t, "Bearer service", gotAuth)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "jpeg", gotBody)

	u, err := c.DownloadURL("listing-images", "listing_images/abc")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/listing-images/listing_images/abc", u)
}

func TestHTTPClient_UploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Unauthorized"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "anon"}
	err := c.Upload(context.Background(), "b", "p", "", nil)
	assert.ErrorContains(t, err, "status 403")
}

func TestHTTPClient_SignedURLRelative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"/object/upload/sign/b/p?token=t"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "service"}
	u, err := c.CreateSignedUploadURL(context.Background(), "b", "p")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/b/p?token=t", u)
}

func TestHTTPClient_NotConfigured(t *testing.T) {
	c := &HTTPClient{}
	_, err := c.DownloadURL("b", "p")
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}
