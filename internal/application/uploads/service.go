package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListingImagesPrefix is the folder every listing photo is written under.
const ListingImagesPrefix = "listing_images"

var ErrStorageNotConfigured = errors.New("storage is not configured")

// StorageClient is what the service needs from blob storage.
type StorageClient interface {
	Upload(ctx context.Context, bucket, path, contentType string, body []byte) error
	DownloadURL(bucket, path string) (string, error)
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

// HTTPClient is a StorageClient backed by the Supabase Storage HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type supabaseSignedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by upload/sign
}

func (c *HTTPClient) base() (string, error) {
	if c.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set: %w", ErrStorageNotConfigured)
	}
	if c.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set: %w", ErrStorageNotConfigured)
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return strings.TrimRight(c.BaseURL, "/"), nil
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Upload writes one object. Existing objects are never overwritten.
func (c *HTTPClient) Upload(ctx context.Context, bucket, path, contentType string, body []byte) error {
	base, err := c.base()
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", base, bucket, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	_, err = c.do(req)
	return err
}

// DownloadURL returns the public URL of an object in a public bucket.
func (c *HTTPClient) DownloadURL(bucket, path string) (string, error) {
	base, err := c.base()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", base, bucket, escapePath(path)), nil
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	base, err := c.base()
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, escapePath(path))
	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var data supabaseSignedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		// relative to the storage API root
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// Image is one photo attached to a new listing.
type Image struct {
	ContentType string
	Data        []byte
}

// Service encapsulates upload logic.
type Service struct {
	Client              StorageClient
	ListingImagesBucket string
}

// UploadImages stores each image under a fresh uuid name and collects the download
// URLs in input order. Images are handled one at a time; the first failure stops
// the loop and is returned.
func (s *Service) UploadImages(ctx context.Context, images []Image) ([]string, error) {
	urls := make([]string, 0, len(images))
	if len(images) == 0 {
		return urls, nil
	}
	if s.Client == nil {
		return nil, ErrStorageNotConfigured
	}
	for _, img := range images {
		path := ListingImagesPrefix + "/" + uuid.New().String()
		if err := s.Client.Upload(ctx, s.ListingImagesBucket, path, img.ContentType, img.Data); err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		u, err := s.Client.DownloadURL(s.ListingImagesBucket, path)
		if err != nil {
			return nil, fmt.Errorf("image url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// UploadResult is returned to clients that upload directly to storage.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// GetSignedUploadURL lets a client upload straight to storage and later attach the
// public URL to a listing or profile.
func (s *Service) GetSignedUploadURL(ctx context.Context, bucket, fileName string) (*UploadResult, error) {
	if s.Client == nil {
		return nil, ErrStorageNotConfigured
	}
	path := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), fileName)

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, bucket, path)
	if err != nil {
		return nil, err
	}
	publicURL, err := s.Client.DownloadURL(bucket, path)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: publicURL,
		Path:      path,
	}, nil
}
