package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetshop/sweets-api/internal/core/ports"
	"github.com/sweetshop/sweets-api/internal/pkg/config"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type capturedPut struct {
	method      string
	path        string
	contentType string
	body        string
}

// objectServer accepts PUTs like an S3-compatible host and records them.
type objectServer struct {
	mu     sync.Mutex
	puts   []capturedPut
	status int
}

func (s *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.puts = append(s.puts, capturedPut{
		method:      r.Method,
		path:        r.URL.Path,
		contentType: r.Header.Get("Content-Type"),
		body:        string(body),
	})
	status := s.status
	s.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
		return
	}
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func TestObjectKey(t *testing.T) {
	k := objectKey("sweets", "Photo.JPG")
	assert.True(t, strings.HasPrefix(k, "sweets/"), k)
	assert.True(t, strings.HasSuffix(k, ".jpg"), k)

	assert.NotEqual(t, objectKey("sweets", "a.png"), objectKey("sweets", "a.png"))
	assert.False(t, strings.Contains(objectKey("/nested/", "../../etc/passwd"), ".."))
	assert.False(t, strings.HasPrefix(objectKey("", "x.png"), "/"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/webp", contentType(ports.MediaFile{ContentType: "image/webp"}))
	assert.Equal(t, "image/png", contentType(ports.MediaFile{ContentType: "application/octet-stream", Data: pngHeader}))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/sweets/a.png", joinURL("https://cdn.example.com/", "sweets/a.png"))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.MediaConfig{Driver: "cloudinary"})
	assert.Error(t, err)
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), config.S3Config{Region: "us-east-1"}, "sweets")
	assert.Error(t, err)
}

func TestS3Uploader_Upload(t *testing.T) {
	srv := &objectServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	u, err := NewS3Uploader(context.Background(), config.S3Config{
		Bucket:    "shop",
		Region:    "us-east-1",
		Endpoint:  ts.URL,
		AccessKey: "key",
		SecretKey: "secret",
		PublicURL: "https://cdn.example.com",
	}, "sweets")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), ports.MediaFile{Filename: "ladoo.png", Data: pngHeader})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/sweets/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	require.Len(t, srv.puts, 1)
	put := srv.puts[0]
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/shop/"+strings.TrimPrefix(url, "https://cdn.example.com/"), put.path)
	assert.Equal(t, "image/png", put.contentType)
	assert.Contains(t, put.body, "PNG")
}

func TestS3Uploader_DefaultPublicURL(t *testing.T) {
	u, err := NewS3Uploader(context.Background(), config.S3Config{
		Bucket: "shop", Region: "eu-west-1", AccessKey: "k", SecretKey: "s",
	}, "sweets")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.s3.eu-west-1.amazonaws.com", u.baseURL)
}

func TestS3Uploader_UploadError(t *testing.T) {
	srv := &objectServer{status: http.StatusForbidden}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	u, err := NewS3Uploader(context.Background(), config.S3Config{
		Bucket: "shop", Region: "us-east-1", Endpoint: ts.URL, AccessKey: "key", SecretKey: "secret",
	}, "sweets")
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), ports.MediaFile{Filename: "ladoo.png", Data: pngHeader})
	assert.Error(t, err)
}

func TestMinioUploader_Upload(t *testing.T) {
	srv := &objectServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	endpoint := strings.TrimPrefix(ts.URL, "http://")
	u, err := NewMinioUploader(config.MinioConfig{
		Endpoint: endpoint, AccessKey: "minio", SecretKey: "minio123", Bucket: "sweets",
	}, "catalog")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), ports.MediaFile{Filename: "barfi.png", ContentType: "image/png", Data: pngHeader})
	require.NoError(t, err)

	prefix := "http://" + endpoint + "/sweets/catalog/"
	assert.True(t, strings.HasPrefix(url, prefix), url)

	require.Len(t, srv.puts, 1)
	put := srv.puts[0]
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/sweets/catalog/"+strings.TrimPrefix(url, prefix), put.path)
	assert.Equal(t, "image/png", put.contentType)
}

func TestMinioUploader_UploadError(t *testing.T) {
	srv := &objectServer{status: http.StatusForbidden}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	u, err := NewMinioUploader(config.MinioConfig{
		Endpoint: strings.TrimPrefix(ts.URL, "http://"), AccessKey: "minio", SecretKey: "minio123", Bucket: "sweets",
	}, "catalog")
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), ports.MediaFile{Filename: "barfi.png", Data: pngHeader})
	assert.Error(t, err)
}

func TestMinioUploader_PublicURLOverride(t *testing.T) {
	u, err := NewMinioUploader(config.MinioConfig{
		Endpoint: "localhost:9000", Bucket: "sweets", PublicURL: "https://media.example.com/sweets",
	}, "catalog")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/sweets", u.baseURL)
}
