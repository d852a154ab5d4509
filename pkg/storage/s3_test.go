package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style object requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[path] = data
		f.types[path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[path])
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) contentType(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.types[path]
}

func newTestS3(t *testing.T, publicURL string) (*S3Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Storage(context.Background(), S3Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "archive",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
		PublicURL:       publicURL,
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3StorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestS3(t, "")
	key := "audio/m1/01J.webm"

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, key, strings.NewReader("webm-bytes"), 10, "audio/webm"))
	assert.Equal(t, "audio/webm", fake.contentType("/archive/"+key))

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Read(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "webm-bytes", string(data))

	url, err := s.GetURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/archive/"+key)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=60")

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StoragePublicURL(t *testing.T) {
	s, _ := newTestS3(t, "https://cdn.example/")
	url, err := s.GetURL(context.Background(), "audio/m1/x.webm", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/audio/m1/x.webm", url)
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{})
	assert.Error(t, err)
}
