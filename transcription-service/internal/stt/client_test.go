package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTranscriptionURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/audio/transcriptions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/audio/transcriptions"},
		{"http://localhost:8080", "http://localhost:8080/v1/audio/transcriptions"},
		{"", "https://api.openai.com/v1/audio/transcriptions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, transcriptionURL(tc.base), "base=%q", tc.base)
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient("  ")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTranscribe_SendsMultipartUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "audio.webm", header.Filename)
		require.Equal(t, "audio/webm", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		require.Equal(t, []byte("RIFFdata"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello everyone"}`))
	}))
	defer srv.Close()

	c, err := NewClient("sk-test", WithBaseURL(srv.URL))
	require.NoError(t, err)

	text, err := c.Transcribe(context.Background(), []byte("RIFFdata"), "audio.webm", "audio/webm")
	require.NoError(t, err)
	require.Equal(t, "hello everyone", text)
}

func TestTranscribe_EmptyTextIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient("sk", WithBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	text, err := c.Transcribe(context.Background(), []byte("x"), "audio.webm", "audio/webm")
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestTranscribe_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c, err := NewClient("sk", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), []byte("x"), "audio.webm", "audio/webm")
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.HTTPStatusCode())
	require.Contains(t, statusErr.Body, "rate limited")
}

func TestTranscribe_HonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient("sk", WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Transcribe(ctx, []byte("x"), "audio.webm", "audio/webm")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
