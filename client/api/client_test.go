package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/things", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "x", in["name"])
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"42"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithTokenSource(StaticToken("tok")))
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/api/v1/things", map[string]string{"name": "x"}, &out))
	assert.Equal(t, "42", out.ID)
}

func TestDoReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"meeting not found"}}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "NOT_FOUND", se.Code)
	assert.Equal(t, "meeting not found", se.Message)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestDecodeFlatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"transcription failed: empty transcript"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Do(context.Background(), http.MethodPost, "/fn", map[string]string{}, nil)
	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "transcription failed: empty transcript", se.Message)
}
