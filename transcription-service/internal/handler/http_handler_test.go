package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/service"
)

type stubService struct {
	text string
	err  error
	got  *domain.TranscribeRequest

	audio    string
	audioURL string
	audioErr error
	deleted  string
}

func (s *stubService) Transcribe(_ context.Context, req *domain.TranscribeRequest) (string, error) {
	s.got = req
	return s.text, s.err
}

func (s *stubService) History(_ context.Context, meetingID string, _ int) (*domain.HistoryResponse, error) {
	return &domain.HistoryResponse{Transcriptions: []domain.Transcription{{MeetingID: meetingID, Content: "hi"}}, Total: 1}, nil
}

func (s *stubService) Search(context.Context, string, *domain.SearchRequest) (*domain.SearchResponse, error) {
	return nil, service.ErrSearchNotAvailable
}

func (s *stubService) AudioURL(context.Context, string, string) (*domain.AudioURLResponse, error) {
	if s.audioErr != nil {
		return nil, s.audioErr
	}
	return &domain.AudioURLResponse{URL: s.audioURL}, nil
}

func (s *stubService) OpenAudio(context.Context, string, string) (io.ReadCloser, error) {
	if s.audioErr != nil {
		return nil, s.audioErr
	}
	return io.NopCloser(strings.NewReader(s.audio)), nil
}

func (s *stubService) DeleteAudio(_ context.Context, _, id, userID string) error {
	if s.audioErr != nil {
		return s.audioErr
	}
	s.deleted = id + " by " + userID
	return nil
}

func newRouter(t *testing.T, svc service.TranscriptionService) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := jwt.NewManager(jwt.Config{Issuer: "test", AccessDuration: time.Minute}, nil)
	require.NoError(t, err)

	r := gin.New()
	NewHandler(svc, middleware.NewAuthMiddleware(tokens)).RegisterRoutes(r)
	return r, tokens
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPreflight(t *testing.T) {
	r, _ := newRouter(t, &stubService{})

	for _, path := range []string{FunctionPath, "/api/v1/transcriptions"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assertCORS(t, w)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	svc := &stubService{text: "good morning"}
	r, _ := newRouter(t, svc)

	w := post(r, FunctionPath, `{"audio_data":"AAAA","meeting_id":"m1","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assertCORS(t, w)
	assert.JSONEq(t, `{"transcription":"good morning"}`, w.Body.String())
	assert.Equal(t, "m1", svc.got.MeetingID)
	assert.Equal(t, "u1", svc.got.UserID)
	assert.Equal(t, "AAAA", svc.got.AudioData)
}

func TestTranscribeFailuresUseErrorContract(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		want string
	}{
		{"empty transcript", service.ErrEmptyTranscript, `{"audio_data":"AAAA","meeting_id":"m","user_id":"u"}`, "transcription failed: empty transcript"},
		{"upstream", errors.New("transcription failed: boom"), `{"audio_data":"AAAA","meeting_id":"m","user_id":"u"}`, "transcription failed: boom"},
		{"malformed body", nil, `{"audio_data":`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newRouter(t, &stubService{err: tc.err})
			w := post(r, FunctionPath, tc.body)

			require.Equal(t, http.StatusInternalServerError, w.Code)
			assertCORS(t, w)

			var res domain.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			require.NotEmpty(t, res.Error)
			if tc.want != "" {
				assert.Equal(t, tc.want, res.Error)
			}
		})
	}
}

func TestHistoryRequiresSession(t *testing.T) {
	r, tokens := newRouter(t, &stubService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/meetings/m1/transcriptions", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	pair, err := tokens.GenerateTokenPair("u1", "u@example.com", "U")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/meetings/m1/transcriptions", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"meeting_id":"m1"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/meetings/m1/transcriptions/search?q=hi", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTranscribeRejectsOversizedBody(t *testing.T) {
	svc := &stubService{text: "never"}
	r, _ := newRouter(t, svc)

	audio := strings.Repeat("A", MaxTranscribeBodyBytes)
	w := post(r, FunctionPath, `{"audio_data":"`+audio+`","meeting_id":"m1","user_id":"u1"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assertCORS(t, w)
	assert.Nil(t, svc.got)
}

func authedRequest(t *testing.T, tokens *jwt.Manager, method, path string) *http.Request {
	t.Helper()
	pair, err := tokens.GenerateTokenPair("u1", "u@example.com", "U")
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	return req
}

func TestArchivedAudioRoutes(t *testing.T) {
	svc := &stubService{audio: "webm-bytes", audioURL: "/audio/m1/t1.webm"}
	r, tokens := newRouter(t, svc)
	base := "/api/v1/meetings/m1/transcriptions/t1/audio"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodGet, base))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/webm", w.Header().Get("Content-Type"))
	assert.Equal(t, "webm-bytes", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodGet, base+"/url"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"url":"`+base+`"`)

	svc.audioURL = "https://bucket.example/audio/m1/t1.webm?X-Amz-Signature=abc"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodGet, base+"/url"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://bucket.example/audio/m1/t1.webm")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodDelete, base))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "t1 by u1", svc.deleted)
}

func TestArchivedAudioErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrArchiveNotAvailable, http.StatusServiceUnavailable},
		{service.ErrAudioNotFound, http.StatusNotFound},
		{service.ErrNotSpeaker, http.StatusForbidden},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			r, tokens := newRouter(t, &stubService{audioErr: tc.err})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, authedRequest(t, tokens, http.MethodDelete, "/api/v1/meetings/m1/transcriptions/t1/audio"))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
