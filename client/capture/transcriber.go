package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gavinvoiceai/meetflow-saas/client/api"
)

// FunctionPath is the transcription function route.
const FunctionPath = "/functions/v1/realtime-transcription"

var ErrEmptyTranscription = errors.New("empty transcription in response")

// HTTPTranscriber posts slices to the transcription function. The function
// answers {"transcription": ...} or {"error": ...} rather than the
// service envelope.
type HTTPTranscriber struct {
	api  *api.Client
	path string
}

func NewHTTPTranscriber(c *api.Client) *HTTPTranscriber {
	return &HTTPTranscriber{api: c, path: FunctionPath}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, req *Request) (string, error) {
	resp, err := t.api.Send(ctx, http.MethodPost, t.path, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", api.DecodeError(resp)
	}

	var body struct {
		Transcription string `json:"transcription"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	if body.Transcription == "" {
		return "", ErrEmptyTranscription
	}
	return body.Transcription, nil
}
