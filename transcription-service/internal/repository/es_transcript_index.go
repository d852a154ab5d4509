package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
)

const transcriptMapping = `{
	"mappings": {
		"properties": {
			"id":         {"type": "keyword"},
			"meeting_id": {"type": "keyword"},
			"user_id":    {"type": "keyword"},
			"content":    {"type": "text"},
			"created_at": {"type": "date"}
		}
	}
}`

type esTranscriptIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewESTranscriptIndex creates an Elasticsearch-backed transcript index.
func NewESTranscriptIndex(client *elasticsearch.Client, index string) TranscriptIndex {
	return &esTranscriptIndex{client: client, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func EnsureIndex(ctx context.Context, client *elasticsearch.Client, index string) error {
	res, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = client.Indices.Create(index,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(transcriptMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (r *esTranscriptIndex) Index(ctx context.Context, t *domain.Transcription) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(t.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index transcript: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (r *esTranscriptIndex) Search(ctx context.Context, meetingID, query string, offset, limit int) ([]domain.Transcription, int, error) {
	body := map[string]interface{}{
		"from": offset,
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match": map[string]interface{}{"content": query},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"meeting_id": meetingID},
				},
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"created_at": "asc"}},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search transcripts: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	hits := make([]domain.Transcription, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var t domain.Transcription
		if err := json.Unmarshal(hit.Source, &t); err != nil {
			continue
		}
		hits = append(hits, t)
	}

	return hits, result.Hits.Total.Value, nil
}

type esResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
