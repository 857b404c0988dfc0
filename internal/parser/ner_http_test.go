package parser

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

func TestHTTPEntityRecognizerRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ner", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Jane Doe is a developer", req["text"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"entities": []map[string]string{
				{"label": "PERSON", "text": "Jane Doe"},
				{"label": "ORG", "text": "Acme"},
			},
		})
	}))
	defer server.Close()

	recognizer := NewHTTPEntityRecognizer(server.URL, WithNERLogger(log.New(io.Discard, "", 0)))
	entities, err := recognizer.Recognize(context.Background(), "Jane Doe is a developer")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, types.Entity{Label: "PERSON", Text: "Jane Doe"}, entities[0])
}

func TestHTTPEntityRecognizerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	recognizer := NewHTTPEntityRecognizer(server.URL, WithNERLogger(log.New(io.Discard, "", 0)))
	_, err := recognizer.Recognize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPEntityRecognizerEmptyEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entities": null}`))
	}))
	defer server.Close()

	recognizer := NewHTTPEntityRecognizer(server.URL, WithNERLogger(log.New(io.Discard, "", 0)))
	entities, err := recognizer.Recognize(context.Background(), "text")
	require.NoError(t, err)
	// 服务端返回null时也要得到空切片而不是nil
	assert.NotNil(t, entities)
	assert.Empty(t, entities)
}
