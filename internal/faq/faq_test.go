package faq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchCannedAnswer(t *testing.T) {
	c := NewClient(Config{})
	answer, err := c.Search(context.Background(), "What are your operating hours?")
	require.NoError(t, err)
	require.Contains(t, answer, "9:30 AM to 3:30 PM")
}

func TestSearchFallbackWithoutBackend(t *testing.T) {
	c := NewClient(Config{})
	answer, err := c.Search(context.Background(), "how do I dispute a charge")
	require.NoError(t, err)
	require.Equal(t, fallbackAnswer, answer)
}

func TestSearchKnowledgeBase(t *testing.T) {
	embedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float64{{0.1, 0.2, 0.3}}})
	}))
	defer embedSrv.Close()

	qdrantSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/faq/points/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"result": []map[string]any{
			{"id": "1", "score": 0.9, "payload": map[string]any{"text": "Card disputes are handled within 7 working days."}},
		}})
	}))
	defer qdrantSrv.Close()

	c := NewClient(Config{
		Embedder:   NewEmbeddingClient(embedSrv.URL, "nomic-embed-text", 2),
		Qdrant:     NewQdrantClient(qdrantSrv.URL, 2),
		Collection: "faq",
	})
	answer, err := c.Search(context.Background(), "how do I dispute a charge")
	require.NoError(t, err)
	require.Contains(t, answer, "7 working days")
}

func TestSearchBackendErrorDegrades(t *testing.T) {
	embedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer embedSrv.Close()

	c := NewClient(Config{
		Embedder:   NewEmbeddingClient(embedSrv.URL, "nomic-embed-text", 2),
		Qdrant:     NewQdrantClient("http://127.0.0.1:1", 2),
		Collection: "faq",
	})
	answer, err := c.Search(context.Background(), "wire transfer limits")
	require.Error(t, err)
	require.Equal(t, fallbackAnswer, answer)
}
