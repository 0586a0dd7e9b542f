// Package faq answers banking FAQ queries. Common questions are answered
// from a fixed table; everything else goes through embedding plus vector
// search over the seeded knowledge base.
package faq

import (
	"context"
	"fmt"
	"strings"
)

// fallbackAnswer is returned when neither the canned table nor the knowledge
// base produces anything. FAQ search must never fail the conversation.
const fallbackAnswer = "I could not find an answer to that. Please call our 24/7 customer service at 1800-123-1234 for assistance."

// commonAnswers short-circuits the knowledge base for high-frequency
// questions. Keys are matched as substrings of the lowercased query.
var commonAnswers = map[string]string{
	"operating hours":          "Our standard banking hours are Monday to Friday from 9:30 AM to 3:30 PM, and select branches are open on Saturdays from 9:30 AM to 1:30 PM. Timings may vary by location.",
	"banking hours":            "Our standard banking hours are Monday to Friday from 9:30 AM to 3:30 PM. Some branches may have extended hours or be open on Saturdays.",
	"working hours":            "Our branches are typically open Monday to Friday from 9:30 AM to 3:30 PM. Digital banking services are available 24/7.",
	"when do you open":         "Most of our branches open at 9:30 AM from Monday to Friday.",
	"when do you close":        "Most of our branches close at 3:30 PM from Monday to Friday.",
	"weekend hours":            "Select branches are open on Saturdays from 9:30 AM to 1:30 PM. All branches are closed on Sundays and public holidays.",
	"holiday hours":            "Branches are closed on public holidays. Please check our website or mobile app for the holiday calendar.",
	"24 hour customer service": "Our customer service is available 24/7 at 1800-123-1234 for any banking assistance.",
	"customer service hours":   "Our customer service is available 24/7 at 1800-123-1234.",
	"emergency contact":        "For lost or stolen cards, please call our 24/7 helpline at 1800-123-1234 immediately.",
}

// Client answers FAQ queries against the knowledge base. Embedder and search
// backend may be nil, in which case only the canned table is consulted.
type Client struct {
	embedder       *EmbeddingClient
	qdrant         *QdrantClient
	collection     string
	topK           int
	scoreThreshold float64
}

// Config holds configuration for the FAQ client.
type Config struct {
	Embedder       *EmbeddingClient
	Qdrant         *QdrantClient
	Collection     string
	TopK           int
	ScoreThreshold float64
}

// NewClient creates an FAQ search client.
func NewClient(cfg Config) *Client {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Client{
		embedder:       cfg.Embedder,
		qdrant:         cfg.Qdrant,
		collection:     cfg.Collection,
		topK:           cfg.TopK,
		scoreThreshold: cfg.ScoreThreshold,
	}
}

// Search answers a query. It always returns a usable answer string; the
// error reports why the knowledge base was skipped, for logging only.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	lower := strings.ToLower(query)
	for question, answer := range commonAnswers {
		if strings.Contains(lower, question) {
			return answer, nil
		}
	}

	if c.embedder == nil || c.qdrant == nil {
		return fallbackAnswer, nil
	}

	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return fallbackAnswer, fmt.Errorf("embed query: %w", err)
	}

	results, err := c.qdrant.Search(ctx, c.collection, vector, c.topK, c.scoreThreshold)
	if err != nil {
		return fallbackAnswer, fmt.Errorf("qdrant search: %w", err)
	}
	if len(results) == 0 {
		return fallbackAnswer, nil
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		text, ok := r.Payload["text"].(string)
		if !ok {
			text = fmt.Sprintf("%v", r.Payload["text"])
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n---\n"), nil
}
