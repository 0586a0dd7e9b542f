package main

import "github.com/voicebank/gateway/internal/env"

const defaultEngineURL = "wss://generativelanguage.googleapis.com/ws/" +
	"google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

type config struct {
	port string

	engineURL    string
	engineAPIKey string
	engineModel  string
	systemPrompt string

	demoUserID    string
	demoBiller    string
	maxConcurrent int
	sessionPollMS int
	eventRingSize int

	databaseURL string
	traceDBURL  string

	qdrantURL      string
	qdrantPoolSize int
	ollamaURL      string
	embeddingModel string
	vectorSize     int
	faqCollection  string
	faqTopK        int
	faqThreshold   float64

	objectStoreURL    string
	objectStoreBucket string
	brandingDir       string
	objectPoolSize    int
}

func loadConfig() config {
	return config{
		port: env.Str("GATEWAY_PORT", "8000"),

		engineURL:    env.Str("ENGINE_WS_URL", defaultEngineURL),
		engineAPIKey: env.Str("ENGINE_API_KEY", ""),
		engineModel:  env.Str("ENGINE_MODEL", "models/gemini-2.0-flash-live-001"),
		systemPrompt: env.Str("SYSTEM_PROMPT", ""),

		demoUserID:    env.Str("DEMO_USER_ID", "Alex"),
		demoBiller:    env.Str("DEMO_BILLER", "City Power"),
		maxConcurrent: env.Int("MAX_CONCURRENT_SESSIONS", 100),
		sessionPollMS: env.Int("SESSION_POLL_MS", 200),
		eventRingSize: env.Int("EVENT_RING_SIZE", 500),

		databaseURL: env.Str("DATABASE_URL", ""),
		traceDBURL:  env.Str("TRACE_DATABASE_URL", ""),

		qdrantURL:      env.Str("QDRANT_URL", ""),
		qdrantPoolSize: env.Int("QDRANT_POOL_SIZE", 10),
		ollamaURL:      env.Str("OLLAMA_URL", "http://localhost:11434"),
		embeddingModel: env.Str("EMBEDDING_MODEL", "nomic-embed-text"),
		vectorSize:     env.Int("VECTOR_SIZE", 768),
		faqCollection:  env.Str("FAQ_COLLECTION", "bank_faq"),
		faqTopK:        env.Int("FAQ_TOP_K", 3),
		faqThreshold:   env.Float("FAQ_SCORE_THRESHOLD", 0.7),

		objectStoreURL:    env.Str("OBJECT_STORE_URL", ""),
		objectStoreBucket: env.Str("OBJECT_STORE_BUCKET", "branding"),
		brandingDir:       env.Str("BRANDING_DIR", "uploads"),
		objectPoolSize:    env.Int("OBJECT_POOL_SIZE", 10),
	}
}
