// Command seed loads the demo bank data into Postgres and, optionally, FAQ
// documents into the vector collection.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicebank/gateway/internal/bank"
	"github.com/voicebank/gateway/internal/env"
	"github.com/voicebank/gateway/internal/faq"
)

func main() {
	dbURL := flag.String("db", env.Str("DATABASE_URL", ""), "Postgres connection string")
	userID := flag.String("user", env.Str("DEMO_USER_ID", "Alex"), "demo user to seed")
	faqDir := flag.String("faq-dir", "", "directory containing .txt FAQ files to seed (optional)")
	ollamaURL := flag.String("ollama-url", env.Str("OLLAMA_URL", "http://localhost:11434"), "Ollama URL")
	model := flag.String("model", env.Str("EMBEDDING_MODEL", "nomic-embed-text"), "embedding model")
	qdrantURL := flag.String("qdrant-url", env.Str("QDRANT_URL", "http://localhost:6333"), "Qdrant URL")
	collection := flag.String("collection", "bank_faq", "Qdrant collection name")
	vectorSize := flag.Int("vector-size", 768, "embedding vector dimension")
	chunkSize := flag.Int("chunk-size", 500, "max characters per chunk")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *dbURL == "" {
		fmt.Fprintln(os.Stderr, "usage: seed --db postgres://... [--faq-dir ./samples/faq/]")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := bank.Open(*dbURL)
	if err != nil {
		slog.Error("open bank store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seedBank(ctx, store.DB(), *userID); err != nil {
		slog.Error("seed bank data", "error", err)
		os.Exit(1)
	}
	slog.Info("bank data seeded", "user_id", *userID)

	if *faqDir == "" {
		return
	}

	embedder := faq.NewEmbeddingClient(*ollamaURL, *model, 4)
	qdrant := faq.NewQdrantClient(*qdrantURL, 4)

	if err := qdrant.EnsureCollection(ctx, *collection, *vectorSize); err != nil {
		slog.Error("ensure collection", "error", err)
		os.Exit(1)
	}

	count, err := qdrant.CollectionPointCount(ctx, *collection)
	if err == nil && count > 0 {
		slog.Info("collection already seeded, skipping", "collection", *collection, "points", count)
		return
	}

	files, err := filepath.Glob(filepath.Join(*faqDir, "*.txt"))
	if err != nil {
		slog.Error("glob files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no .txt files found in", *faqDir)
		os.Exit(1)
	}

	var total int
	for _, f := range files {
		n, seedErr := seedFile(ctx, f, *chunkSize, embedder, qdrant, *collection)
		if seedErr != nil {
			slog.Error("seed file", "file", f, "error", seedErr)
			continue
		}
		total += n
		slog.Info("seeded", "file", f, "chunks", n)
	}

	slog.Info("done", "total_chunks", total, "files", len(files))
}

// seedBank inserts the demo accounts and billers the voice assistant's
// system instruction refers to. Existing rows are left alone so reseeding
// is safe.
func seedBank(ctx context.Context, db *sql.DB, userID string) error {
	accounts := []bank.Account{
		{ID: "acc_current_001", UserID: userID, Type: "Current", Nickname: "Everyday Spending", Balance: 500, Currency: "GBP"},
		{ID: "acc_savings_001", UserID: userID, Type: "Savings", Nickname: "My Main Savings", Balance: 2500, Currency: "GBP"},
	}
	for _, a := range accounts {
		_, err := db.ExecContext(ctx, `
			INSERT INTO accounts (account_id, user_id, account_type, account_nickname, balance, currency)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (account_id) DO NOTHING`,
			a.ID, a.UserID, a.Type, a.Nickname, a.Balance, a.Currency)
		if err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}

	due := time.Now().AddDate(0, 0, 14).UTC().Truncate(24 * time.Hour)
	billers := []bank.Biller{
		{
			ID:            "biller_" + strings.ToLower(userID) + "_citypower",
			UserID:        userID,
			Nickname:      "City Power",
			BillType:      "electricity",
			AccountNumber: "CP-998877",
			LastDueAmount: 120,
			LastDueDate:   &due,
		},
		{
			ID:            "biller_" + strings.ToLower(userID) + "_metrowater",
			UserID:        userID,
			Nickname:      "Metro Water",
			BillType:      "water",
			AccountNumber: "MW-441100",
			LastDueAmount: 45,
			LastDueDate:   &due,
		},
	}
	for _, b := range billers {
		_, err := db.ExecContext(ctx, `
			INSERT INTO registered_billers (biller_id, user_id, biller_nickname, bill_type, account_number_at_biller, last_due_amount, last_due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (biller_id) DO NOTHING`,
			b.ID, b.UserID, b.Nickname, b.BillType, b.AccountNumber, b.LastDueAmount, b.LastDueDate)
		if err != nil {
			return fmt.Errorf("insert biller %s: %w", b.ID, err)
		}
	}
	return nil
}

func seedFile(ctx context.Context, path string, chunkSize int, embedder *faq.EmbeddingClient, qdrant *faq.QdrantClient, collection string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	chunks := chunkText(string(data), chunkSize)
	points := make([]faq.QdrantPoint, 0, len(chunks))

	for _, chunk := range chunks {
		vector, embedErr := embedder.Embed(ctx, chunk)
		if embedErr != nil {
			return 0, fmt.Errorf("embed chunk: %w", embedErr)
		}
		points = append(points, faq.QdrantPoint{
			ID:     uuid.NewString(),
			Vector: vector,
			Payload: map[string]any{
				"text":   chunk,
				"source": filepath.Base(path),
			},
		})
	}

	if err := qdrant.Upsert(ctx, collection, points); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}

	return len(points), nil
}

func chunkText(text string, maxChars int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if current.Len()+len(p) > maxChars && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
