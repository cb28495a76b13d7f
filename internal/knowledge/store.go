// Package knowledge stores policy documents with vector search, backing the
// assistant's retrieval-augmented answers.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/abgdnv/shopbot/internal/database"
)

// DB is the subset of the pgx pool the store needs. Narrowing it here keeps
// the store testable without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Document is one unit of knowledge, e.g. a section of the store policy.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a document matched by a similarity search.
type Result struct {
	Document
	Score float64
}

// Store manages documents in the shared database. Safe for concurrent use.
type Store struct {
	db       DB
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a knowledge store on top of the shared database handle.
func NewStore(handle *database.Handle, embedder ai.Embedder, logger *slog.Logger) *Store {
	return newStore(handle.Pool(), embedder, logger)
}

func newStore(db DB, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:       db,
		embedder: embedder,
		logger:   logger.With("component", "knowledge"),
	}
}

// Add embeds the document content and upserts it.
func (s *Store) Add(ctx context.Context, doc Document) error {
	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed document %q: %w", doc.ID, err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (id, content, embedding, metadata)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET content = EXCLUDED.content, embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`,
		doc.ID, doc.Content, embedding, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document %q: %w", doc.ID, err)
	}
	s.logger.DebugContext(ctx, "Document indexed", "id", doc.ID, "bytes", len(doc.Content))
	return nil
}

// Search returns up to topK documents ordered by cosine similarity to the
// query. An empty result is not an error.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	embedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		 FROM documents
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		embedding, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var metadataJSON []byte
		if err := rows.Scan(&r.ID, &r.Content, &metadataJSON, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}
	return results, nil
}

// embed runs the configured embedder on one text and returns its vector.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("embedder returned an empty embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
