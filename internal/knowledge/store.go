// Package knowledge provides an in-process vector index over article
// chunks. Each question gets its own short-lived index: chunks go in,
// the most similar ones come back out as context for the answer.
package knowledge

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"

	"github.com/wikirag/wikirag/internal/log"
)

const collectionName = "wikipedia"

// Store indexes documents with vector embeddings and serves similarity
// search over them. It is backed by an in-memory chromem-go collection.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	collection *chromem.Collection
	embedFn    chromem.EmbeddingFunc
	logger     log.Logger
}

// NewStore creates an empty in-memory store using the given embedder
// for both indexing and querying.
func NewStore(embedder ai.Embedder, logger log.Logger) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("knowledge: embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	embedFn := NewEmbeddingFunc(embedder)

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("knowledge: create collection: %w", err)
	}

	return &Store{
		collection: collection,
		embedFn:    embedFn,
		logger:     logger,
	}, nil
}

// Add embeds and indexes the given documents. Documents whose embedding
// fails are skipped with a warning rather than failing the whole batch;
// the number of documents actually indexed is returned.
func (s *Store) Add(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	batch := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		embedding, err := s.embedFn(ctx, doc.Content)
		if err != nil {
			if ctx.Err() != nil {
				return len(batch), ctx.Err()
			}
			s.logger.Warn("skipping chunk, embedding failed",
				"id", doc.ID,
				"error", err)
			continue
		}

		batch = append(batch, chromem.Document{
			ID:        doc.ID,
			Metadata:  doc.Metadata,
			Embedding: embedding,
			Content:   doc.Content,
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}

	// Embeddings are precomputed above, so AddDocuments only stores.
	if err := s.collection.AddDocuments(ctx, batch, 1); err != nil {
		return 0, fmt.Errorf("knowledge: add documents: %w", err)
	}

	return len(batch), nil
}

// Search returns the documents most similar to the query text, ordered
// by descending similarity. The result count is clamped to the number
// of indexed documents, as chromem-go rejects oversized requests.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	n := cfg.topK
	if n > count {
		n = count
	}
	if n < 1 {
		n = 1
	}

	var where map[string]string
	if len(cfg.filter) > 0 {
		where = cfg.filter
	}

	hits, err := s.collection.Query(ctx, query, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge: query: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Document: Document{
				ID:       hit.ID,
				Content:  hit.Content,
				Metadata: hit.Metadata,
			},
			Similarity: hit.Similarity,
		})
	}

	return results, nil
}

// Count reports the number of indexed documents.
func (s *Store) Count() int {
	return s.collection.Count()
}
