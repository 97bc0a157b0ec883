// Package memory persists and retrieves records of past sessions.
//
// The Store contract is deliberately small: append-only writes and a
// similarity/keyword query, both safe to call concurrently across
// sessions. [InMemory] keeps records in process with keyword scoring and
// an optional embedding rerank; [SQLiteStore] persists them with FTS5
// full-text search.
package memory

import (
	"context"

	"github.com/spetersoncode/stride"
)

// Store is the memory persistence contract consumed by the agent loop.
// Query must be safe to call concurrently with Write from other sessions;
// Write is append-only — records are never updated or deleted here.
type Store interface {
	// Query returns up to topK records most relevant to the text, most
	// relevant first.
	Query(ctx context.Context, text string, topK int) ([]stride.MemoryRecord, error)

	// Write appends one record.
	Write(ctx context.Context, rec stride.MemoryRecord) error
}

// Embedder produces one embedding vector per input text, in input order.
// The openai llm adapter implements it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
