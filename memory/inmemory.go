package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/spetersoncode/stride"
)

// scored pairs a stored record with its optional embedding.
type stored struct {
	rec       stride.MemoryRecord
	embedding []float64
}

// InMemory is a process-local Store: appends under a write lock, queries
// under a read lock, nothing is ever mutated after append. Scoring is
// keyword token overlap; when an Embedder is configured, writes are
// embedded and queries blend cosine similarity with the keyword score.
type InMemory struct {
	mu       sync.RWMutex
	records  []stored
	embedder Embedder
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithEmbedder enables hybrid scoring. Embedding failures degrade to
// keyword-only scoring rather than failing the operation.
func WithEmbedder(e Embedder) InMemoryOption {
	return func(s *InMemory) {
		s.embedder = e
	}
}

// NewInMemory creates an empty in-process store.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write appends one record.
func (s *InMemory) Write(ctx context.Context, rec stride.MemoryRecord) error {
	entry := stored{rec: rec}
	if s.embedder != nil {
		if vecs, err := s.embedder.Embed(ctx, []string{rec.Query}); err == nil && len(vecs) == 1 {
			entry.embedding = vecs[0]
		}
	}

	s.mu.Lock()
	s.records = append(s.records, entry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Query scores every record against the text and returns the topK best,
// highest score first. Records with zero relevance are excluded.
func (s *InMemory) Query(ctx context.Context, text string, topK int) ([]stride.MemoryRecord, error) {
	if topK <= 0 {
		topK = 5
	}

	var queryVec []float64
	if s.embedder != nil {
		if vecs, err := s.embedder.Embed(ctx, []string{text}); err == nil && len(vecs) == 1 {
			queryVec = vecs[0]
		}
	}

	queryTokens := tokenize(text)

	s.mu.RLock()
	type candidate struct {
		rec   stride.MemoryRecord
		score float64
	}
	var candidates []candidate
	for _, entry := range s.records {
		score := overlapScore(queryTokens, tokenize(entry.rec.Query))
		if queryVec != nil && entry.embedding != nil {
			// Hybrid blend, vector-weighted.
			score = 0.7*cosine(queryVec, entry.embedding) + 0.3*score
		}
		if score > 0 {
			candidates = append(candidates, candidate{rec: entry.rec, score: score})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]stride.MemoryRecord, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}
	return out, nil
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		tokens[tok] = true
	}
	return tokens
}

// overlapScore is the fraction of query tokens present in the candidate.
func overlapScore(query, candidate map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for tok := range query {
		if candidate[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
