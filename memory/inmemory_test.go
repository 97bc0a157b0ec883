package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/stride"
)

func record(query string) stride.MemoryRecord {
	s := stride.NewSession(query)
	s.Seal(stride.StatusSucceeded, "done", nil)
	return stride.NewMemoryRecord(s)
}

func TestInMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	require.NoError(t, store.Write(ctx, record("compute 2+3 and report")))
	require.NoError(t, store.Write(ctx, record("translate hello into french")))
	require.NoError(t, store.Write(ctx, record("what is the weather in oslo")))

	got, err := store.Query(ctx, "compute 2+3 and report", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "compute 2+3 and report", got[0].Query)
}

func TestInMemoryQueryRanksByOverlap(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	require.NoError(t, store.Write(ctx, record("compute the sum of two numbers")))
	require.NoError(t, store.Write(ctx, record("compute nothing at all")))
	require.NoError(t, store.Write(ctx, record("bake a cake")))

	got, err := store.Query(ctx, "compute the sum", 5)
	require.NoError(t, err)
	require.Len(t, got, 2, "irrelevant records are excluded")
	assert.Equal(t, "compute the sum of two numbers", got[0].Query)
}

func TestInMemoryTopK(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Write(ctx, record(fmt.Sprintf("compute task %d", i))))
	}

	got, err := store.Query(ctx, "compute task", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestInMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Write(ctx, record(fmt.Sprintf("query number %d", i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Query(ctx, "query number", 5)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, store.Len())
}

// fixedEmbedder returns a canned vector per known text.
type fixedEmbedder struct {
	vectors map[string][]float64
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, txt := range texts {
		v, ok := f.vectors[txt]
		if !ok {
			v = []float64{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func TestInMemoryHybridScoring(t *testing.T) {
	ctx := context.Background()
	emb := &fixedEmbedder{vectors: map[string][]float64{
		"add two numbers":     {1, 0, 0},
		"compute 2 plus 3":    {0.9, 0.1, 0},
		"feed the goldfish":   {0, 1, 0},
	}}
	store := NewInMemory(WithEmbedder(emb))

	require.NoError(t, store.Write(ctx, record("compute 2 plus 3")))
	require.NoError(t, store.Write(ctx, record("feed the goldfish")))

	// No token overlap with either record; the vector side must carry it.
	got, err := store.Query(ctx, "add two numbers", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "compute 2 plus 3", got[0].Query)
}
