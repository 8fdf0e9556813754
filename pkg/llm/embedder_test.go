package llm_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/excerpt/pkg/llm"
)

// countingEmbedder encodes each text's numeric suffix as a one-element vector.
type countingEmbedder struct {
	mu       sync.Mutex
	batches  [][]string
	inFlight atomic.Int32
	peak     atomic.Int32
	fail     bool
}

func (c *countingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	c.mu.Lock()
	c.batches = append(c.batches, texts)
	c.mu.Unlock()
	if c.fail {
		return nil, errors.New("backend unavailable")
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := strconv.Atoi(text[len("text-"):])
		if err != nil {
			return nil, err
		}
		out[i] = []float32{float32(v)}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if c.fail {
		return nil, errors.New("backend unavailable")
	}
	return []float32{float32(len(text))}, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("text-%d", i)
	}
	return out
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{BaseURL: "http://localhost:1234"})
	require.NoError(t, err)

	cfg := emb.Config()
	assert.Equal(t, llm.DefaultEmbeddingModel, cfg.Model)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestEmbedder_EmbedDocumentsKeepsOrder(t *testing.T) {
	impl := &countingEmbedder{}
	emb, err := llm.WrapEmbedder(impl, llm.EmbedderConfig{BatchSize: 3, Concurrency: 2})
	require.NoError(t, err)

	vectors, err := emb.EmbedDocuments(context.Background(), texts(10))
	require.NoError(t, err)
	require.Len(t, vectors, 10)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i)}, v)
	}

	assert.Len(t, impl.batches, 4)
	assert.LessOrEqual(t, impl.peak.Load(), int32(2))
}

func TestEmbedder_EmbedDocumentsError(t *testing.T) {
	emb, err := llm.WrapEmbedder(&countingEmbedder{fail: true}, llm.EmbedderConfig{BatchSize: 2})
	require.NoError(t, err)

	_, err = emb.EmbedDocuments(context.Background(), texts(5))
	assert.ErrorContains(t, err, "backend unavailable")

	_, err = emb.EmbedQuery(context.Background(), "cidade")
	assert.ErrorContains(t, err, "failed to embed query")
}

func TestEmbedder_Empty(t *testing.T) {
	emb, err := llm.WrapEmbedder(&countingEmbedder{}, llm.EmbedderConfig{})
	require.NoError(t, err)

	vectors, err := emb.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedder_RateLimitHonoursContext(t *testing.T) {
	emb, err := llm.WrapEmbedder(&countingEmbedder{}, llm.EmbedderConfig{RequestsPerSecond: 0.001, Concurrency: 1})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = emb.EmbedQuery(ctx, "first")
	require.NoError(t, err, "burst allows the first request")

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = emb.EmbedQuery(ctx, "second")
	assert.Error(t, err)
}

func TestWrapEmbedder_RequiresImplementation(t *testing.T) {
	_, err := llm.WrapEmbedder(nil, llm.EmbedderConfig{})
	assert.Error(t, err)
}

func TestTokenCounter(t *testing.T) {
	counter, err := llm.NewTokenCounter("")
	if err != nil {
		t.Skipf("token encoding unavailable: %v", err)
	}
	assert.Equal(t, llm.DefaultEncoding, counter.Encoding())

	n, err := counter.CountTokens(context.Background(), "Total: R$ 1.234,56 pago em dinheiro")
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	n, err = counter.CountTokens(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
