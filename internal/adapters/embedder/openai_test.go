package embedder_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/agrospai/fastrag/internal/adapters/embedder"
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer answers every input with [len(input), index].
func embeddingServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		requests.Add(1)

		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "nomic-embed", body.Model)

		items := make([]string, 0, len(body.Input))
		for i, in := range body.Input {
			items = append(items, fmt.Sprintf(`{"object":"embedding","index":%d,"embedding":[%d,%d]}`, i, len(in), i))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"object":"list","model":"nomic-embed","data":[%s]}`, strings.Join(items, ","))
	}))
}

func TestEmbedder_Documents(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := embeddingServer(t, &requests)
	defer srv.Close()

	factory := embedder.OpenAI(ports.ResourceEnv{HTTP: srv.Client()})
	e, err := factory(ports.EmbedderConfig{Model: "nomic-embed", URL: srv.URL + "/v1/", BatchSize: 2})
	require.NoError(t, err)

	vectors, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{2, 1}, vectors[1])
	assert.Equal(t, []float32{3, 0}, vectors[2])
	assert.Equal(t, int32(2), requests.Load(), "three texts in batches of two")
}

func TestEmbedder_Query(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := embeddingServer(t, &requests)
	defer srv.Close()

	e, err := embedder.New(ports.EmbedderConfig{Model: "nomic-embed", URL: srv.URL + "/v1", APIKey: "k"}, srv.Client())
	require.NoError(t, err)

	vector, err := e.EmbedQuery(context.Background(), "four")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 0}, vector)

	none, err := e.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, int32(1), requests.Load())
}

func TestEmbedder_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	e, err := embedder.New(ports.EmbedderConfig{Model: "nomic-embed", URL: srv.URL}, srv.Client())
	require.NoError(t, err)

	_, err = e.EmbedQuery(context.Background(), "q")
	require.ErrorContains(t, err, domain.ErrEmbeddingFailed.Error())
}
