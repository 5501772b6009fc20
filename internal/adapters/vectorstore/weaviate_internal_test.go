package vectorstore

import (
	"context"
	"testing"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func TestToObject(t *testing.T) {
	t.Parallel()

	d := domain.Document{PageContent: "text", Metadata: map[string]any{"source": "https://x.org", "chunk_index": 2}}
	obj, err := toObject("Chunk", "exp_1", d, []float32{0.5})
	require.NoError(t, err)

	props, ok := obj.Properties.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Chunk", obj.Class)
	assert.Equal(t, "text", props[propContent])
	assert.Equal(t, "https://x.org", props[propSource])
	assert.Equal(t, "exp_1", props[propNamespace])
	assert.JSONEq(t, `{"source":"https://x.org","chunk_index":2}`, props[propMetadata].(string))

	again, err := toObject("Chunk", "exp_1", d, []float32{0.5})
	require.NoError(t, err)
	assert.Equal(t, obj.ID, again.ID, "ids are deterministic")

	other, err := toObject("Chunk", "exp_2", d, []float32{0.5})
	require.NoError(t, err)
	assert.NotEqual(t, obj.ID, other.ID)
}

func TestParseDocuments(t *testing.T) {
	t.Parallel()

	resp := &models.GraphQLResponse{Data: map[string]models.JSONObject{
		"Get": map[string]any{
			"Chunk": []any{
				map[string]any{propContent: "first", propMetadata: `{"source":"a"}`},
				"malformed",
				map[string]any{propContent: "second"},
			},
		},
	}}

	docs := parseDocuments(resp, "Chunk")
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].PageContent)
	assert.Equal(t, "a", docs[0].Metadata["source"])
	assert.Equal(t, "second", docs[1].PageContent)
	assert.Empty(t, docs[1].Metadata)

	assert.Empty(t, parseDocuments(&models.GraphQLResponse{}, "Chunk"))
}

func TestNewWeaviate_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := WeaviateFactory(context.Background(), domain.Params{"url": ""}, ports.ResourceEnv{})
	require.ErrorIs(t, err, domain.ErrMissingParam)
}
