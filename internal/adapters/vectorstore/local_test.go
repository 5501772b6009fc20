package vectorstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agrospai/fastrag/internal/adapters/vectorstore"
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(content, source string) domain.Document {
	return domain.Document{PageContent: content, Metadata: map[string]any{domain.MetaSource: source}}
}

func TestLocal_SearchRanksByCosine(t *testing.T) {
	t.Parallel()

	store, err := vectorstore.OpenLocal("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	docs := []domain.Document{doc("east", "a"), doc("north", "b"), doc("north-east", "c")}
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	require.NoError(t, store.AddDocuments(ctx, docs, vectors, "exp_1"))

	got, err := store.SimilaritySearch(ctx, "q", []float32{0, 2}, 2, "exp_1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "north", got[0].PageContent)
	assert.Equal(t, "north-east", got[1].PageContent)
	assert.Equal(t, "b", got[0].Metadata[domain.MetaSource])
}

func TestLocal_NamespacesAreIsolated(t *testing.T) {
	t.Parallel()

	store, err := vectorstore.OpenLocal("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.AddDocuments(ctx, []domain.Document{doc("one", "a")}, [][]float32{{1}}, "exp_1"))
	require.NoError(t, store.AddDocuments(ctx, []domain.Document{doc("two", "a")}, [][]float32{{1}}, "exp_10"))

	got, err := store.SimilaritySearch(ctx, "q", []float32{1}, 5, "exp_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].PageContent)

	none, err := store.SimilaritySearch(ctx, "q", []float32{1}, 5, "exp_2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocal_ReuploadKeepsOneCopy(t *testing.T) {
	t.Parallel()

	store, err := vectorstore.OpenLocal("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	d := []domain.Document{doc("same", "a")}
	require.NoError(t, store.AddDocuments(ctx, d, [][]float32{{1, 0}}, "exp_1"))
	require.NoError(t, store.AddDocuments(ctx, d, [][]float32{{1, 0}}, "exp_1"))

	got, err := store.SimilaritySearch(ctx, "q", []float32{1, 0}, 5, "exp_1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLocal_MismatchedVectors(t *testing.T) {
	t.Parallel()

	store, err := vectorstore.OpenLocal("")
	require.NoError(t, err)
	defer store.Close()

	err = store.AddDocuments(context.Background(), []domain.Document{doc("a", "a")}, nil, "exp_1")
	require.ErrorIs(t, err, domain.ErrVectorStoreFailed)
}

func TestLocalFactory_PersistsUnderBasePath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	ctx := context.Background()

	store, err := vectorstore.LocalFactory(ctx, nil, ports.ResourceEnv{BasePath: base})
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(ctx, []domain.Document{doc("kept", "a")}, [][]float32{{1}}, "exp_1"))
	require.NoError(t, store.Close())
	assert.DirExists(t, filepath.Join(base, domain.VectorDirName))

	reopened, err := vectorstore.LocalFactory(ctx, domain.Params{}, ports.ResourceEnv{BasePath: base})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.SimilaritySearch(ctx, "q", []float32{1}, 1, "exp_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].PageContent)
}
