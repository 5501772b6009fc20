package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.trai.ch/zerr"
)

// StrategyWeaviate is the resource strategy name of the Weaviate backend.
const StrategyWeaviate = "weaviate"

// DefaultClass is the Weaviate class chunks are stored in.
const DefaultClass = "FastragChunk"

const (
	propContent   = "content"
	propSource    = "source"
	propNamespace = "namespace"
	propMetadata  = "metadata"
)

// WeaviateConfig is the parameter block of the weaviate strategy.
type WeaviateConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Class  string `yaml:"class"`
}

// Weaviate stores chunks in one class and keeps experiments apart with a
// filterable namespace property.
type Weaviate struct {
	client *weaviate.Client
	class  string

	mu     sync.Mutex
	schema bool
}

// NewWeaviate connects to the server at cfg.URL.
func NewWeaviate(cfg WeaviateConfig) (*Weaviate, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingParam, "weaviate url"), "url", cfg.URL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}

	conf := weaviate.Config{Host: u.Host, Scheme: scheme}
	if cfg.APIKey != "" {
		conf.Headers = map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	}
	client, err := weaviate.NewClient(conf)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "url", cfg.URL)
	}

	class := cfg.Class
	if class == "" {
		class = DefaultClass
	}
	return &Weaviate{client: client, class: class}, nil
}

// WeaviateFactory implements ports.VectorStoreFactory.
func WeaviateFactory(_ context.Context, params domain.Params, _ ports.ResourceEnv) (ports.VectorStore, error) {
	var cfg WeaviateConfig
	if err := params.Decode(&cfg); err != nil {
		return nil, zerr.With(err, "resource", string(domain.ResourceStore))
	}
	return NewWeaviate(cfg)
}

func chunkClass(name string) *models.Class {
	filterable := true
	return &models.Class{
		Class:       name,
		Description: "A document chunk with its embedding.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: propContent, DataType: []string{"text"}, Tokenization: "word"},
			{Name: propSource, DataType: []string{"text"}, Tokenization: "field", IndexFilterable: &filterable},
			{Name: propNamespace, DataType: []string{"text"}, Tokenization: "field", IndexFilterable: &filterable},
			{Name: propMetadata, DataType: []string{"text"}, Tokenization: "field"},
		},
	}
}

func (w *Weaviate) ensureSchema(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.schema {
		return nil
	}
	if _, err := w.client.Schema().ClassGetter().WithClassName(w.class).Do(ctx); err != nil {
		if err := w.client.Schema().ClassCreator().WithClass(chunkClass(w.class)).Do(ctx); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "class", w.class)
		}
	}
	w.schema = true
	return nil
}

// objectID is stable per namespace and content, so re-uploads overwrite.
func objectID(namespace string, doc domain.Document) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceOID, documentKey(namespace, doc)).String())
}

func toObject(class, namespace string, doc domain.Document, vector []float32) (*models.Object, error) {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, err
	}
	source, _ := doc.Metadata[domain.MetaSource].(string)
	return &models.Object{
		Class:  class,
		ID:     objectID(namespace, doc),
		Vector: vector,
		Properties: map[string]any{
			propContent:   doc.PageContent,
			propSource:    source,
			propNamespace: namespace,
			propMetadata:  string(meta),
		},
	}, nil
}

// AddDocuments batch-imports docs with their vectors under namespace.
func (w *Weaviate) AddDocuments(ctx context.Context, docs []domain.Document, vectors [][]float32, namespace string) error {
	if len(docs) != len(vectors) {
		return zerr.With(zerr.Wrap(domain.ErrVectorStoreFailed, "document and vector counts differ"),
			"documents", len(docs))
	}
	if len(docs) == 0 {
		return nil
	}
	if err := w.ensureSchema(ctx); err != nil {
		return err
	}

	objects := make([]*models.Object, len(docs))
	for i, doc := range docs {
		obj, err := toObject(w.class, namespace, doc, vectors[i])
		if err != nil {
			return zerr.Wrap(err, domain.ErrVectorStoreFailed.Error())
		}
		objects[i] = obj
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "namespace", namespace)
	}

	var errs error
	for _, item := range resp {
		if item.Result == nil || item.Result.Errors == nil {
			continue
		}
		for _, e := range item.Result.Errors.Error {
			errs = errors.Join(errs, errors.New(e.Message))
		}
	}
	if errs != nil {
		return zerr.With(zerr.Wrap(errs, domain.ErrVectorStoreFailed.Error()), "namespace", namespace)
	}
	return nil
}

// SimilaritySearch returns the k nearest chunks of namespace.
func (w *Weaviate) SimilaritySearch(ctx context.Context, _ string, vector []float32, k int, namespace string) ([]domain.Document, error) {
	if k <= 0 {
		return nil, nil
	}

	where := filters.Where().
		WithPath([]string{propNamespace}).
		WithOperator(filters.Equal).
		WithValueString(namespace)
	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	fields := []graphql.Field{
		{Name: propContent},
		{Name: propMetadata},
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(fields...).
		WithWhere(where).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "namespace", namespace)
	}
	if len(result.Errors) > 0 {
		return nil, zerr.With(zerr.Wrap(errors.New(result.Errors[0].Message), domain.ErrVectorStoreFailed.Error()),
			"namespace", namespace)
	}
	return parseDocuments(result, w.class), nil
}

func parseDocuments(result *models.GraphQLResponse, class string) []domain.Document {
	get, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil
	}
	objects, ok := get[class].([]any)
	if !ok {
		return nil
	}

	docs := make([]domain.Document, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		doc := domain.Document{Metadata: map[string]any{}}
		doc.PageContent, _ = m[propContent].(string)
		if raw, ok := m[propMetadata].(string); ok && raw != "" {
			_ = json.Unmarshal([]byte(raw), &doc.Metadata)
		}
		docs = append(docs, doc)
	}
	return docs
}

// Close is a no-op: the client holds no persistent connection.
func (w *Weaviate) Close() error {
	return nil
}
