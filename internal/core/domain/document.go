package domain

// Document is a piece of text with metadata, as stored in and returned by a vector store.
type Document struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

// Chunk is the cached record produced by a chunker and enriched by an embedder.
type Chunk struct {
	ChunkID     string         `json:"chunk_id"`
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
	Level       string         `json:"level"`
	ParentID    *string        `json:"parent_id"`
	Vector      []float32      `json:"vector,omitempty"`
}

// Document returns the chunk as a Document.
func (c Chunk) Document() Document {
	return Document{PageContent: c.PageContent, Metadata: c.Metadata}
}
