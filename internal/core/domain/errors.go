package domain

import "go.trai.ch/zerr"

var (
	// ErrNotImplemented is returned when no strategy is registered for a capability and name.
	ErrNotImplemented = zerr.New("not implemented")

	// ErrInvalidLifespan is returned when a cache lifespan string cannot be parsed.
	ErrInvalidLifespan = zerr.New("invalid lifespan, expected <number><s|m|h|d|w>")

	// ErrInvalidParams is returned when strategy parameters cannot be decoded.
	ErrInvalidParams = zerr.New("invalid strategy parameters")

	// ErrMissingParam is returned when a required strategy parameter is absent.
	ErrMissingParam = zerr.New("missing strategy parameter")

	// ErrMissingResource is returned when a task needs a resource that was not configured.
	ErrMissingResource = zerr.New("resource not configured")

	// ErrCacheCreateFailed is returned when the cache directories cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create cache directory")

	// ErrCacheReadFailed is returned when a cached payload cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read cache entry")

	// ErrCacheWriteFailed is returned when a payload cannot be written to the cache.
	ErrCacheWriteFailed = zerr.New("failed to write cache entry")

	// ErrMetadataReadFailed is returned when the metadata snapshot cannot be read.
	ErrMetadataReadFailed = zerr.New("failed to read cache metadata")

	// ErrMetadataCorrupt is returned when the metadata snapshot cannot be decoded.
	ErrMetadataCorrupt = zerr.New("corrupt cache metadata")

	// ErrMetadataWriteFailed is returned when the metadata snapshot cannot be persisted.
	ErrMetadataWriteFailed = zerr.New("failed to write cache metadata")

	// ErrCacheCleanFailed is returned when the cache directory cannot be removed.
	ErrCacheCleanFailed = zerr.New("failed to clean cache")

	// ErrProducerFailed is returned when a cache producer fails to yield content.
	ErrProducerFailed = zerr.New("failed to produce cache content")

	// ErrEntryNotFound is returned when a cache entry is absent or expired.
	ErrEntryNotFound = zerr.New("cache entry not found")

	// ErrConfigNotFound is returned when no configuration file can be located.
	ErrConfigNotFound = zerr.New("could not find fastrag configuration")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the configuration fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrNoSources is returned when the configuration declares no source steps.
	ErrNoSources = zerr.New("no source steps configured")

	// ErrPipelineFailed is returned when a pipeline run aborts.
	ErrPipelineFailed = zerr.New("pipeline execution failed")

	// ErrExperimentFailed is returned when an experiment aborts.
	ErrExperimentFailed = zerr.New("experiment execution failed")

	// ErrFetchFailed is returned when a remote document cannot be retrieved.
	ErrFetchFailed = zerr.New("failed to fetch document")

	// ErrUnexpectedStatus is returned when a remote server answers with a non-success status.
	ErrUnexpectedStatus = zerr.New("unexpected HTTP status")

	// ErrUnsupportedFormat is returned when a parser cannot convert a document format.
	ErrUnsupportedFormat = zerr.New("unsupported document format")

	// ErrParseFailed is returned when a document cannot be converted to Markdown.
	ErrParseFailed = zerr.New("failed to parse document")

	// ErrEmbeddingFailed is returned when the embedding backend fails.
	ErrEmbeddingFailed = zerr.New("failed to compute embeddings")

	// ErrVectorStoreFailed is returned when the vector store rejects an operation.
	ErrVectorStoreFailed = zerr.New("vector store operation failed")

	// ErrLLMFailed is returned when the language model returns no usable answer.
	ErrLLMFailed = zerr.New("language model request failed")

	// ErrWatcherFailed is returned when the filesystem watcher cannot start.
	ErrWatcherFailed = zerr.New("failed to start watcher")

	// ErrInvalidOutputMode is returned when the --output flag names an unknown renderer.
	ErrInvalidOutputMode = zerr.New("invalid output mode, expected auto, tui, linear or ci")

	// ErrMetricsWriteFailed is returned when metrics cannot be written to disk.
	ErrMetricsWriteFailed = zerr.New("failed to write metrics file")
)
