package models

import "errors"

// Failure taxonomy for the engine. Handlers map these to HTTP statuses with
// errors.Is; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrUnsupportedFormat indicates an upload with an extension outside the
	// allow-list. Rejected before any processing.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDocument indicates extraction yielded no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrExtraction indicates the format decoder could not parse the bytes.
	ErrExtraction = errors.New("failed to extract text")

	// ErrEmbeddingUnavailable indicates the embedding model could not be
	// invoked. Fatal for the whole upload; documents are never partially indexed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrPartialWrite indicates an insert could not register a document with
	// all of its chunks. The prior durable snapshot remains in effect.
	ErrPartialWrite = errors.New("partial write rejected")

	// ErrNotFound indicates an unknown document id.
	ErrNotFound = errors.New("document not found")

	// ErrModelNotLoaded indicates the local provider has no model selected or
	// the model service is unreachable.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrAuth indicates a missing or invalid credential for the hosted provider.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited indicates the hosted provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream indicates any other non-2xx provider response.
	ErrUpstream = errors.New("upstream provider error")

	// ErrTimeout indicates a generate call exceeded the request timeout.
	// Never retried here; retry policy belongs to the caller.
	ErrTimeout = errors.New("request timed out")
)
