package types

import "errors"

// Sentinel errors for the pipeline. Wrap with fmt.Errorf("%w: ...") and
// match with errors.Is; the API layer maps them to HTTP statuses.
var (
	// ErrInvalidArgument marks bad caller-supplied parameters, such as a
	// non-positive chunk size.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSchemaViolation marks records that do not fit the collection
	// schema: embedding dimension mismatch or field byte overflow.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrStoreUnavailable marks connection or collection failures from
	// the vector store.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmbeddingFailure marks embedder call errors or a batch whose
	// size does not match the input.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrMalformedResponse marks LLM output that is not parseable as
	// JSON even after brace extraction.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrConfiguration marks a missing required credential or setting
	// for the selected provider.
	ErrConfiguration = errors.New("configuration error")
)
