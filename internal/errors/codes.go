package errors

// Error codes for the retrieval engine. The numeric block encodes the
// category: 1xx corpus/index, 2xx query validation, 3xx retrieval channels,
// 4xx cache, 9xx internal.
const (
	// ErrCodeEmptyCorpus indicates an index build over zero valid documents
	// or zero valid tokens. Recoverable by the caller after ingestion.
	ErrCodeEmptyCorpus = "ERR_101_EMPTY_CORPUS"

	// ErrCodeIndexNotBuilt indicates a lexical index was requested for a
	// scope that has never been built and cannot be built lazily.
	ErrCodeIndexNotBuilt = "ERR_102_INDEX_NOT_BUILT"

	// ErrCodeInvalidQuery indicates a query below minimum length or entirely
	// composed of stop words after normalization.
	ErrCodeInvalidQuery = "ERR_201_INVALID_QUERY"

	// ErrCodeInvalidScope indicates a malformed scope (missing course ID).
	ErrCodeInvalidScope = "ERR_202_INVALID_SCOPE"

	// ErrCodeChannelUnavailable indicates a retrieval channel (lexical or
	// dense) failed. Always caught and degraded at the orchestrator boundary.
	ErrCodeChannelUnavailable = "ERR_301_CHANNEL_UNAVAILABLE"

	// ErrCodeEmbedderUnavailable indicates the embedding backend is
	// unreachable or returned an error.
	ErrCodeEmbedderUnavailable = "ERR_302_EMBEDDER_UNAVAILABLE"

	// ErrCodeCacheUnavailable indicates the result cache backing store is
	// unreachable. Searches proceed uncached.
	ErrCodeCacheUnavailable = "ERR_401_CACHE_UNAVAILABLE"

	// ErrCodeStoreIO indicates a document store read/write failure.
	ErrCodeStoreIO = "ERR_501_STORE_IO"

	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal = "ERR_901_INTERNAL"
)

// Category classifies errors for logging and degradation decisions.
type Category string

const (
	CategoryCorpus     Category = "corpus"
	CategoryValidation Category = "validation"
	CategoryChannel    Category = "channel"
	CategoryCache      Category = "cache"
	CategoryStore      Category = "store"
	CategoryInternal   Category = "internal"
)

// categoryFromCode derives the category from the code's numeric block.
func categoryFromCode(code string) Category {
	switch {
	case len(code) < 7:
		return CategoryInternal
	case code[4] == '1':
		return CategoryCorpus
	case code[4] == '2':
		return CategoryValidation
	case code[4] == '3':
		return CategoryChannel
	case code[4] == '4':
		return CategoryCache
	case code[4] == '5':
		return CategoryStore
	default:
		return CategoryInternal
	}
}

// isRetryableCode reports whether an operation failing with this code can
// be retried. Channel and cache failures are transient; validation and
// corpus failures are not.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeChannelUnavailable, ErrCodeEmbedderUnavailable, ErrCodeCacheUnavailable:
		return true
	default:
		return false
	}
}
