// Package errors provides structured error handling for mcp-hybrid-search.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, converter, index)
//   - 3XX: Network errors (embedding API, vector store)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and index I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeProviderUnknown  = "ERR_103_PROVIDER_UNKNOWN"
	ErrCodeTokenizerUnknown = "ERR_104_TOKENIZER_UNKNOWN"
	ErrCodeAPIKeyMissing    = "ERR_105_API_KEY_MISSING"

	// IO errors (200-299)
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileUnreadable  = "ERR_202_FILE_UNREADABLE"
	ErrCodeConverterFailed = "ERR_203_CONVERTER_FAILED"
	ErrCodeEmptyContent    = "ERR_204_EMPTY_CONTENT"
	ErrCodeCorruptIndex    = "ERR_205_CORRUPT_INDEX"
	ErrCodeIngestLocked    = "ERR_206_INGEST_LOCKED"

	// Network errors (300-399)
	ErrCodeEmbeddingAPI   = "ERR_301_EMBEDDING_API"
	ErrCodeVectorStore    = "ERR_302_VECTOR_STORE"
	ErrCodeNetworkTimeout = "ERR_303_NETWORK_TIMEOUT"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeQueryEmpty        = "ERR_403_QUERY_EMPTY"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_503_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code.
// Configuration and validation errors are fatal at first use; IO and
// network errors are absorbed at the batch or file level.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryValidation:
		return SeverityFatal
	case CategoryIO:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether an operation failing with this code
// may succeed on retry. Only transient network failures qualify.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeEmbeddingAPI, ErrCodeVectorStore, ErrCodeNetworkTimeout:
		return true
	default:
		return false
	}
}
