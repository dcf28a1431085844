//go:build !localembed

package embed

import (
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// NewLocalEmbedder reports that the in-process embedder was not
// compiled in. Builds without the localembed tag keep the binary small
// for deployments that always use a remote provider.
func NewLocalEmbedder(model string, dims int) (Embedder, error) {
	return nil, errors.New(errors.ErrCodeProviderUnknown,
		"local embedding provider not compiled in", nil).
		WithDetail("model", model).
		WithSuggestion("rebuild with -tags localembed or switch embedding_provider")
}
