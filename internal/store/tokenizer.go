//go:build !cjk

package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// analyzerForTokenizer maps the configured tokenizer to a Bleve
// analyzer name. CJK tokenizers require the segmenter compiled in
// under the cjk build tag; without it, selecting one fails at
// index-open with a configuration error naming the tag.
func analyzerForTokenizer(tokenizer string) (string, error) {
	switch tokenizer {
	case "", "default":
		return standard.Name, nil
	case "japanese", "korean", "chinese":
		return "", errors.New(errors.ErrCodeTokenizerUnknown,
			fmt.Sprintf("tokenizer %q requires the cjk build tag (go build -tags cjk)", tokenizer), nil)
	default:
		return "", errors.New(errors.ErrCodeTokenizerUnknown,
			fmt.Sprintf("unknown tokenizer %q (supported: default, japanese, korean, chinese)", tokenizer), nil)
	}
}
