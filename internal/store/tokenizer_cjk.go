//go:build cjk

package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"

	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// analyzerForTokenizer maps the configured tokenizer to a Bleve
// analyzer name. Built with the cjk tag, the CJK bigram analyzer
// serves the japanese, korean, and chinese tokenizers.
func analyzerForTokenizer(tokenizer string) (string, error) {
	switch tokenizer {
	case "", "default":
		return standard.Name, nil
	case "japanese", "korean", "chinese":
		return cjk.AnalyzerName, nil
	default:
		return "", errors.New(errors.ErrCodeTokenizerUnknown,
			fmt.Sprintf("unknown tokenizer %q (supported: default, japanese, korean, chinese)", tokenizer), nil)
	}
}
