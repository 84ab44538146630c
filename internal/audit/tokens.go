package audit

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	tokenCodecOnce sync.Once
	tokenCodec     tokenizer.Codec
	tokenCodecErr  error
)

// EstimateTokens returns an approximate token count for a prompt using the
// cl100k_base encoding. None of the catalog families publish their exact
// tokenizers for this transport, so the estimate is advisory only: it feeds
// the prompt_tokens observability field and the pre-flight budget warning,
// never a hard failure.
func EstimateTokens(text string) (int, error) {
	tokenCodecOnce.Do(func() {
		tokenCodec, tokenCodecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	if tokenCodecErr != nil {
		return 0, tokenCodecErr
	}
	ids, _, err := tokenCodec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
