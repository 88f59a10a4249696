package dispatch

import (
	"github.com/pkoukk/tiktoken-go"
)

// Encoding is the tiktoken encoding used for estimates.
const Encoding = "cl100k_base"

// Tokenizer estimates the prompt size of a document.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer loads the encoding. It can fail when the BPE ranks are not
// cached and cannot be fetched; callers then use the zero Tokenizer, which
// falls back to a character estimate.
func NewTokenizer() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return &Tokenizer{}, err
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in text, or roughly len/4 when no
// encoding is loaded.
func (t *Tokenizer) Count(text string) int {
	if t == nil || t.enc == nil {
		return estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

func estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
