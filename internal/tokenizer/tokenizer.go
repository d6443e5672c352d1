// Package tokenizer counts model tokens in plain text.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is the encoding used by the gpt-4o model family.
const DefaultEncoding = "o200k_base"

// Counter converts text to a token count.
type Counter interface {
	Count(text string) (int, error)
}

// Tokenizer counts tokens with a tiktoken BPE codec.
type Tokenizer struct {
	codec    tokenizer.Codec
	encoding string
}

// New creates a Tokenizer for the named encoding. An empty name selects
// DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := parseEncoding(encoding)
	if err != nil {
		return nil, err
	}

	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s codec: %w", encoding, err)
	}

	return &Tokenizer{codec: codec, encoding: encoding}, nil
}

// Encoding returns the encoding name.
func (t *Tokenizer) Encoding() string {
	return t.encoding
}

// Count returns the number of tokens in text. Blank text is 0 and never
// reaches the codec.
func (t *Tokenizer) Count(text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("failed to encode text: %w", err)
	}
	return len(ids), nil
}

// Encodings lists the accepted encoding names.
func Encodings() []string {
	return []string{"o200k_base", "cl100k_base", "p50k_base", "r50k_base"}
}

func parseEncoding(name string) (tokenizer.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "o200k_base":
		return tokenizer.O200kBase, nil
	case "cl100k_base":
		return tokenizer.Cl100kBase, nil
	case "p50k_base":
		return tokenizer.P50kBase, nil
	case "r50k_base":
		return tokenizer.R50kBase, nil
	default:
		return "", fmt.Errorf("unknown tokenizer encoding %q", name)
	}
}
