package chunker

import (
	"strings"
	"unicode/utf8"
)

// Stats summarizes a chunk for display.
type Stats struct {
	Words  int `json:"words" yaml:"words"`
	Runes  int `json:"characters" yaml:"characters"`
	Tokens int `json:"approx_tokens" yaml:"approx_tokens"`
}

// Measure returns word, character and estimated token counts for text.
func Measure(text string) Stats {
	return Stats{
		Words:  len(strings.Fields(text)),
		Runes:  utf8.RuneCountInString(text),
		Tokens: EstimateTokens(text),
	}
}

// EstimateTokens gives a rough token count from the word count.
// Exact tokenization is not needed for sizing decisions.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 1.33 tokens per English word.
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
