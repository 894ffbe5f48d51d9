package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Placeholder is the single chunk returned for empty input.
const Placeholder = "No text provided"

// Method selects the unit chunk sizes are measured in.
type Method string

const (
	Words      Method = "words"
	Characters Method = "characters"
)

var (
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrUnknownMethod    = errors.New("unknown chunk method")
)

// ParseMethod maps a method name ("words" or "characters") to a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case Words, Characters:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Config is the full set of chunking options.
type Config struct {
	Size                  int
	Method                Method
	RespectWordBoundaries bool
}

// DefaultConfig mirrors the loader node defaults.
func DefaultConfig() Config {
	return Config{
		Size:                  1000,
		Method:                Words,
		RespectWordBoundaries: true,
	}
}

// Split is Chunk with the options taken from cfg.
func (cfg Config) Split(text string) ([]string, error) {
	return Chunk(text, cfg.Size, cfg.Method, cfg.RespectWordBoundaries)
}

// Chunk splits text into ordered, non-empty chunks of at most size words or
// characters. Character counts are in runes. Empty input, and input with no
// words in a word-based mode (whitespace only), yields a single Placeholder
// chunk, so the result is never empty.
func Chunk(text string, size int, method Method, respectWordBoundaries bool) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	if text == "" {
		return []string{Placeholder}, nil
	}

	var chunks []string
	switch method {
	case Words:
		chunks = byWords(text, size)
	case Characters:
		if respectWordBoundaries {
			chunks = byCharactersOnWords(text, size)
		} else {
			chunks = byCharacterWindows(text, size)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	// Whitespace-only input has no words to emit.
	if len(chunks) == 0 {
		return []string{Placeholder}, nil
	}
	return chunks, nil
}

// byWords emits every size words joined by single spaces.
func byWords(text string, size int) []string {
	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// byCharactersOnWords packs whole words into chunks of at most size runes.
// A word longer than size is never split and gets a chunk of its own.
func byCharactersOnWords(text string, size int) []string {
	var chunks []string
	var current []string
	count := 0

	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if count+n > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			count = 0
		}
		current = append(current, word)
		count += n + 1 // separator
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// byCharacterWindows cuts text into fixed windows of size runes, ignoring
// whitespace entirely. Concatenating the result reproduces text.
func byCharacterWindows(text string, size int) []string {
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
