package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPageList = errors.New("invalid page list")

// Resolve clamps a 1-indexed inclusive page range to [1, pageCount].
// An end before start collapses to start. With no pages it returns (0, 0).
func Resolve(start, end, pageCount int) (int, int) {
	if pageCount < 1 {
		return 0, 0
	}
	start = clamp(start, 1, pageCount)
	end = clamp(max(end, start), start, pageCount)
	return start, end
}

// Span lists the pages start..end inclusive.
func Span(start, end int) []int {
	if start < 1 || end < start {
		return nil
	}
	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}

// ResolveSpan is Resolve followed by Span.
func ResolveSpan(start, end, pageCount int) []int {
	return Span(Resolve(start, end, pageCount))
}

// ParseList parses comma-separated 1-based page numbers such as "1, 3,2".
// Blank tokens are skipped. Pages outside [1, pageCount] are dropped; order
// and duplicates are kept.
func ParseList(s string, pageCount int) ([]int, error) {
	var out []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer, use comma-separated page numbers", ErrInvalidPageList, tok)
		}
		if n >= 1 && n <= pageCount {
			out = append(out, n)
		}
	}
	return out, nil
}

// ValidateList checks s parses without resolving against a document.
func ValidateList(s string) error {
	_, err := ParseList(s, 0)
	return err
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
