// Package selector picks items out of an ordered sequence by index.
//
// Selection is all-or-nothing: the first out-of-range index fails the whole
// call and no partial result is returned.
package selector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidIndexFormat = errors.New("invalid index format")
	ErrIndexOutOfRange    = errors.New("index out of range")
)

// IndexOutOfRangeError reports the offending index and the sequence length.
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d is out of range, available items: %d", e.Index, e.Length)
}

func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// ParseIndices parses a comma-separated list of integers such as "2, 0, 2".
func ParseIndices(s string) ([]int, error) {
	tokens := strings.Split(s, ",")
	indices := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidIndexFormat, tok)
		}
		indices = append(indices, n)
	}
	return indices, nil
}

// Select returns items in the order and multiplicity given by indices.
func Select[T any](items []T, indices []int) ([]T, error) {
	for _, idx := range indices {
		if err := check(idx, len(items)); err != nil {
			return nil, err
		}
	}
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = items[idx]
	}
	return out, nil
}

// SelectOne returns the single item at index.
func SelectOne[T any](items []T, index int) (T, error) {
	if err := check(index, len(items)); err != nil {
		var zero T
		return zero, err
	}
	return items[index], nil
}

// SelectString parses indices from s and applies Select.
func SelectString[T any](items []T, s string) ([]T, error) {
	indices, err := ParseIndices(s)
	if err != nil {
		return nil, err
	}
	return Select(items, indices)
}

func check(index, length int) error {
	if index < 0 || index >= length {
		return &IndexOutOfRangeError{Index: index, Length: length}
	}
	return nil
}
