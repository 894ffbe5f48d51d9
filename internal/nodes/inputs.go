package nodes

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrDuplicateNode = errors.New("node already registered")
	ErrMissingInput  = errors.New("missing input")
	ErrInvalidInput  = errors.New("invalid input")
)

// Input types, named as the node-graph editor names them.
const (
	TypeString  = "STRING"
	TypeInt     = "INT"
	TypeBoolean = "BOOLEAN"
	TypeImage   = "IMAGE"
	TypeChoice  = "CHOICE"
	TypeFile    = "FILE"
)

// InputSpec declares one node input.
type InputSpec struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Default   any      `json:"default,omitempty"`
	Min       *int     `json:"min,omitempty"`
	Max       *int     `json:"max,omitempty"`
	Choices   []string `json:"choices,omitempty"`
	Multiline bool     `json:"multiline,omitempty"`
	List      bool     `json:"list,omitempty"` // a sequence of Type
}

func bounds(lo, hi int) (*int, *int) {
	return &lo, &hi
}

// Inputs are the values a node runs with, keyed by input name.
type Inputs map[string]any

// Outputs hold one value per declared return slot.
type Outputs []any

func (in Inputs) String(key string) (string, error) {
	v, ok := in[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingInput, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidInput, key, v)
	}
	return s, nil
}

// Int accepts any integer type and integral floats, since JSON numbers
// decode to float64.
func (in Inputs) Int(key string) (int, error) {
	v, ok := in[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingInput, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || n >= math.MaxInt || n < math.MinInt {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidInput, key, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidInput, key, n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidInput, key, v)
	}
}

func (in Inputs) Bool(key string) (bool, error) {
	v, ok := in[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingInput, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidInput, key, v)
	}
	return b, nil
}

func (in Inputs) Strings(key string) ([]string, error) {
	v, ok := in[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, key)
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidInput, key, i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings, got %T", ErrInvalidInput, key, v)
	}
}

func (in Inputs) Images(key string) ([]image.Image, error) {
	v, ok := in[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, key)
	}
	switch list := v.(type) {
	case []image.Image:
		return list, nil
	case []any:
		out := make([]image.Image, len(list))
		for i, item := range list {
			img, ok := item.(image.Image)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be an image, got %T", ErrInvalidInput, key, i, item)
			}
			out[i] = img
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of images, got %T", ErrInvalidInput, key, v)
	}
}

// withDefaults returns a copy of in with declared defaults filled in and
// integer bounds and choices checked.
func withDefaults(specs []InputSpec, in Inputs) (Inputs, error) {
	out := make(Inputs, len(specs))
	for k, v := range in {
		out[k] = v
	}
	for _, spec := range specs {
		if _, ok := out[spec.Name]; !ok {
			if spec.Default == nil {
				return nil, fmt.Errorf("%w: %s", ErrMissingInput, spec.Name)
			}
			out[spec.Name] = spec.Default
		}
		switch spec.Type {
		case TypeInt:
			n, err := out.Int(spec.Name)
			if err != nil {
				return nil, err
			}
			if (spec.Min != nil && n < *spec.Min) || (spec.Max != nil && n > *spec.Max) {
				return nil, fmt.Errorf("%w: %s=%d outside [%d, %d]", ErrInvalidInput, spec.Name, n, deref(spec.Min), deref(spec.Max))
			}
			out[spec.Name] = n
		case TypeChoice:
			s, err := out.String(spec.Name)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(spec.Choices, s) {
				return nil, fmt.Errorf("%w: %s=%q not one of %v", ErrInvalidInput, spec.Name, s, spec.Choices)
			}
		}
	}
	return out, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
