package api

import (
	"fmt"
	"image"
	"maps"

	"github.com/dgallion1/docnodes/internal/nodes"
	"github.com/dgallion1/docnodes/internal/raster"
)

// decodeImages replaces base64 PNG strings in the node's image inputs with
// decoded images. Other inputs pass through unchanged.
func decodeImages(n *nodes.Node, in nodes.Inputs) (nodes.Inputs, error) {
	out := maps.Clone(in)
	for _, spec := range n.Inputs {
		if spec.Type != nodes.TypeImage {
			continue
		}
		v, ok := out[spec.Name]
		if !ok {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a list of base64 PNG strings", nodes.ErrInvalidInput, spec.Name)
		}
		images := make([]image.Image, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a base64 PNG string", nodes.ErrInvalidInput, spec.Name, i)
			}
			img, err := raster.DecodeBase64PNG(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %s[%d]: %v", nodes.ErrInvalidInput, spec.Name, i, err)
			}
			images[i] = img
		}
		out[spec.Name] = images
	}
	return out, nil
}

// encodeOutputs turns images into base64 PNG strings so outputs are JSON-safe.
func encodeOutputs(out nodes.Outputs) ([]any, error) {
	encoded := make([]any, len(out))
	for i, v := range out {
		switch v := v.(type) {
		case image.Image:
			s, err := raster.EncodeBase64PNG(v)
			if err != nil {
				return nil, err
			}
			encoded[i] = s
		case []image.Image:
			list := make([]string, len(v))
			for j, img := range v {
				s, err := raster.EncodeBase64PNG(img)
				if err != nil {
					return nil, err
				}
				list[j] = s
			}
			encoded[i] = list
		default:
			encoded[i] = v
		}
	}
	return encoded, nil
}
