package parser

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dgallion1/docnodes/internal/document"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextParser handles plain UTF-8 text files.
type TextParser struct{}

func (p *TextParser) Extract(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("read text: %s is not valid UTF-8", filename)
	}
	return document.New(filename, string(data)), nil
}
