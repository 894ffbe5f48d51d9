package document

import (
	"path/filepath"
	"strings"
)

// Document is the extracted text of a source file.
type Document struct {
	Name   string // Base filename without extension
	Format string // Lowercase extension without the dot, e.g. "pdf"
	Text   string // Full extracted text
	Pages  int    // Page count for paged formats, 0 otherwise
}

// New builds a Document named after filename.
func New(filename, text string) *Document {
	ext := filepath.Ext(filename)
	return &Document{
		Name:   strings.TrimSuffix(filepath.Base(filename), ext),
		Format: strings.TrimPrefix(strings.ToLower(ext), "."),
		Text:   text,
	}
}

// Empty reports whether the document carries no visible text.
func (d *Document) Empty() bool {
	return strings.TrimSpace(d.Text) == ""
}
