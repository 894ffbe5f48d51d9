// Package raster renders PDF pages to images and trims PDFs to a page
// selection. Page numbers are 1-based throughout.
package raster

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

const (
	MinDPI     = 72
	MaxDPI     = 600
	DefaultDPI = 300
)

var (
	ErrInvalidDPI  = errors.New("dpi out of range")
	ErrPageMissing = errors.New("page does not exist")
)

// Page is one rendered page.
type Page struct {
	Number int
	Image  image.Image
}

// Source is an open paged document that can be rendered.
type Source interface {
	PageCount() int
	Render(pages []int, dpi int) ([]Page, error)
	Close() error
}

// Opener opens raw document bytes as a Source.
type Opener func(data []byte) (Source, error)

// ValidateDPI checks dpi against the supported resolution range.
func ValidateDPI(dpi int) error {
	if dpi < MinDPI || dpi > MaxDPI {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidDPI, dpi, MinDPI, MaxDPI)
	}
	return nil
}

// Document is a PDF opened with MuPDF. MuPDF contexts are not safe for
// concurrent use, so rendering is serialized.
type Document struct {
	mu  sync.Mutex
	doc *fitz.Document
}

// Open loads a PDF from memory.
func Open(data []byte) (Source, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Document{doc: doc}, nil
}

func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

// Render rasterizes the given pages at dpi, in the order given.
func (d *Document) Render(pages []int, dpi int) ([]Page, error) {
	if err := ValidateDPI(dpi); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.doc.NumPage()
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		if p < 1 || p > n {
			return nil, fmt.Errorf("%w: page %d of %d", ErrPageMissing, p, n)
		}
		img, err := d.doc.ImageDPI(p-1, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", p, err)
		}
		out = append(out, Page{Number: p, Image: img})
	}
	return out, nil
}

func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}

// Images strips page numbers, keeping order.
func Images(pages []Page) []image.Image {
	out := make([]image.Image, len(pages))
	for i, p := range pages {
		out[i] = p.Image
	}
	return out
}
