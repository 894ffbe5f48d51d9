package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestForFile_Dispatch(t *testing.T) {
	tests := map[string]string{
		"a.txt":      "*parser.TextParser",
		"b.MD":       "*parser.MarkdownParser",
		"c.markdown": "*parser.MarkdownParser",
		"d.csv":      "*parser.CSVParser",
		"e.htm":      "*parser.HTMLParser",
		"f.pdf":      "*parser.PDFParser",
		"g.DOCX":     "*parser.DOCXParser",
	}
	for name, want := range tests {
		got, err := ForFile(name, Options{})
		if err != nil {
			t.Errorf("ForFile(%q): unexpected error: %v", name, err)
			continue
		}
		if typ := fmt.Sprintf("%T", got); typ != want {
			t.Errorf("ForFile(%q): expected %s, got %s", name, want, typ)
		}
	}
}

func TestForFile_PDFFallbackOption(t *testing.T) {
	got, err := ForFile("x.pdf", Options{PDFFallbackPdftotext: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := got.(*PDFParser)
	if !ok || !p.FallbackPdftotext {
		t.Errorf("expected PDFParser with fallback enabled, got %#v", got)
	}
}

func TestForFile_Unsupported(t *testing.T) {
	for _, name := range []string{"a.doc", "b.exe", "noext"} {
		_, err := ForFile(name, Options{})
		if !errors.Is(err, ErrUnsupportedFileType) {
			t.Errorf("ForFile(%q): expected ErrUnsupportedFileType, got %v", name, err)
		}
	}
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := Extract(strings.NewReader("x"), "image.png", Options{})
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("Report.PDF") {
		t.Error("expected .PDF to be supported")
	}
	if IsSupportedExtension("archive.zip") {
		t.Error("expected .zip to be unsupported")
	}
}

func TestExtensions_Sorted(t *testing.T) {
	exts := Extensions()
	if len(exts) != len(SupportedExtensions) {
		t.Fatalf("expected %d extensions, got %d", len(SupportedExtensions), len(exts))
	}
	for i := 1; i < len(exts); i++ {
		if exts[i-1] > exts[i] {
			t.Errorf("extensions not sorted: %v", exts)
		}
	}
	for _, e := range exts {
		if strings.HasPrefix(e, ".") {
			t.Errorf("expected extension without dot, got %q", e)
		}
	}
}

func TestPDFParser_InvalidInput(t *testing.T) {
	p := &PDFParser{}
	if _, err := p.Extract(strings.NewReader("not a pdf"), "broken.pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func TestDOCXParser_InvalidInput(t *testing.T) {
	p := &DOCXParser{}
	if _, err := p.Extract(strings.NewReader("not a zip"), "broken.docx"); err == nil {
		t.Error("expected error for invalid DOCX")
	}
}
