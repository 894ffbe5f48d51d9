package nodes

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docnodes/internal/chunker"
	"github.com/dgallion1/docnodes/internal/inputdir"
	"github.com/dgallion1/docnodes/internal/pages"
	"github.com/dgallion1/docnodes/internal/parser"
	"github.com/dgallion1/docnodes/internal/raster"
	"github.com/dgallion1/docnodes/internal/selector"
)

const (
	CategoryDocuments = "document_processing"
	CategoryImages    = "image_processing"
)

// Deps are the collaborators the built-in nodes delegate to.
type Deps struct {
	Store     *inputdir.Store
	Open      raster.Opener
	Parser    parser.Options
	ChunkSize int // default chunk_size input
	DPI       int // default dpi input
}

// NewBuiltin returns a registry holding every built-in node.
func NewBuiltin(deps Deps, log *slog.Logger) (*Registry, error) {
	if deps.Open == nil {
		deps.Open = raster.Open
	}
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = chunker.DefaultConfig().Size
	}
	if deps.DPI == 0 {
		deps.DPI = raster.DefaultDPI
	}

	r := NewRegistry(log)
	b := &builtin{deps: deps, log: r.log}
	for _, n := range []Node{
		b.documentLoader(),
		b.pdfToImage(),
		b.pdfPageSplitter(),
		imageSelector(),
		b.textChunker(),
		chunkRouter(),
	} {
		if err := r.Register(n); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type builtin struct {
	deps Deps
	log  *slog.Logger
}

func (b *builtin) fileInput() InputSpec {
	return InputSpec{Name: "file_path", Type: TypeFile}
}

func (b *builtin) dpiInput() InputSpec {
	lo, hi := bounds(raster.MinDPI, raster.MaxDPI)
	return InputSpec{Name: "dpi", Type: TypeInt, Default: b.deps.DPI, Min: lo, Max: hi}
}

// validateFile checks file_path names an existing file in the input dir.
func (b *builtin) validateFile(ctx context.Context, in Inputs) error {
	name, err := in.String("file_path")
	if err != nil {
		return err
	}
	ok, err := b.deps.Store.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", inputdir.ErrNotFound, name)
	}
	return nil
}

// fileFingerprint keys on the file's content plus the other inputs, so
// replacing a file under the same name invalidates cached results.
func (b *builtin) fileFingerprint(node string) func(context.Context, Inputs) (string, error) {
	return func(ctx context.Context, in Inputs) (string, error) {
		name, err := in.String("file_path")
		if err != nil {
			return "", err
		}
		data, err := b.deps.Store.Read(ctx, name)
		if err != nil {
			return "", err
		}
		return HashValues(node, ContentHashHex(data), in)
	}
}

func (b *builtin) documentLoader() Node {
	return Node{
		Name:        "DocumentLoader",
		DisplayName: "Document Loader",
		Category:    CategoryDocuments,
		Inputs:      []InputSpec{b.fileInput()},
		ReturnTypes: []string{TypeString},
		ReturnNames: []string{"parsed_text"},
		Validate:    b.validateFile,
		Fingerprint: b.fileFingerprint("DocumentLoader"),
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			name, err := in.String("file_path")
			if err != nil {
				return nil, err
			}
			name = inputdir.StripPath(name)
			extractor, err := parser.ForFile(name, b.deps.Parser)
			if err != nil {
				return nil, err
			}
			data, err := b.deps.Store.Read(ctx, name)
			if err != nil {
				return nil, err
			}
			doc, err := extractor.Extract(bytes.NewReader(data), name)
			if err != nil {
				return nil, err
			}
			if doc.Empty() {
				b.log.Warn("no text extracted", "file", name, "format", doc.Format, "pages", doc.Pages)
			}
			return Outputs{doc.Text}, nil
		},
	}
}

// openPDF reads file_path from the input dir and opens it for rendering.
func (b *builtin) openPDF(ctx context.Context, in Inputs) (raster.Source, int, error) {
	name, err := in.String("file_path")
	if err != nil {
		return nil, 0, err
	}
	dpi, err := in.Int("dpi")
	if err != nil {
		return nil, 0, err
	}
	data, err := b.deps.Store.Read(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	src, err := b.deps.Open(data)
	if err != nil {
		return nil, 0, err
	}
	return src, dpi, nil
}

func (b *builtin) pdfToImage() Node {
	pageLo, pageHi := bounds(1, 10000)
	return Node{
		Name:        "PDFToImage",
		DisplayName: "PDF to Image (Multi-Page)",
		Category:    CategoryDocuments,
		Inputs: []InputSpec{
			b.fileInput(),
			{Name: "start_page", Type: TypeInt, Default: 1, Min: pageLo, Max: pageHi},
			{Name: "end_page", Type: TypeInt, Default: 1, Min: pageLo, Max: pageHi},
			b.dpiInput(),
		},
		ReturnTypes:  []string{TypeImage},
		ReturnNames:  []string{"images"},
		OutputIsList: true,
		Validate:     b.validateFile,
		Fingerprint:  b.fileFingerprint("PDFToImage"),
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			start, err := in.Int("start_page")
			if err != nil {
				return nil, err
			}
			end, err := in.Int("end_page")
			if err != nil {
				return nil, err
			}
			src, dpi, err := b.openPDF(ctx, in)
			if err != nil {
				return nil, err
			}
			defer src.Close()

			rendered, err := src.Render(pages.ResolveSpan(start, end, src.PageCount()), dpi)
			if err != nil {
				return nil, err
			}
			return Outputs{raster.Images(rendered)}, nil
		},
	}
}

func (b *builtin) pdfPageSplitter() Node {
	return Node{
		Name:        "PDFPageSplitter",
		DisplayName: "PDF Page Splitter",
		Category:    CategoryDocuments,
		Inputs: []InputSpec{
			b.fileInput(),
			{Name: "page_numbers", Type: TypeString, Default: "1,2,3"},
			b.dpiInput(),
		},
		ReturnTypes:  []string{TypeImage},
		ReturnNames:  []string{"selected_pages"},
		OutputIsList: true,
		Validate: func(ctx context.Context, in Inputs) error {
			if err := b.validateFile(ctx, in); err != nil {
				return err
			}
			list, err := in.String("page_numbers")
			if err != nil {
				return err
			}
			return pages.ValidateList(list)
		},
		Fingerprint: b.fileFingerprint("PDFPageSplitter"),
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			list, err := in.String("page_numbers")
			if err != nil {
				return nil, err
			}
			src, dpi, err := b.openPDF(ctx, in)
			if err != nil {
				return nil, err
			}
			defer src.Close()

			selected, err := pages.ParseList(list, src.PageCount())
			if err != nil {
				return nil, err
			}
			rendered, err := src.Render(selected, dpi)
			if err != nil {
				return nil, err
			}
			return Outputs{raster.Images(rendered)}, nil
		},
	}
}

func imageSelector() Node {
	return Node{
		Name:        "ImageSelector",
		DisplayName: "Image Selector",
		Category:    CategoryImages,
		Inputs: []InputSpec{
			{Name: "images", Type: TypeImage, List: true},
			{Name: "indexes", Type: TypeString, Default: "0"},
		},
		ReturnTypes:  []string{TypeImage},
		ReturnNames:  []string{"images"},
		OutputIsList: true,
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			images, err := in.Images("images")
			if err != nil {
				return nil, err
			}
			indexes, err := in.String("indexes")
			if err != nil {
				return nil, err
			}
			selected, err := selector.SelectString(images, indexes)
			if err != nil {
				return nil, err
			}
			return Outputs{selected}, nil
		},
	}
}

func (b *builtin) textChunker() Node {
	sizeLo, sizeHi := bounds(1, 10000)
	return Node{
		Name:        "TextChunker",
		DisplayName: "Text Chunker",
		Category:    CategoryDocuments,
		Inputs: []InputSpec{
			{Name: "text", Type: TypeString, Multiline: true},
			{Name: "chunk_size", Type: TypeInt, Default: b.deps.ChunkSize, Min: sizeLo, Max: sizeHi},
			{Name: "chunk_method", Type: TypeChoice, Default: string(chunker.Words),
				Choices: []string{string(chunker.Words), string(chunker.Characters)}},
			{Name: "respect_word_boundaries", Type: TypeBoolean, Default: true},
		},
		ReturnTypes:  []string{TypeString},
		ReturnNames:  []string{"text_chunks"},
		OutputIsList: true,
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			text, err := in.String("text")
			if err != nil {
				return nil, err
			}
			size, err := in.Int("chunk_size")
			if err != nil {
				return nil, err
			}
			methodName, err := in.String("chunk_method")
			if err != nil {
				return nil, err
			}
			method, err := chunker.ParseMethod(methodName)
			if err != nil {
				return nil, err
			}
			boundaries, err := in.Bool("respect_word_boundaries")
			if err != nil {
				return nil, err
			}
			chunks, err := chunker.Chunk(text, size, method, boundaries)
			if err != nil {
				return nil, err
			}
			return Outputs{chunks}, nil
		},
	}
}

func chunkRouter() Node {
	lo, hi := bounds(0, 1000)
	return Node{
		Name:        "ChunkRouter",
		DisplayName: "Chunk Router",
		Category:    CategoryDocuments,
		Inputs: []InputSpec{
			{Name: "chunks", Type: TypeString, List: true},
			{Name: "selected_index", Type: TypeInt, Default: 0, Min: lo, Max: hi},
		},
		ReturnTypes: []string{TypeString},
		ReturnNames: []string{"selected_chunk"},
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			chunks, err := in.Strings("chunks")
			if err != nil {
				return nil, err
			}
			idx, err := in.Int("selected_index")
			if err != nil {
				return nil, err
			}
			chunk, err := selector.SelectOne(chunks, idx)
			if err != nil {
				return nil, err
			}
			return Outputs{chunk}, nil
		},
	}
}
