package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgallion1/docnodes/internal/chunker"
	"github.com/dgallion1/docnodes/internal/parser"
	"github.com/spf13/cobra"
)

type chunkOut struct {
	Index int           `json:"index" yaml:"index"`
	Text  string        `json:"text" yaml:"text"`
	Stats chunker.Stats `json:"stats" yaml:"stats"`
}

type chunkResult struct {
	Source string     `json:"source" yaml:"source"`
	Method string     `json:"method" yaml:"method"`
	Size   int        `json:"size" yaml:"size"`
	Chunks []chunkOut `json:"chunks" yaml:"chunks"`
}

func newChunkCmd() *cobra.Command {
	cfg := chunker.DefaultConfig()
	var method string
	var pdftotext bool
	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Split a document or stdin into chunks",
		Long: `Extract the text of a document and split it into chunks of words or characters.
With no file, or with "-", text is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := chunker.ParseMethod(method)
			if err != nil {
				return err
			}
			cfg.Method = m

			source := "stdin"
			var text string
			if len(args) == 1 && args[0] != "-" {
				source = args[0]
				text, err = loadText(source, parser.Options{PDFFallbackPdftotext: pdftotext})
			} else {
				text, err = readAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			chunks, err := cfg.Split(text)
			if err != nil {
				return err
			}
			res := chunkResult{Source: source, Method: string(cfg.Method), Size: cfg.Size}
			for i, c := range chunks {
				res.Chunks = append(res.Chunks, chunkOut{Index: i, Text: c, Stats: chunker.Measure(c)})
			}
			return emit(cmd, res, func(w io.Writer) { printChunks(w, res) })
		},
	}
	cmd.Flags().IntVarP(&cfg.Size, "size", "s", cfg.Size, "Chunk size in words or characters")
	cmd.Flags().StringVarP(&method, "method", "m", string(cfg.Method), "Chunk method (words, characters)")
	cmd.Flags().BoolVar(&cfg.RespectWordBoundaries, "respect-boundaries", cfg.RespectWordBoundaries, "Keep words whole in character mode")
	cmd.Flags().BoolVar(&pdftotext, "pdftotext", true, "Fall back to pdftotext for PDFs without extractable text")
	return cmd
}

// loadText extracts the text of the document at path.
func loadText(path string, opts parser.Options) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	doc, err := parser.Extract(bytes.NewReader(data), filepath.Base(path), opts)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func printChunks(w io.Writer, res chunkResult) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(fmt.Sprintf("%d chunks", len(res.Chunks))),
		dimStyle.Render(fmt.Sprintf("from %s, %s of %d", res.Source, res.Method, res.Size)))
	for _, c := range res.Chunks {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("#%d  %d words, %d chars, ~%d tokens",
			c.Index, c.Stats.Words, c.Stats.Runes, c.Stats.Tokens)))
		fmt.Fprintln(w, chunkStyle.Render(c.Text))
	}
}
