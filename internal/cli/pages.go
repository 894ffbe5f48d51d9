package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/docnodes/internal/pages"
	"github.com/dgallion1/docnodes/internal/raster"
	"github.com/spf13/cobra"
)

type pagesResult struct {
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	PageCount int    `json:"page_count" yaml:"page_count"`
	Pages     []int  `json:"pages" yaml:"pages"`
	Trimmed   string `json:"trimmed,omitempty" yaml:"trimmed,omitempty"`
}

func newPagesCmd() *cobra.Command {
	var count, start, end int
	var list, trimOut string
	cmd := &cobra.Command{
		Use:   "pages [file.pdf]",
		Short: "Resolve a page range or page list against a PDF",
		Long: `Resolve --start/--end (clamped to the document) or --list (out-of-range pages
dropped) against a PDF's page count, or against --count without a file.
With --trim the selected pages are written to a new PDF.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := pagesResult{PageCount: count}
			if len(args) == 1 {
				res.Source = args[0]
				n, err := countFile(args[0])
				if err != nil {
					return err
				}
				res.PageCount = n
			} else if !cmd.Flags().Changed("count") {
				return errors.New("give a PDF file or --count")
			}

			if cmd.Flags().Changed("list") {
				selected, err := pages.ParseList(list, res.PageCount)
				if err != nil {
					return err
				}
				res.Pages = selected
			} else {
				res.Pages = pages.ResolveSpan(start, end, res.PageCount)
			}
			if res.Pages == nil {
				res.Pages = []int{}
			}

			if trimOut != "" {
				if res.Source == "" {
					return errors.New("--trim needs a PDF file")
				}
				if err := trimFile(res.Source, trimOut, res.Pages); err != nil {
					return err
				}
				res.Trimmed = trimOut
			}

			return emit(cmd, res, func(w io.Writer) { printPages(w, res) })
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Page count to resolve against when no file is given")
	cmd.Flags().IntVar(&start, "start", 1, "First page (1-based)")
	cmd.Flags().IntVar(&end, "end", 1, "Last page (1-based, inclusive)")
	cmd.Flags().StringVar(&list, "list", "", `Comma-separated page list, e.g. "1,3,5"`)
	cmd.Flags().StringVar(&trimOut, "trim", "", "Write the selected pages to this PDF")
	return cmd
}

func countFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return raster.CountPages(f)
}

func trimFile(src, dst string, selected []int) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := raster.Trim(in, out, selected); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func printPages(w io.Writer, res pagesResult) {
	header := titleStyle.Render(fmt.Sprintf("%d of %d pages", len(res.Pages), res.PageCount))
	if res.Source != "" {
		header += " " + dimStyle.Render("in "+res.Source)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, res.Pages)
	if res.Trimmed != "" {
		fmt.Fprintln(w, successStyle.Render("wrote "+res.Trimmed))
	}
}
