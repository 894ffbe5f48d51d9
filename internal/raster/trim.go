package raster

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func pdfcpuConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// CountPages reads the page count without rendering anything.
func CountPages(rs io.ReadSeeker) (int, error) {
	n, err := api.PageCount(rs, pdfcpuConfig())
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// Trim writes a PDF containing only the selected pages to w. Pages keep
// their original document order and duplicates collapse.
func Trim(rs io.ReadSeeker, w io.Writer, pages []int) error {
	if len(pages) == 0 {
		return fmt.Errorf("trim: %w: no pages selected", ErrPageMissing)
	}
	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = strconv.Itoa(p)
	}
	if err := api.Trim(rs, w, selected, pdfcpuConfig()); err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	return nil
}
