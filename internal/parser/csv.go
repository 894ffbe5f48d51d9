package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnodes/internal/document"
)

// CSVParser handles CSV files. The first row is the header; every data row
// becomes one line of "header: cell" pairs.
type CSVParser struct{}

func (p *CSVParser) Extract(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return document.New(filename, ""), nil
	}

	headers := records[0]
	var text strings.Builder
	for _, row := range records[1:] {
		for j, cell := range row {
			if j > 0 {
				text.WriteString(", ")
			}
			if j < len(headers) {
				text.WriteString(headers[j] + ": " + cell)
			} else {
				text.WriteString(cell)
			}
		}
		text.WriteString("\n")
	}

	return document.New(filename, strings.TrimSuffix(text.String(), "\n")), nil
}
