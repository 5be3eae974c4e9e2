package app

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// countPDFPages reads the page count from the document trailer.
func countPDFPages(r io.ReaderAt, size int64) (pages int, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return reader.NumPage(), nil
}
