// Package pdfinfo inspects uploaded PDF bytes without rendering them.
package pdfinfo

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Inspect parses the bytes as a PDF and returns the page count. The parser
// never executes embedded content; it only walks the cross-reference tables.
func Inspect(data []byte) (pages int, err error) {
	defer func() {
		// The parser panics on some malformed inputs.
		if r := recover(); r != nil {
			err = fmt.Errorf("parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	return reader.NumPage(), nil
}

// IsPDF reports whether the bytes carry the PDF magic header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
