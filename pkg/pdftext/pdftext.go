// Package pdftext extracts plain text from PDF documents, one entry per page.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrInvalidPDF is returned when the input cannot be parsed as a PDF.
var ErrInvalidPDF = errors.New("invalid pdf")

// Page is the plain text of a single PDF page.
type Page struct {
	// Number is 1-based.
	Number int
	Text   string
}

// Extract parses raw PDF bytes and returns the text of every page in
// document order. Pages without content, including pages whose text is only
// whitespace, are returned with empty text so numbering stays aligned with
// the source document.
func Extract(raw []byte) (pages []Page, err error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidPDF)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: parser panic: %v", ErrInvalidPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	n := r.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidPDF, i, err)
		}
		if strings.TrimSpace(text) == "" {
			text = ""
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	return pages, nil
}
