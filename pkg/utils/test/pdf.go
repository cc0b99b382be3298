package testutils

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
)

// BuildPDF renders one page per argument with the given text. An empty
// string yields a blank page.
func BuildPDF(pages ...string) []byte {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 12)

	for _, text := range pages {
		pdf.AddPage()
		if text != "" {
			pdf.MultiCell(0, 14, text, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
