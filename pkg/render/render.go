// Package render lays out a question, its answer and the retrieved sources
// as a paginated PDF document.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/papercomputeco/studai/pkg/utils"
)

const (
	pageWidth  = 612.0
	pageHeight = 792.0
	margin     = 72.0

	contentWidth = pageWidth - 2*margin

	fontFamily = "Helvetica"

	bodySize       = 11.0
	bodyLineHeight = 15.0

	titleSize       = 18.0
	titleLineHeight = 24.0

	labelSize       = 12.0
	labelLineHeight = 18.0

	snippetRunes = 500

	// DefaultTitle is used when Document.Title is empty.
	DefaultTitle = "StudAI Answer"

	noSourcesText = "No sources were retrieved for this answer."
)

// Source is a retrieved page cited in the appendix.
type Source struct {
	Filename string
	Page     int
	Snippet  string
}

// Document is the content of a rendered answer.
type Document struct {
	Title    string
	Question string
	Answer   string
	Sources  []Source
}

// Renderer writes rendered documents into OutputDir.
type Renderer struct {
	OutputDir string
}

// New returns a Renderer writing into dir.
func New(dir string) *Renderer {
	return &Renderer{OutputDir: dir}
}

// Render writes doc to a fresh <uuid>.pdf under OutputDir and returns its path.
func (r *Renderer) Render(doc Document) (string, error) {
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(r.OutputDir, uuid.NewString()+".pdf")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating artifact: %w", err)
	}

	if err := RenderTo(f, doc); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing artifact: %w", err)
	}

	return path, nil
}

// RenderTo writes doc as a PDF to w.
func RenderTo(w io.Writer, doc Document) error {
	l := newLayout()

	title := doc.Title
	if title == "" {
		title = DefaultTitle
	}

	l.heading(title, titleSize, titleLineHeight)
	l.gap(bodyLineHeight / 2)

	l.heading("Question", labelSize, labelLineHeight)
	l.paragraphs(doc.Question)
	l.gap(bodyLineHeight / 2)
	l.rule()

	l.heading("Answer", labelSize, labelLineHeight)
	l.paragraphs(doc.Answer)

	l.newPage()
	l.heading("Sources", labelSize, labelLineHeight)
	if len(doc.Sources) == 0 {
		l.paragraphs(noSourcesText)
	}
	for _, s := range doc.Sources {
		l.gap(bodyLineHeight / 2)
		l.heading(fmt.Sprintf("%s — page %d", s.Filename, s.Page), bodySize, bodyLineHeight)
		l.paragraphs(utils.Truncate(s.Snippet, snippetRunes))
	}

	if err := l.pdf.Error(); err != nil {
		return fmt.Errorf("laying out pdf: %w", err)
	}
	if err := l.pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// layout tracks the cursor for manual pagination.
type layout struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	y   float64
}

func newLayout() *layout {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	// Lines are wrapped to the full content width, so cells carry no padding.
	pdf.SetCellMargin(0)

	l := &layout{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
	l.newPage()
	return l
}

func (l *layout) newPage() {
	l.pdf.AddPage()
	l.y = margin
}

func (l *layout) ensure(height float64) {
	if l.y+height > pageHeight-margin {
		l.newPage()
	}
}

func (l *layout) gap(height float64) {
	l.y += height
}

func (l *layout) line(text string, lineHeight float64) {
	l.ensure(lineHeight)
	l.pdf.SetXY(margin, l.y)
	l.pdf.CellFormat(contentWidth, lineHeight, text, "", 0, "L", false, 0, "")
	l.y += lineHeight
}

func (l *layout) heading(text string, size, lineHeight float64) {
	l.pdf.SetFont(fontFamily, "B", size)
	l.lines(text, lineHeight)
}

func (l *layout) paragraphs(text string) {
	l.pdf.SetFont(fontFamily, "", bodySize)
	l.lines(text, bodyLineHeight)
}

func (l *layout) lines(text string, lineHeight float64) {
	for _, line := range wrap(l.width, Sanitize(text), contentWidth) {
		l.line(l.tr(line), lineHeight)
	}
}

func (l *layout) rule() {
	l.ensure(bodyLineHeight)
	l.pdf.Line(margin, l.y, pageWidth-margin, l.y)
	l.y += bodyLineHeight / 2
}

// width measures s in the current font after cp1252 translation.
func (l *layout) width(s string) float64 {
	return l.pdf.GetStringWidth(l.tr(s))
}

// wrap splits text into lines no wider than width as reported by measure.
// Paragraphs split on newlines, empty paragraphs become empty lines, and
// words wider than the line are broken between runes.
func wrap(measure func(string) float64, text string, width float64) []string {
	var lines []string
	for para := range strings.SplitSeq(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			if measure(word) > width {
				if current != "" {
					lines = append(lines, current)
				}
				pieces := breakWord(measure, word, width)
				lines = append(lines, pieces[:len(pieces)-1]...)
				current = pieces[len(pieces)-1]
				continue
			}

			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if measure(candidate) <= width {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

// breakWord splits a single over-long word into pieces that each fit width.
func breakWord(measure func(string) float64, word string, width float64) []string {
	runes := []rune(word)
	var pieces []string
	start := 0
	for i := 1; i <= len(runes); i++ {
		if measure(string(runes[start:i])) > width && i-1 > start {
			pieces = append(pieces, string(runes[start:i-1]))
			start = i - 1
		}
	}
	return append(pieces, string(runes[start:]))
}
