package rag

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/papercomputeco/studai/pkg/render"
	"github.com/papercomputeco/studai/pkg/vector"
)

// UnknownFile labels chunks stored without a filename.
const UnknownFile = "unknown file"

// PageText is the text of one retrieved page.
type PageText struct {
	Page int
	Text string
}

// FileGroup holds the retrieved pages of a single file, ascending by page.
type FileGroup struct {
	Filename string
	Pages    []PageText
}

// GroupedContext is retrieval output organized by file then page. Files keep
// the order in which they first appear in the retrieval result.
type GroupedContext []FileGroup

// Group organizes results by filename and page. A repeated (file, page)
// keeps the first text seen, which is the highest scoring one.
func Group(results []vector.QueryResult) GroupedContext {
	var grouped GroupedContext
	index := make(map[string]int)

	for _, r := range results {
		name := r.Filename
		if name == "" {
			name = UnknownFile
		}
		page := max(r.Page, 0)

		i, ok := index[name]
		if !ok {
			i = len(grouped)
			index[name] = i
			grouped = append(grouped, FileGroup{Filename: name})
		}

		g := &grouped[i]
		pos, found := slices.BinarySearchFunc(g.Pages, page, func(p PageText, target int) int {
			return p.Page - target
		})
		if found {
			continue
		}
		g.Pages = slices.Insert(g.Pages, pos, PageText{Page: page, Text: r.Content})
	}

	return grouped
}

// Files returns the filenames in group order.
func (g GroupedContext) Files() []string {
	files := make([]string, 0, len(g))
	for _, f := range g {
		files = append(files, f.Filename)
	}
	return files
}

// Format renders the grouped context as the prompt block sent to the model.
// Every page ends with a blank line, which also separates files.
func (g GroupedContext) Format() string {
	var b strings.Builder
	for _, f := range g {
		b.WriteString("=== ")
		b.WriteString(f.Filename)
		b.WriteString(" ===\n")
		for _, p := range f.Pages {
			b.WriteString("[Page ")
			b.WriteString(strconv.Itoa(p.Page))
			b.WriteString("]\n")
			b.WriteString(p.Text)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// Sources flattens the groups into render sources in group order.
func (g GroupedContext) Sources() []render.Source {
	var out []render.Source
	for _, f := range g {
		for _, p := range f.Pages {
			out = append(out, render.Source{Filename: f.Filename, Page: p.Page, Snippet: p.Text})
		}
	}
	return out
}

// MarshalJSON encodes the context as {"file": {"page": "text"}} keeping file
// and page order.
func (g GroupedContext) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, f.Filename); err != nil {
			return nil, err
		}
		buf.WriteString(":{")
		for j, p := range f.Pages {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(&buf, strconv.Itoa(p.Page)); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSONString(&buf, p.Text); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
