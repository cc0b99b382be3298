package vector

import (
	"encoding/json"
	"strconv"
)

// Metadata keys shared by every driver that stores chunk attributes as
// key/value payloads.
const (
	MetaFilename = "filename"
	MetaPage     = "page"
)

// Metadata returns the chunk attributes as a generic payload.
func (d Document) Metadata() map[string]any {
	return map[string]any{
		MetaFilename: d.Filename,
		MetaPage:     d.Page,
	}
}

// ApplyMetadata sets Filename and Page from a payload written by Metadata.
// Missing or malformed values leave the zero value in place.
func (d *Document) ApplyMetadata(meta map[string]any) {
	if meta == nil {
		return
	}

	if filename, ok := meta[MetaFilename].(string); ok {
		d.Filename = filename
	}

	d.Page = ParsePage(meta[MetaPage])
}

// ParsePage converts a stored page value into a page number. JSON payloads
// decode numbers as float64 and string-only stores keep them as text.
func ParsePage(v any) int {
	switch page := v.(type) {
	case int:
		return page
	case int64:
		return int(page)
	case float64:
		return int(page)
	case float32:
		return int(page)
	case json.Number:
		n, err := page.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(page)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
