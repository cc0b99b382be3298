package rag

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/papercomputeco/studai/pkg/llm"
)

const (
	// SearchToolName is the tool the model calls to query the corpus.
	SearchToolName = "search_corpus"

	searchToolDescription = "Search the uploaded PDF documents and return the most relevant pages."

	// MaxSearchQueryRunes caps the length of a model supplied search query.
	MaxSearchQueryRunes = 2000
)

// SearchArgs are the arguments of the search_corpus tool.
type SearchArgs struct {
	Query string `json:"query" jsonschema:"required,description=Search query used to retrieve relevant pages from the uploaded documents,maxLength=2000" validate:"required,max=2000"`
}

var (
	validate = validator.New()

	searchToolOnce sync.Once
	searchTool     llm.Tool
)

// SearchTool returns the search_corpus tool definition with a schema
// reflected from SearchArgs.
func SearchTool() llm.Tool {
	searchToolOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			AllowAdditionalProperties:  false,
			DoNotReference:             true,
			ExpandedStruct:             true,
		}
		schema := reflector.Reflect(&SearchArgs{})
		schema.Version = ""

		searchTool = llm.Tool{
			Name:        SearchToolName,
			Description: searchToolDescription,
			Parameters:  schema,
		}
	})
	return searchTool
}

// ParseSearchArgs decodes and validates raw tool arguments. The input must be
// exactly one JSON object with only the known fields. The query is trimmed
// before validation.
func ParseSearchArgs(raw []byte) (SearchArgs, error) {
	var args SearchArgs

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return args, errors.New("tool arguments must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return SearchArgs{}, fmt.Errorf("decoding tool arguments: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return SearchArgs{}, errors.New("tool arguments must be a single JSON object")
	}

	args.Query = strings.TrimSpace(args.Query)
	if err := validate.Struct(args); err != nil {
		return SearchArgs{}, fmt.Errorf("validating tool arguments: %w", err)
	}

	return args, nil
}

// searchQueryFrom picks the search query from the first search_corpus call
// in msg. ok is false when the model made no such call.
func searchQueryFrom(msg llm.Message) (query string, ok bool, err error) {
	for _, call := range msg.ToolCalls() {
		if call.ToolName != SearchToolName {
			continue
		}
		args, err := ParseSearchArgs(call.ToolArguments)
		if err != nil {
			return "", true, err
		}
		return args.Query, true, nil
	}
	return "", false, nil
}
