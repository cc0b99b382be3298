package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIngested is emitted after an uploaded PDF was indexed.
	EventTypeDocumentIngested = "studai.document.ingested"

	// EventTypeAnswerGenerated is emitted after a question was answered.
	EventTypeAnswerGenerated = "studai.answer.generated"

	sourceService = "studai"
)

// Event is a transport-neutral event envelope. Exactly one of Document or
// Answer is set, matching EventType.
type Event struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	EventID       string           `json:"event_id"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Source        EventSource      `json:"source"`
	Document      *DocumentPayload `json:"document,omitempty"`
	Answer        *AnswerPayload   `json:"answer,omitempty"`
}

// EventSource identifies where the event originated.
type EventSource struct {
	Service string `json:"service"`
}

// DocumentPayload describes an ingested upload.
type DocumentPayload struct {
	Filename    string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
	Pages       int    `json:"pages"`
}

// AnswerPayload describes an answered question. The question and answer text
// are left out so events never carry document content.
type AnswerPayload struct {
	Mode        string   `json:"mode"`
	SearchQuery string   `json:"search_query,omitempty"`
	Files       []string `json:"files"`
	Artifact    string   `json:"artifact,omitempty"`
}

// Key returns the partitioning key for the event: the filename for document
// events, the event id otherwise.
func (e *Event) Key() string {
	if e.Document != nil && e.Document.Filename != "" {
		return e.Document.Filename
	}
	return e.EventID
}

func newEvent(eventType string) *Event {
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        EventSource{Service: sourceService},
	}
}

// NewDocumentIngested builds a studai.document.ingested event.
func NewDocumentIngested(p DocumentPayload) *Event {
	e := newEvent(EventTypeDocumentIngested)
	e.Document = &p
	return e
}

// NewAnswerGenerated builds a studai.answer.generated event.
func NewAnswerGenerated(p AnswerPayload) *Event {
	e := newEvent(EventTypeAnswerGenerated)
	if p.Files == nil {
		p.Files = []string{}
	}
	e.Answer = &p
	return e
}
