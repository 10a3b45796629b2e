// Package types defines the data model shared by the steering runtime,
// its stores, and the compaction engine.
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionKey is the identity triple addressing one conversation.
// No two keys ever share runtime or persisted state.
type SessionKey struct {
	App       string `json:"app"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// String renders the key as "app/user/session" for logs and errors.
func (k SessionKey) String() string {
	return k.App + "/" + k.UserID + "/" + k.SessionID
}

// Role identifies the author of an event.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleTool   Role = "tool"
)

// ContentType identifies the kind of a content block.
type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypeThought    ContentType = "thought"
	ContentTypeToolCall   ContentType = "tool_call"
	ContentTypeToolResult ContentType = "tool_result"
)

// ContentBlock is a single unit of event content. Fields are populated
// according to Type.
type ContentBlock struct {
	Type ContentType `json:"type"`

	// Text content (ContentTypeText, ContentTypeThought)
	Text string `json:"text,omitempty"`

	// Tool call fields (ContentTypeToolCall). ToolCallID links a result
	// block back to its call.
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`

	// Tool result fields (ContentTypeToolResult)
	ToolOutput string `json:"tool_output,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Clone returns an independent copy of the block.
func (b ContentBlock) Clone() ContentBlock {
	c := b
	if b.ToolInput != nil {
		c.ToolInput = append(json.RawMessage(nil), b.ToolInput...)
	}
	return c
}

// Event is one atomic happening in a conversation: a user message, a model
// message, a tool exchange, or a system/control marker.
type Event struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Blocks    []ContentBlock `json:"blocks"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewEvent creates an event with a fresh identifier.
func NewEvent(role Role, blocks ...ContentBlock) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Role:      role,
		Blocks:    blocks,
		CreatedAt: time.Now(),
	}
}

// NewTextEvent creates an event with a single text block.
func NewTextEvent(role Role, text string) *Event {
	return NewEvent(role, ContentBlock{Type: ContentTypeText, Text: text})
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	c.Blocks = make([]ContentBlock, len(e.Blocks))
	for i, b := range e.Blocks {
		c.Blocks[i] = b.Clone()
	}
	return &c
}

// TextLen returns the total length of text carried by the event's blocks.
func (e *Event) TextLen() int {
	n := 0
	for _, b := range e.Blocks {
		n += len(b.Text) + len(b.ToolOutput)
	}
	return n
}

// Session is the persisted record for one conversation: the ordered event
// log plus an opaque state map for metadata such as a display title.
//
// Event ordering is insertion-monotonic. Events authored by RoleSystem at
// the head of the log form the preamble prefix that compaction preserves.
type Session struct {
	Key       SessionKey     `json:"key"`
	Events    []*Event       `json:"events"`
	State     map[string]any `json:"state,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StateTitleKey is the state entry holding the display title.
const StateTitleKey = "title"

// Title returns the display title from the state map, if set.
func (s *Session) Title() string {
	if s.State == nil {
		return ""
	}
	title, _ := s.State[StateTitleKey].(string)
	return title
}

// SystemPrefix returns the contiguous run of system-authored events at the
// head of the log. Control markers appended later are not part of it.
func (s *Session) SystemPrefix() []*Event {
	for i, e := range s.Events {
		if e.Role != RoleSystem {
			return s.Events[:i]
		}
	}
	return s.Events
}

// Clone returns a deep copy of the session, independent of the original.
func (s *Session) Clone() *Session {
	c := *s
	c.Events = make([]*Event, len(s.Events))
	for i, e := range s.Events {
		c.Events[i] = e.Clone()
	}
	if s.State != nil {
		c.State = make(map[string]any, len(s.State))
		for k, v := range s.State {
			c.State[k] = v
		}
	}
	return &c
}

// ChunkType identifies the kind of a streamed output chunk.
type ChunkType string

const (
	ChunkText       ChunkType = "text"
	ChunkThought    ChunkType = "thought"
	ChunkToolCall   ChunkType = "tool_call"
	ChunkToolResult ChunkType = "tool_result"
	ChunkError      ChunkType = "error"
)

// Chunk is one unit of streamed turn output.
type Chunk struct {
	Type    ChunkType `json:"type"`
	Content string    `json:"content"`
}

// TextChunk builds a text chunk.
func TextChunk(content string) Chunk {
	return Chunk{Type: ChunkText, Content: content}
}

// ErrorChunk builds an error chunk from an error.
func ErrorChunk(err error) Chunk {
	return Chunk{Type: ChunkError, Content: err.Error()}
}

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}
