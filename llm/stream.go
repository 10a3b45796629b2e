package llm

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/tenantwise/steering/types"
)

// stream adapts an Anthropic SSE stream to the runtime's stream shape,
// accumulating the full message while surfacing chunks as they arrive.
type stream struct {
	inner *ssestream.Stream[anthropic.MessageStreamEventUnion]
	acc   anthropic.Message
	cur   types.Chunk
	err   error
}

func newStream(inner *ssestream.Stream[anthropic.MessageStreamEventUnion]) *stream {
	return &stream{inner: inner}
}

// Next advances past bookkeeping events until one that carries output.
func (s *stream) Next() bool {
	if s.err != nil {
		return false
	}
	for s.inner.Next() {
		event := s.inner.Current()
		if err := s.acc.Accumulate(event); err != nil {
			s.err = err
			return false
		}
		if chunk, ok := chunkFromEvent(event); ok {
			s.cur = chunk
			return true
		}
	}
	s.err = s.inner.Err()
	return false
}

func (s *stream) Current() types.Chunk { return s.cur }

func (s *stream) Err() error { return s.err }

// Message converts the accumulated response to a model event.
func (s *stream) Message() *types.Event {
	blocks := make([]types.ContentBlock, 0, len(s.acc.Content))
	for _, b := range s.acc.Content {
		switch blk := b.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, types.ContentBlock{
				Type: types.ContentTypeText,
				Text: blk.Text,
			})
		case anthropic.ThinkingBlock:
			blocks = append(blocks, types.ContentBlock{
				Type: types.ContentTypeThought,
				Text: blk.Thinking,
			})
		case anthropic.ToolUseBlock:
			blocks = append(blocks, types.ContentBlock{
				Type:       types.ContentTypeToolCall,
				ToolCallID: blk.ID,
				ToolName:   blk.Name,
				ToolInput:  json.RawMessage(blk.Input),
			})
		}
	}
	return types.NewEvent(types.RoleModel, blocks...)
}

func chunkFromEvent(event anthropic.MessageStreamEventUnion) (types.Chunk, bool) {
	switch e := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		if tu, ok := e.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			return types.Chunk{Type: types.ChunkToolCall, Content: tu.Name}, true
		}
	case anthropic.ContentBlockDeltaEvent:
		switch delta := e.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			return types.TextChunk(delta.Text), true
		case anthropic.ThinkingDelta:
			return types.Chunk{Type: types.ChunkThought, Content: delta.Thinking}, true
		}
	}
	return types.Chunk{}, false
}
