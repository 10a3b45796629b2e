package steering

import (
	"context"

	"github.com/tenantwise/steering/tool"
	"github.com/tenantwise/steering/types"
)

// GenerateRequest is one model generation over the session's current
// history. The task text is already appended to Events as the latest
// user event before the request is built.
type GenerateRequest struct {
	// System is the full system instruction text.
	System string

	// Events is the conversation history, oldest first.
	Events []*types.Event

	// Tools are the schemas offered to the model for this generation.
	Tools []tool.Tool
}

// ModelClient produces one streamed model generation per call. Tool
// execution stays in the session loop so cancellation checkpoints apply
// before every invocation.
type ModelClient interface {
	Generate(ctx context.Context, req GenerateRequest) (ModelStream, error)
}

// ModelStream iterates the chunks of one generation.
//
//	for stream.Next() {
//	    chunk := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
//	event := stream.Message()
type ModelStream interface {
	// Next advances to the next chunk. It returns false when the stream
	// is exhausted or failed.
	Next() bool

	// Current returns the chunk at the cursor.
	Current() types.Chunk

	// Err returns the terminal stream error, if any.
	Err() error

	// Message returns the accumulated model event, including any tool
	// call blocks. Valid after Next returns false with a nil Err.
	Message() *types.Event
}
