package compaction

import (
	"fmt"
	"strings"

	"github.com/tenantwise/steering/types"
)

// Transcript renders an event log as a flat "role: content" text, one
// line per content block. Tool calls and tool outputs are rendered as
// bracketed markers so the summarizer sees the shape of the conversation
// without raw payloads dominating the text.
func Transcript(events []*types.Event) string {
	var b strings.Builder
	for _, ev := range events {
		for _, blk := range ev.Blocks {
			switch blk.Type {
			case types.ContentTypeToolCall:
				fmt.Fprintf(&b, "%s: [ToolCall: %s]\n", ev.Role, blk.ToolName)
			case types.ContentTypeToolResult:
				fmt.Fprintf(&b, "%s: [ToolOutput: %s] %s\n", ev.Role, blk.ToolName, blk.ToolOutput)
			case types.ContentTypeThought:
				// Thoughts are model-internal and excluded from summaries.
			default:
				fmt.Fprintf(&b, "%s: %s\n", ev.Role, blk.Text)
			}
		}
	}
	return b.String()
}
