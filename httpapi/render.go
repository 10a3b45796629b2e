package httpapi

import (
	"bytes"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/tenantwise/steering/types"
)

var (
	markdown  = goldmark.New()
	sanitizer = bluemonday.UGCPolicy()
)

// renderHistoryHTML renders a session transcript as sanitized HTML.
// Text blocks are treated as markdown; tool activity is rendered as
// plain markers.
func renderHistoryHTML(sess *types.Session) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<article class=\"session\"><h1>%s</h1>\n", html.EscapeString(sess.Title()))

	for _, ev := range sess.Events {
		fmt.Fprintf(&b, "<section class=\"event event-%s\">\n", html.EscapeString(string(ev.Role)))
		fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(string(ev.Role)))
		for _, blk := range ev.Blocks {
			switch blk.Type {
			case types.ContentTypeToolCall:
				fmt.Fprintf(&b, "<p class=\"tool-call\">[ToolCall: %s]</p>\n",
					html.EscapeString(blk.ToolName))
			case types.ContentTypeToolResult:
				fmt.Fprintf(&b, "<p class=\"tool-output\">[ToolOutput: %s]</p>\n<pre>%s</pre>\n",
					html.EscapeString(blk.ToolName), html.EscapeString(blk.ToolOutput))
			case types.ContentTypeThought:
				// Model-internal, not rendered.
			default:
				b.Write(renderMarkdown(blk.Text))
			}
		}
		b.WriteString("</section>\n")
	}

	b.WriteString("</article>\n")
	return b.Bytes()
}

func renderMarkdown(text string) []byte {
	var out bytes.Buffer
	if err := markdown.Convert([]byte(text), &out); err != nil {
		return []byte("<p>" + html.EscapeString(text) + "</p>\n")
	}
	return sanitizer.SanitizeBytes(out.Bytes())
}
