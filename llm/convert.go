package llm

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/tenantwise/steering/tool"
	"github.com/tenantwise/steering/types"
)

// convertEvents renders the event log as Anthropic message parameters.
// The leading system preamble is carried in the request's System field,
// so system events here (control markers appended mid-conversation) are
// sent as user text to keep them visible to the model.
func convertEvents(events []*types.Event) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(events))
	for _, ev := range events {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(ev.Blocks))
		for _, b := range ev.Blocks {
			blocks = append(blocks, convertBlock(b))
		}
		if len(blocks) == 0 {
			continue
		}

		role := anthropic.MessageParamRoleUser
		if ev.Role == types.RoleModel {
			role = anthropic.MessageParamRoleAssistant
		}
		params = append(params, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return params
}

func convertBlock(b types.ContentBlock) anthropic.ContentBlockParamUnion {
	switch b.Type {
	case types.ContentTypeToolCall:
		var input any
		if len(b.ToolInput) > 0 {
			_ = json.Unmarshal(b.ToolInput, &input)
		}
		// The API requires an object, not null.
		if input == nil {
			input = map[string]any{}
		}
		return anthropic.NewToolUseBlock(b.ToolCallID, input, b.ToolName)

	case types.ContentTypeToolResult:
		return anthropic.NewToolResultBlock(b.ToolCallID, b.ToolOutput, b.IsError)

	default:
		return anthropic.NewTextBlock(b.Text)
	}
}

// convertTools renders the session's tool set as Anthropic tool unions.
func convertTools(tools []tool.Tool) []anthropic.ToolUnionParam {
	unions := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema()

		properties := make(map[string]any, len(schema.Properties))
		for name, prop := range schema.Properties {
			p := map[string]any{"type": prop.Type}
			if prop.Description != "" {
				p["description"] = prop.Description
			}
			if len(prop.Enum) > 0 {
				p["enum"] = prop.Enum
			}
			properties[name] = p
		}

		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       constant.Object("object"),
			Properties: properties,
		}
		if len(schema.Required) > 0 {
			inputSchema.Required = schema.Required
		}

		param := anthropic.ToolParam{
			Name:        t.Name(),
			Description: anthropic.String(t.Description()),
			InputSchema: inputSchema,
		}
		unions = append(unions, anthropic.ToolUnionParam{OfTool: &param})
	}
	return unions
}
