package hooks

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/tenantwise/steering/compaction"
	"github.com/tenantwise/steering/types"
)

// RegisterLogging attaches hooks that log every model call, tool call,
// and compaction through the given logger. Logging hooks never fail.
func RegisterLogging(r *Registry, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	r.OnBeforeModel(func(ctx context.Context, key types.SessionKey, events []*types.Event) error {
		logger.Debug("model call", "session", key, "events", len(events))
		return nil
	})

	r.OnToolCall(func(ctx context.Context, key types.SessionKey, toolName string, input json.RawMessage, output string, toolErr error) error {
		if toolErr != nil {
			logger.Warn("tool call failed", "session", key, "tool", toolName, "err", toolErr)
		} else {
			logger.Debug("tool call", "session", key, "tool", toolName, "output_len", len(output))
		}
		return nil
	})

	r.OnBeforeCompaction(func(ctx context.Context, key types.SessionKey) error {
		logger.Info("compaction starting", "session", key)
		return nil
	})

	r.OnAfterCompaction(func(ctx context.Context, key types.SessionKey, result *compaction.Result) error {
		logger.Info("compaction finished",
			"session", key,
			"events_before", result.EventsBefore,
			"events_after", result.EventsAfter,
			"placeholder", result.UsedPlaceholder,
			"duration", result.Duration)
		return nil
	})
}
