package steering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tenantwise/steering/compaction"
	"github.com/tenantwise/steering/hooks"
	"github.com/tenantwise/steering/skill"
	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/tool"
	"github.com/tenantwise/steering/types"
)

// SkillLoadToolName is the name of the bootstrap gateway tool every
// session starts with.
const SkillLoadToolName = "skill_load"

const (
	softAdvisory = "\n\n[System Note] Context is getting long. Summarize progress so far and keep responses brief to conserve context."

	compactingNotice = "[System] Conversation exceeded the turn limit, compacting context...\n"

	interruptedMarker = "[System] The user interrupted the current conversation."

	cancelledNotice = "\n\n[Stopped] Task cancelled."
)

// maxTitleLen bounds the display title derived from the first task text.
const maxTitleLen = 80

// Session is the per-identity runtime unit. It owns the session's tool
// set and interrupt channel and drives one turn at a time against the
// shared store and model client.
//
// Turns for one identity are strictly sequential; a second RunTask call
// blocks until the in-flight turn finishes. Sessions for different
// identities never share state.
type Session struct {
	key        types.SessionKey
	interrupts InterruptChannel
	guard      Guard
	tools      *tool.Set
	system     string

	store  store.Store
	model  ModelClient
	engine *compaction.Engine
	skills *skill.Manager
	hooks  *hooks.Registry
	cfg    Config
	logger *log.Logger

	mu sync.Mutex // serializes turns
}

func newSession(key types.SessionKey, r *Registry) *Session {
	s := &Session{
		key:        key,
		interrupts: NewInterruptChannel(),
		store:      r.store,
		model:      r.model,
		engine:     r.engine,
		skills:     r.skills,
		hooks:      r.hooks,
		cfg:        r.cfg,
		logger:     r.cfg.Logger.With("session", key),
	}
	s.guard = NewGuard(s.interrupts)
	s.tools = tool.NewSet(s.gatewayTool())
	s.system = buildSystemText(r.cfg.Preamble, r.skills.Manifests())
	return s
}

// Key returns the session's identity triple.
func (s *Session) Key() types.SessionKey { return s.key }

// Tools returns the session's tool set.
func (s *Session) Tools() *tool.Set { return s.tools }

// Interrupt enqueues a cancel signal for the session's current or next
// turn. It never blocks; the signal takes effect at the next checkpoint.
func (s *Session) Interrupt() {
	s.interrupts.Signal()
}

// gatewayTool builds the skill_load bootstrap tool. Every other
// capability enters the session through it.
func (s *Session) gatewayTool() tool.Tool {
	return &tool.Func{
		ToolName:        SkillLoadToolName,
		ToolDescription: "Load a skill by name. Returns the skill's instructions and mounts its tools into the session. Skills must be loaded before their capabilities can be used.",
		ToolSchema: tool.ObjectSchema(map[string]tool.Property{
			"name": {Type: "string", Description: "Name of the skill to load, as listed in the available skills."},
		}, "name"),
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid skill_load input: %w", err)
			}
			return s.LoadSkill(ctx, args.Name)
		},
	}
}

// LoadSkill mounts the named skill's tools into the session and returns
// its instruction text. Loading is idempotent per tool name: tools the
// session already carries are skipped, so repeated loads never grow the
// tool set.
func (s *Session) LoadSkill(ctx context.Context, name string) (string, error) {
	if !s.skills.Exists(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSkill, name)
	}
	sk, err := s.skills.Load(name)
	if err != nil {
		return "", err
	}

	added := 0
	for _, t := range sk.Tools {
		if s.tools.Has(t.Name()) {
			continue
		}
		if err := s.tools.Add(t); err != nil {
			return "", err
		}
		added++
	}
	s.logger.Info("skill loaded", "skill", name, "tools_added", added, "tools_total", s.tools.Len())
	return sk.Instructions, nil
}

// RunTask executes one turn and streams its output. The channel closes
// when the turn completes or is interrupted. All failures surface as
// chunks; RunTask itself never fails.
func (s *Session) RunTask(ctx context.Context, text string) <-chan types.Chunk {
	out := make(chan types.Chunk, 32)
	go func() {
		defer close(out)
		s.mu.Lock()
		defer s.mu.Unlock()

		emit := func(c types.Chunk) {
			select {
			case out <- c:
			case <-ctx.Done():
			}
		}

		sess, err := s.loadOrCreate(ctx)
		if err != nil {
			emit(types.ErrorChunk(NewSessionError("load session", s.key, err)))
			return
		}

		// The only place the cancellation signal is caught.
		err = s.executeTurn(ctx, sess, text, emit)
		switch {
		case errors.Is(err, ErrInterrupted):
			sess.Events = append(sess.Events, types.NewTextEvent(types.RoleSystem, interruptedMarker))
			if serr := s.store.Save(ctx, sess); serr != nil {
				s.logger.Error("saving interrupted session failed", "err", serr)
			}
			s.logger.Info("turn interrupted", "events", len(sess.Events))
			emit(types.TextChunk(cancelledNotice))
		case err != nil:
			emit(types.ErrorChunk(err))
		}
	}()
	return out
}

func (s *Session) loadOrCreate(ctx context.Context) (*types.Session, error) {
	sess, err := s.store.Get(ctx, s.key)
	if errors.Is(err, store.ErrSessionNotFound) {
		return s.store.Create(ctx, s.key)
	}
	return sess, err
}

func (s *Session) executeTurn(ctx context.Context, sess *types.Session, task string, emit func(types.Chunk)) error {
	thresholds := s.engine.Config()
	turnCount := len(sess.Events)
	toolCount := s.tools.Len()

	switch {
	case turnCount > thresholds.HardTurnLimit:
		emit(types.TextChunk(compactingNotice))
		if err := s.hooks.TriggerBeforeCompaction(ctx, s.key); err != nil {
			return NewSessionError("before-compaction hook", s.key, err)
		}
		result, err := s.engine.Compact(ctx, sess)
		if err != nil {
			return NewSessionError("compact", s.key, err)
		}
		if err := s.hooks.TriggerAfterCompaction(ctx, s.key, result); err != nil {
			return NewSessionError("after-compaction hook", s.key, err)
		}
		if result.Compacted {
			emit(types.TextChunk(fmt.Sprintf(
				"[System] Compaction complete. Events %d -> %d, text %d -> %d chars.\n",
				result.EventsBefore, result.EventsAfter, result.TextBefore, result.TextAfter)))
		}
	case turnCount > thresholds.SoftTurnLimit:
		s.logger.Info("soft turn limit exceeded, advisory injected", "events", turnCount)
		task += softAdvisory
	}

	if toolCount > thresholds.ToolAdvisoryLimit {
		s.logger.Warn("many tools loaded, consider fewer skills", "tools", toolCount)
	}

	if sess.Title() == "" || sess.Title() == store.DefaultTitle {
		if sess.State == nil {
			sess.State = make(map[string]any)
		}
		sess.State[types.StateTitleKey] = deriveTitle(task)
	}
	sess.Events = append(sess.Events, types.NewTextEvent(types.RoleUser, task))

	for i := 0; i < s.cfg.MaxToolIterations; i++ {
		// Checkpoint before every generation, not just the first. A
		// cancel landing during the previous iteration's tool calls
		// must not start another model call.
		if err := s.guard.Check(); err != nil {
			return err
		}

		if err := s.hooks.TriggerBeforeModel(ctx, s.key, sess.Events); err != nil {
			return NewSessionError("before-model hook", s.key, err)
		}

		stream, err := s.model.Generate(ctx, GenerateRequest{
			System: s.system,
			Events: sess.Events,
			Tools:  s.tools.List(),
		})
		if err != nil {
			return NewSessionError("model call", s.key, err)
		}

		for stream.Next() {
			if err := s.guard.Check(); err != nil {
				return err
			}
			emit(stream.Current())
		}
		if err := stream.Err(); err != nil {
			return NewSessionError("model stream", s.key, err)
		}

		modelEv := stream.Message()
		sess.Events = append(sess.Events, modelEv)

		calls := toolCalls(modelEv)
		if len(calls) == 0 {
			return s.save(ctx, sess)
		}

		for _, call := range calls {
			if err := s.guard.Check(); err != nil {
				return err
			}
			output, execErr := s.executeTool(ctx, call)
			sess.Events = append(sess.Events, types.NewEvent(types.RoleTool, types.ContentBlock{
				Type:       types.ContentTypeToolResult,
				ToolCallID: call.ToolCallID,
				ToolName:   call.ToolName,
				ToolOutput: output,
				IsError:    execErr != nil,
			}))
			if execErr != nil {
				emit(types.ErrorChunk(fmt.Errorf("tool %s: %w", call.ToolName, execErr)))
			} else {
				emit(types.Chunk{Type: types.ChunkToolResult, Content: output})
			}
		}
	}

	if err := s.save(ctx, sess); err != nil {
		return err
	}
	return NewSessionError("turn", s.key, ErrTurnLimitExceeded)
}

// executeTool runs one tool call. Failures are returned for recording in
// the log and as error chunks; they never abort the turn.
func (s *Session) executeTool(ctx context.Context, call types.ContentBlock) (string, error) {
	t, ok := s.tools.Get(call.ToolName)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrToolNotFound, call.ToolName)
		s.triggerToolHooks(ctx, call, "", err)
		return err.Error(), err
	}

	output, err := t.Execute(ctx, call.ToolInput)
	s.triggerToolHooks(ctx, call, output, err)
	if err != nil {
		return err.Error(), err
	}
	return output, nil
}

func (s *Session) triggerToolHooks(ctx context.Context, call types.ContentBlock, output string, toolErr error) {
	if err := s.hooks.TriggerToolCall(ctx, s.key, call.ToolName, call.ToolInput, output, toolErr); err != nil {
		s.logger.Warn("tool-call hook failed", "tool", call.ToolName, "err", err)
	}
}

func (s *Session) save(ctx context.Context, sess *types.Session) error {
	if err := s.store.Save(ctx, sess); err != nil {
		return NewSessionError("save session", s.key, err)
	}
	return nil
}

func toolCalls(ev *types.Event) []types.ContentBlock {
	var calls []types.ContentBlock
	for _, b := range ev.Blocks {
		if b.Type == types.ContentTypeToolCall {
			calls = append(calls, b)
		}
	}
	return calls
}

func deriveTitle(task string) string {
	title := strings.TrimSpace(task)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	runes := []rune(title)
	if len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}
	if title == "" {
		title = store.DefaultTitle
	}
	return title
}

func buildSystemText(preamble string, manifests []skill.Manifest) string {
	var b strings.Builder
	b.WriteString(preamble)
	if len(manifests) > 0 {
		b.WriteString("\n\nAvailable skills, load one with the skill_load tool before using its capabilities:\n")
		for _, m := range manifests {
			fmt.Fprintf(&b, "- %s: %s\n", m.Name, m.Description)
		}
	}
	return strings.TrimSpace(b.String())
}
