// Package compaction bounds a session's event log. When the log grows past
// the hard turn limit the engine summarizes the conversation, truncates
// the log to the system preamble plus a single summary event, and saves
// the result.
package compaction

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/types"
)

// Summarizer produces a prose summary of a rendered transcript. It runs
// as a constrained sub-task with no tools.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Result reports what a compaction pass did.
type Result struct {
	Compacted       bool
	EventsBefore    int
	EventsAfter     int
	TextBefore      int
	TextAfter       int
	UsedPlaceholder bool
	Duration        time.Duration
}

// Engine performs threshold-triggered compaction against a store.
type Engine struct {
	summarizer Summarizer
	store      store.Store
	cfg        Config
	logger     *log.Logger
}

// NewEngine creates an engine. A nil logger falls back to the default.
func NewEngine(summarizer Summarizer, st store.Store, cfg Config, logger *log.Logger) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{summarizer: summarizer, store: st, cfg: cfg, logger: logger}, nil
}

// Config returns the engine's threshold configuration.
func (e *Engine) Config() Config { return e.cfg }

// Needed reports whether the session's log exceeds the hard turn limit.
func (e *Engine) Needed(sess *types.Session) bool {
	return len(sess.Events) > e.cfg.HardTurnLimit
}

// Compact truncates the session's log if it exceeds the hard turn limit.
// At or under the limit it is a no-op, so repeated calls on an already
// compacted session never mutate it.
//
// The session is mutated in place and then saved unconditionally. Stores
// may hand out copies on Get, so an unsaved mutation would be silently
// lost. A save failure is logged and the result still returned; the
// caller's in-memory log stays bounded even if storage lags behind.
func (e *Engine) Compact(ctx context.Context, sess *types.Session) (*Result, error) {
	res := &Result{EventsBefore: len(sess.Events), EventsAfter: len(sess.Events)}
	if !e.Needed(sess) {
		return res, nil
	}

	start := time.Now()
	prefix := sess.SystemPrefix()
	transcript := Transcript(sess.Events)
	res.TextBefore = len(transcript)

	summary, err := e.summarizer.Summarize(ctx, transcript)
	if err != nil || summary == "" {
		e.logger.Warn("summarization failed, using placeholder",
			"session", sess.Key, "err", err)
		summary = SummaryPlaceholder
		res.UsedPlaceholder = true
	}

	rebuilt := make([]*types.Event, 0, len(prefix)+1)
	rebuilt = append(rebuilt, prefix...)
	rebuilt = append(rebuilt, types.NewTextEvent(types.RoleUser, SummaryEventPrefix+summary))
	sess.Events = rebuilt

	res.Compacted = true
	res.EventsAfter = len(sess.Events)
	for _, ev := range sess.Events {
		res.TextAfter += ev.TextLen()
	}
	res.Duration = time.Since(start)

	if err := e.store.Save(ctx, sess); err != nil {
		e.logger.Error("saving compacted session failed",
			"session", sess.Key, "err", err)
	}

	e.logger.Info("compacted session",
		"session", sess.Key,
		"events_before", res.EventsBefore,
		"events_after", res.EventsAfter,
		"placeholder", res.UsedPlaceholder,
		"duration", res.Duration)
	return res, nil
}
