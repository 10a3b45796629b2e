// Package steering is a multi-tenant runtime for long-lived conversational
// agent sessions. Each identity triple (app, user, session) owns an
// isolated session: a tool set bootstrapped from a single skill_load
// gateway, an interrupt channel for cooperative cancellation, and a
// persisted event log kept bounded by threshold-triggered compaction.
//
// A turn enters through Registry.GetOrCreate and Session.RunTask, which
// streams typed output chunks. Cancellation is polled at three
// checkpoints only: before each model call, before each tool call, and
// per streamed chunk. The event log is append-only except for
// compaction, which replaces everything after the system preamble with a
// single summary event.
package steering
