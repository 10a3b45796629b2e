package compaction

// SummarizationSystemPrompt instructs the summarizer model. The summary
// replaces the entire conversation after the system preamble, so it must
// stand alone.
const SummarizationSystemPrompt = `You are a conversation summarizer for an agent runtime. You will receive a flat transcript of a conversation between a user, a model, and the model's tools. Produce a concise prose summary that preserves everything a future turn needs:

- the user's goals and constraints
- decisions made and facts established
- tools used and the outcomes that still matter
- unfinished work and the immediate next step

Write plain prose. Do not address the user, do not include preamble or headings, and do not mention that you are summarizing.`

// SummaryPlaceholder replaces the summary when summarization fails.
// Truncation still proceeds; a bounded context takes priority over
// summary completeness.
const SummaryPlaceholder = "Error generating summary."

// SummaryEventPrefix introduces the rebuilt user event carrying the
// summary of the truncated conversation.
const SummaryEventPrefix = "context cleared; summary of prior conversation: "
