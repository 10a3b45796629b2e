package compaction

import "errors"

var (
	// ErrInvalidConfig indicates the threshold configuration is invalid.
	ErrInvalidConfig = errors.New("compaction: invalid config")

	// ErrSummarizationFailed indicates the summarizer returned an error.
	// Compaction degrades to a placeholder summary instead of aborting.
	ErrSummarizationFailed = errors.New("compaction: summarization failed")
)
