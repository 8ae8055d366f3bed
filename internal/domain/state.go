package domain

// Stage names a pipeline stage tracked per document.
type Stage string

const StageExtraction Stage = "extraction"

// ProcessingStatus enumerates terminal per-stage outcomes. A document with
// no state record for a stage is unprocessed.
type ProcessingStatus string

const (
	StatusCompleted ProcessingStatus = "completed"
	StatusSkipped   ProcessingStatus = "skipped"
	StatusFailed    ProcessingStatus = "failed"
)

// ProcessingState records the outcome of one stage for one document,
// driving idempotent re-runs.
type ProcessingState struct {
	DocID  int64
	Stage  Stage
	Status ProcessingStatus
	Error  string
}
