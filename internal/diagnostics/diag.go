package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is a structured event about the render loop, streamed to
// preview clients.
type Diagnostic struct {
	Time     time.Time      `json:"time"`
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Segment  string         `json:"segment,omitempty"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Codes emitted by the engine.
const (
	CodeDriverWrite    = "DRIVER.WRITE"
	CodeUnknownSegment = "COMMAND.UNKNOWN_SEGMENT"
	CodeBadIndex       = "COMMAND.INDEX_OUT_OF_RANGE"
	CodeBadCommand     = "COMMAND.INVALID"
	CodeEffectDone     = "EFFECT.DONE"
	CodeQueueFull      = "COMMAND.QUEUE_FULL"
)
