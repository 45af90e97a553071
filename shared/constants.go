package shared

import "time"

// Task queue names.
const (
	IntakeWorkflowTaskQueue = "intake-workflow-tq"
	ActivityTaskQueue       = "intake-activity-tq"
)

// Signal and query names.
const (
	SignalStage2FormSubmitted = "signal-stage2-form-submitted"
	QueryStage2Session        = "query-stage2-session"
)

// StageID identifies one of the three funnel stages. It selects the sink
// URL, the per-stage API token, and the sink timeout.
type StageID string

const (
	Stage1 StageID = "stage1"
	Stage2 StageID = "stage2"
	Stage3 StageID = "stage3"
)

// Sink call budget. The stage-2 spreadsheet back-end is slow enough that a
// request routinely outlives the stage-1 budget, hence the wider window.
const (
	Stage1SinkTimeout = 12 * time.Second
	Stage2SinkTimeout = 45 * time.Second
	Stage3SinkTimeout = 20 * time.Second

	// SinkRetries is the retry budget on top of the first attempt, so a
	// single logical submission performs at most SinkRetries+1 HTTP calls.
	SinkRetries = 2

	TokenAPITimeout = 10 * time.Second
	TokenAPIRetries = 2

	NotifierTimeout = 10 * time.Second
)

// OperatorWindow is the synthetic token window granted to operator-mode
// stage-2 sessions (internal testing only, never production).
const OperatorWindow = 30 * time.Minute

// Error types for non-retryable failures.
const (
	ErrTypeValidation     = "ValidationError"
	ErrTypeConsentMissing = "ConsentMissing"
	ErrTypeTokenInvalid   = "TokenInvalid"
	ErrTypeTokenExpired   = "TokenExpired"
)

// SinkTimeout returns the HTTP budget for one attempt against a stage sink.
func SinkTimeout(stage StageID) time.Duration {
	switch stage {
	case Stage2:
		return Stage2SinkTimeout
	case Stage3:
		return Stage3SinkTimeout
	default:
		return Stage1SinkTimeout
	}
}
