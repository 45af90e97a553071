package shared

import "fmt"

// SubmissionOutcome classifies the terminal state of one sink submission.
type SubmissionOutcome string

const (
	// OutcomeAccepted means the sink confirmed the row was written.
	OutcomeAccepted SubmissionOutcome = "accepted"
	// OutcomePending means the submission was received but the sink has not
	// confirmed it yet (delayed sync, or a stage-2 timeout after the sink
	// likely committed server-side). Resubmission is not allowed.
	OutcomePending SubmissionOutcome = "pending"
	// OutcomeFailed means the submission definitively did not go through.
	// The session latch is released and the user may retry.
	OutcomeFailed SubmissionOutcome = "failed"
)

// Terminal reports whether the outcome latches the session. Only a failed
// submission releases the latch.
func (o SubmissionOutcome) Terminal() bool {
	return o == OutcomeAccepted || o == OutcomePending
}

// SubmissionResult is what the submission pipeline hands back to a stage
// controller after classifying the sink response.
type SubmissionResult struct {
	Outcome    SubmissionOutcome `json:"outcome"`
	Message    string            `json:"message,omitempty"`
	StatusCode int               `json:"statusCode,omitempty"`
}

// StageSubmission is the input to the SubmitStage activity. Fields carries
// the stage payload as sink wire keys; the per-stage API token and release
// version are attached inside the activity, never by callers.
type StageSubmission struct {
	Stage          StageID        `json:"stage"`
	IdempotencyKey string         `json:"idempotencyKey"`
	RequestID      string         `json:"requestId,omitempty"`
	Fields         map[string]any `json:"fields"`
}

// TokenValidationRequest asks the token service whether a magic token still
// unlocks stage-2.
type TokenValidationRequest struct {
	Token    string `json:"token"`
	UUIDHint string `json:"uuid,omitempty"`
}

// TokenValidation is the normalized validate response. RemainingMinutes is
// always populated on success, derived from remaining_seconds when the
// service omits remaining_minutes.
type TokenValidation struct {
	OK               bool   `json:"ok"`
	ParentReceiptNo  string `json:"parent_receipt_no,omitempty"`
	PhoneMask        string `json:"phone_mask,omitempty"`
	RemainingMinutes int    `json:"remaining_minutes,omitempty"`
	Message          string `json:"message,omitempty"`
}

// TokenIssueRequest mints a magic token for a stage-1 receipt. In production
// the downstream sink issues tokens itself; this path exists for operator
// tooling.
type TokenIssueRequest struct {
	ParentReceiptNo string `json:"parent_receipt_no"`
	Phone           string `json:"phone"`
}

// TokenIssueResult is the normalized issue response.
type TokenIssueResult struct {
	OK      bool   `json:"ok"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// Notification is the input to the DeliverNotification activity. Fields is
// the same wire-key projection used for the sink payload; the template for
// the given stage decides which keys are rendered.
type Notification struct {
	Stage  StageID        `json:"stage"`
	Fields map[string]any `json:"fields"`
}

// Stage1Result is the outcome of a stage-1 session: the client-generated
// receipt number plus the classified submission result.
type Stage1Result struct {
	ReceiptNo string           `json:"receipt_no"`
	Result    SubmissionResult `json:"result"`
}

// Stage2State is the state machine of a stage-2 session.
type Stage2State string

const (
	Stage2Validating     Stage2State = "VALIDATING"
	Stage2Gated          Stage2State = "GATED"
	Stage2Submitting     Stage2State = "SUBMITTING"
	Stage2Accepted       Stage2State = "ACCEPTED"
	Stage2Pending        Stage2State = "PENDING"
	Stage2BlockedInvalid Stage2State = "BLOCKED_INVALID"
	Stage2BlockedExpired Stage2State = "BLOCKED_EXPIRED"
)

// Terminal reports whether the state ends the session.
func (s Stage2State) Terminal() bool {
	switch s {
	case Stage2Accepted, Stage2Pending, Stage2BlockedInvalid, Stage2BlockedExpired:
		return true
	}
	return false
}

// Stage2Request starts a stage-2 session. OperatorReceipt substitutes the
// parent receipt for tokenless internal testing and is only honored when
// OperatorMode is set, which the gateway refuses to do in production.
type Stage2Request struct {
	Token           string `json:"token"`
	UUIDHint        string `json:"uuid,omitempty"`
	OperatorReceipt string `json:"operator_receipt,omitempty"`
	OperatorMode    bool   `json:"operator_mode,omitempty"`
}

// Stage2Session is the query snapshot served while a stage-2 session runs,
// and doubles as the workflow result once the session is terminal.
type Stage2Session struct {
	State            Stage2State      `json:"state"`
	ParentReceiptNo  string           `json:"parent_receipt_no,omitempty"`
	PhoneMask        string           `json:"phone_mask,omitempty"`
	RemainingMinutes int              `json:"remaining_minutes"`
	Message          string           `json:"message,omitempty"`
	Result           SubmissionResult `json:"result"`
}

// ValidationError reports a rejected field. Kind is one of the ErrType
// constants so callers can distinguish a missing consent from a malformed
// value.
type ValidationError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
