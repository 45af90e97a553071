package workflows

import (
	"math"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/workflow"

	"youareplan-intake/shared"
)

// stage2Session holds one diagnostic session's state: the gate produced by
// token validation, the expiry deadline, and the latest classified result.
// The snapshot is what the query handler serves while the session runs and
// what the workflow returns when it ends.
type stage2Session struct {
	snapshot shared.Stage2Session
	deadline time.Time

	req    shared.Stage2Request
	logger log.Logger
	formCh workflow.ReceiveChannel
}

// newStage2Session initializes session state and registers the query
// handler so the countdown and state are visible to the gateway while the
// workflow is still running.
func newStage2Session(ctx workflow.Context, req shared.Stage2Request) (*stage2Session, error) {
	s := &stage2Session{
		snapshot: shared.Stage2Session{State: shared.Stage2Validating},
		req:      req,
		logger:   workflow.GetLogger(ctx),
		formCh:   workflow.GetSignalChannel(ctx, shared.SignalStage2FormSubmitted),
	}

	err := workflow.SetQueryHandler(ctx, shared.QueryStage2Session, func() (shared.Stage2Session, error) {
		snap := s.snapshot
		snap.RemainingMinutes = s.remainingMinutes(workflow.Now(ctx))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *stage2Session) remainingMinutes(now time.Time) int {
	if s.deadline.IsZero() {
		return 0
	}
	left := s.deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}

// gate validates the presented magic token and opens the session window.
// A session with no token is terminally blocked without ever calling the
// token service. Operator mode substitutes a synthetic window for internal
// testing; the gateway only sets it outside production.
func (s *stage2Session) gate(ctx workflow.Context) {
	if s.req.Token == "" {
		if s.req.OperatorMode && s.req.OperatorReceipt != "" {
			s.logger.Info("Stage-2 operator mode session", "receiptNo", s.req.OperatorReceipt)
			s.snapshot.State = shared.Stage2Gated
			s.snapshot.ParentReceiptNo = s.req.OperatorReceipt
			s.deadline = workflow.Now(ctx).Add(shared.OperatorWindow)
			return
		}
		s.snapshot.State = shared.Stage2BlockedInvalid
		s.snapshot.Message = "접근 링크가 올바르지 않습니다. 1차 신청 후 받은 링크로 접속해 주세요."
		return
	}

	var v shared.TokenValidation
	err := workflow.ExecuteActivity(tokenContext(ctx), a.ValidateToken, shared.TokenValidationRequest{
		Token:    s.req.Token,
		UUIDHint: s.req.UUIDHint,
	}).Get(ctx, &v)
	if err != nil {
		s.logger.Error("Token validation activity failed", "error", err)
		s.snapshot.State = shared.Stage2BlockedInvalid
		s.snapshot.Message = "토큰 확인에 실패했습니다"
		return
	}
	if !v.OK {
		s.snapshot.State = shared.Stage2BlockedInvalid
		s.snapshot.Message = v.Message
		return
	}

	// The validate response is the only authority on the parent receipt;
	// URL and form values for it are ignored from here on.
	s.snapshot.State = shared.Stage2Gated
	s.snapshot.ParentReceiptNo = v.ParentReceiptNo
	s.snapshot.PhoneMask = v.PhoneMask
	s.deadline = workflow.Now(ctx).Add(time.Duration(v.RemainingMinutes) * time.Minute)
	s.logger.Info("Stage-2 session gated",
		"parentReceiptNo", v.ParentReceiptNo,
		"remainingMinutes", v.RemainingMinutes,
	)
}

// run drives the gated session: wait for a form submission or the window
// expiry, whichever comes first. A failed submission releases the latch and
// the session keeps listening; accepted, pending, and both blocked states
// are terminal.
func (s *stage2Session) run(ctx workflow.Context) {
	for !s.snapshot.State.Terminal() {
		remaining := s.deadline.Sub(workflow.Now(ctx))
		if remaining <= 0 {
			s.expire()
			return
		}

		var form shared.Stage2Form
		received := false

		timerCtx, timerCancel := workflow.WithCancel(ctx)
		timerFuture := workflow.NewTimer(timerCtx, remaining)

		selector := workflow.NewSelector(ctx)
		selector.AddFuture(timerFuture, func(f workflow.Future) {
			_ = f.Get(ctx, nil)
		})
		selector.AddReceive(s.formCh, func(ch workflow.ReceiveChannel, more bool) {
			ch.Receive(ctx, &form)
			received = true
			timerCancel()
		})
		selector.Select(ctx)

		if !received {
			s.expire()
			return
		}
		// Collapse a rapid double tap into one attempt: only the latest
		// queued form is submitted.
		for s.formCh.ReceiveAsync(&form) {
		}
		s.submit(ctx, form)
	}
}

func (s *stage2Session) expire() {
	s.logger.Info("Stage-2 window expired", "parentReceiptNo", s.snapshot.ParentReceiptNo)
	s.snapshot.State = shared.Stage2BlockedExpired
	s.snapshot.Message = "세션이 만료되었습니다. 링크를 다시 발급받아 주세요."
}

// submit handles one form submission attempt. The token is re-validated
// immediately before the POST so a stale tab cannot replay past the window,
// and the freshest validate response supplies the parent receipt.
func (s *stage2Session) submit(ctx workflow.Context, form shared.Stage2Form) {
	form.Normalize()
	if err := form.Validate(); err != nil {
		s.logger.Info("Stage-2 form rejected", "error", err)
		s.snapshot.Message = err.(*shared.ValidationError).Message
		return
	}

	s.snapshot.State = shared.Stage2Submitting

	if s.req.Token != "" {
		var v shared.TokenValidation
		err := workflow.ExecuteActivity(tokenContext(ctx), a.ValidateToken, shared.TokenValidationRequest{
			Token:    s.req.Token,
			UUIDHint: s.req.UUIDHint,
		}).Get(ctx, &v)
		if err != nil || !v.OK {
			s.logger.Info("Pre-submit revalidation failed, aborting submission",
				"parentReceiptNo", s.snapshot.ParentReceiptNo,
			)
			s.snapshot.State = shared.Stage2BlockedExpired
			s.snapshot.Message = "세션이 만료되었습니다. 링크를 다시 발급받아 주세요."
			return
		}
		s.snapshot.ParentReceiptNo = v.ParentReceiptNo
		s.snapshot.PhoneMask = v.PhoneMask
	}

	fields := form.WireFields()
	fields["parent_receipt_no"] = s.snapshot.ParentReceiptNo
	fields["magic_token"] = s.req.Token

	submission := shared.StageSubmission{
		Stage:          shared.Stage2,
		IdempotencyKey: newIdempotencyKey(ctx),
		RequestID:      workflow.GetInfo(ctx).WorkflowExecution.ID,
		Fields:         fields,
	}

	var result shared.SubmissionResult
	if err := workflow.ExecuteActivity(sinkContext(ctx, shared.Stage2), a.SubmitStage, submission).Get(ctx, &result); err != nil {
		s.logger.Error("Stage-2 submission activity failed", "error", err)
		result = shared.SubmissionResult{Outcome: shared.OutcomeFailed, Message: err.Error()}
	}

	s.snapshot.Result = result
	s.snapshot.Message = result.Message

	switch result.Outcome {
	case shared.OutcomeAccepted:
		s.snapshot.State = shared.Stage2Accepted
	case shared.OutcomePending:
		s.snapshot.State = shared.Stage2Pending
	default:
		// Definitive failure releases the latch; back to the gate so the
		// applicant can retry inside the remaining window.
		s.snapshot.State = shared.Stage2Gated
		return
	}

	notifyOperator(ctx, shared.Stage2, fields)
}

// Stage2Workflow models one diagnostic session behind the magic-token gate.
//
// State machine:
//
//	VALIDATING → GATED            token ok
//	VALIDATING → BLOCKED_INVALID  no token, or validation refused
//	GATED      → SUBMITTING       form signal received
//	GATED      → BLOCKED_EXPIRED  window timer fired
//	SUBMITTING → ACCEPTED/PENDING sink confirmed or still syncing (terminal)
//	SUBMITTING → GATED            sink definitively failed (latch released)
//	SUBMITTING → BLOCKED_EXPIRED  pre-submit revalidation refused
func Stage2Workflow(ctx workflow.Context, req shared.Stage2Request) (shared.Stage2Session, error) {
	s, err := newStage2Session(ctx, req)
	if err != nil {
		return shared.Stage2Session{}, err
	}

	s.gate(ctx)
	if !s.snapshot.State.Terminal() {
		s.run(ctx)
	}

	s.snapshot.RemainingMinutes = s.remainingMinutes(workflow.Now(ctx))
	s.logger.Info("Stage-2 session finished",
		"state", s.snapshot.State,
		"parentReceiptNo", s.snapshot.ParentReceiptNo,
	)
	return s.snapshot, nil
}
