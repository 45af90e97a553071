package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"youareplan-intake/shared"
)

// Stage1Workflow runs one lead-capture session end to end: validate the
// application, submit it to the stage-1 sink exactly once per receipt, and
// fan the event out to the operator channel.
//
// The workflow ID is derived from the receipt number, client-supplied or
// minted at the gateway, so a double-tapped submit starts one workflow and
// observes one result; that is the "submitted" latch across process
// boundaries. Token issuance for
// stage-2 happens inside the sink after it accepts the row, strictly after
// this submission completes.
func Stage1Workflow(ctx workflow.Context, sub shared.Stage1Submission) (shared.Stage1Result, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Stage-1 session started", "receiptNo", sub.ReceiptNo)

	sub.Normalize()
	if err := sub.Validate(); err != nil {
		ve := err.(*shared.ValidationError)
		return shared.Stage1Result{}, temporal.NewNonRetryableApplicationError(ve.Message, ve.Kind, nil)
	}

	submission := shared.StageSubmission{
		Stage:          shared.Stage1,
		IdempotencyKey: newIdempotencyKey(ctx),
		RequestID:      workflow.GetInfo(ctx).WorkflowExecution.ID,
		Fields:         sub.WireFields(),
	}

	var result shared.SubmissionResult
	if err := workflow.ExecuteActivity(sinkContext(ctx, shared.Stage1), a.SubmitStage, submission).Get(ctx, &result); err != nil {
		logger.Error("Stage-1 submission activity failed", "receiptNo", sub.ReceiptNo, "error", err)
		return shared.Stage1Result{
			ReceiptNo: sub.ReceiptNo,
			Result:    shared.SubmissionResult{Outcome: shared.OutcomeFailed, Message: err.Error()},
		}, nil
	}

	if result.Outcome.Terminal() {
		notifyOperator(ctx, shared.Stage1, submission.Fields)
	}

	logger.Info("Stage-1 session finished",
		"receiptNo", sub.ReceiptNo,
		"outcome", result.Outcome,
	)
	return shared.Stage1Result{ReceiptNo: sub.ReceiptNo, Result: result}, nil
}
