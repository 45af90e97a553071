package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"youareplan-intake/shared"
)

// Stage3Workflow records one expert consultation. Identity fields arrive
// prefilled from the earlier stages; the consultant adds the expert notes.
// Each consultation is its own execution, so "reset for next client" is
// simply a fresh workflow with a fresh ID.
func Stage3Workflow(ctx workflow.Context, sub shared.Stage3Submission) (shared.SubmissionResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Stage-3 consultation started", "receiptNo", sub.ReceiptNo)

	sub.Normalize()
	if err := sub.Validate(); err != nil {
		ve := err.(*shared.ValidationError)
		return shared.SubmissionResult{}, temporal.NewNonRetryableApplicationError(ve.Message, ve.Kind, nil)
	}
	if sub.Timestamp == "" {
		sub.Timestamp = workflow.Now(ctx).Format("2006-01-02 15:04:05")
	}

	submission := shared.StageSubmission{
		Stage:          shared.Stage3,
		IdempotencyKey: newIdempotencyKey(ctx),
		RequestID:      workflow.GetInfo(ctx).WorkflowExecution.ID,
		Fields:         sub.WireFields(),
	}

	var result shared.SubmissionResult
	if err := workflow.ExecuteActivity(sinkContext(ctx, shared.Stage3), a.SubmitStage, submission).Get(ctx, &result); err != nil {
		logger.Error("Stage-3 submission activity failed", "receiptNo", sub.ReceiptNo, "error", err)
		return shared.SubmissionResult{Outcome: shared.OutcomeFailed, Message: err.Error()}, nil
	}

	if result.Outcome.Terminal() {
		notifyOperator(ctx, shared.Stage3, submission.Fields)
	}

	logger.Info("Stage-3 consultation finished",
		"receiptNo", sub.ReceiptNo,
		"outcome", result.Outcome,
	)
	return result, nil
}
