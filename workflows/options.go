package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/google/uuid"

	"youareplan-intake/shared"
)

// sinkContext returns an activity context for SubmitStage. The transport
// layer owns the HTTP retry budget, so Temporal must not add a second retry
// layer on top: one activity attempt per idempotency key. The close timeout
// leaves room for every HTTP attempt plus backoff.
func sinkContext(ctx workflow.Context, stage shared.StageID) workflow.Context {
	perAttempt := shared.SinkTimeout(stage)
	budget := time.Duration(shared.SinkRetries+1)*perAttempt + 30*time.Second
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: budget,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
}

// tokenContext returns an activity context for token service calls. The
// validate operation is read-only, so Temporal-level retries are safe here.
func tokenContext(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: time.Duration(shared.TokenAPIRetries+1)*shared.TokenAPITimeout + 15*time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
			NonRetryableErrorTypes: []string{
				shared.ErrTypeTokenInvalid,
			},
		},
	})
}

// notifyContext returns an activity context for operator notification.
func notifyContext(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 45 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	})
}

// newIdempotencyKey mints the key for one logical submission inside a side
// effect, so it is recorded in history and survives workflow replay and
// activity restarts. A new user action mints a new key; retries of the same
// action never do.
func newIdempotencyKey(ctx workflow.Context) string {
	var key string
	_ = workflow.SideEffect(ctx, func(workflow.Context) any {
		return uuid.NewString()
	}).Get(&key)
	return key
}

// notifyOperator fans one submission event out to the operator channel.
// Failures are logged by the activity and ignored here: the applicant's
// outcome never depends on the notifier.
func notifyOperator(ctx workflow.Context, stage shared.StageID, fields map[string]any) {
	var delivered bool
	err := workflow.ExecuteActivity(notifyContext(ctx), a.DeliverNotification, shared.Notification{
		Stage:  stage,
		Fields: fields,
	}).Get(ctx, &delivered)
	if err != nil {
		workflow.GetLogger(ctx).Warn("Operator notification errored", "stage", stage, "error", err)
	}
}
