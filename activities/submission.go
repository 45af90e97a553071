package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"youareplan-intake/shared"
	"youareplan-intake/transport"
)

// SubmitStage posts one stage payload to its SubmissionSink and classifies
// the outcome. The per-stage API token and release version are attached
// here, so every outbound body satisfies the token invariant no matter
// which controller built the payload.
//
// Retries are owned by the transport layer, not Temporal: the workflow runs
// this activity with MaximumAttempts 1 so the retry budget is spent exactly
// once per idempotency key.
func (a *Activities) SubmitStage(ctx context.Context, sub shared.StageSubmission) (shared.SubmissionResult, error) {
	logger := activity.GetLogger(ctx)

	url := a.Config.SinkURL(sub.Stage)
	if url == "" {
		return shared.SubmissionResult{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("no sink configured for %s", sub.Stage),
			shared.ErrTypeValidation,
			nil,
		)
	}

	payload := make(map[string]any, len(sub.Fields)+2)
	for k, v := range sub.Fields {
		payload[k] = v
	}
	payload["token"] = a.Config.APIToken(sub.Stage)
	payload["release_version"] = shared.ReleaseVersion

	logger.Info("Submitting to stage sink",
		"stage", sub.Stage,
		"idempotencyKey", sub.IdempotencyKey,
	)

	res := a.Transport.PostJSON(ctx, url, payload, transport.Options{
		Timeout:        a.sinkTimeout(sub.Stage),
		Retries:        shared.SinkRetries,
		IdempotencyKey: sub.IdempotencyKey,
		RequestID:      sub.RequestID,
	})

	result := classify(sub.Stage, res)
	logger.Info("Stage submission classified",
		"stage", sub.Stage,
		"outcome", result.Outcome,
		"status", res.StatusCode,
	)
	return result, nil
}

// classify maps the sink's {status, message} envelope and transport-level
// failures onto a SubmissionResult.
//
// The stage-2 sink often commits server-side after the client gives up, so
// a stage-2 timeout after retries is pending, not failed; the session must
// not allow a resubmission it cannot distinguish from a duplicate.
func classify(stage shared.StageID, res transport.Result) shared.SubmissionResult {
	if res.OK {
		switch status(res.Body) {
		case "success":
			return shared.SubmissionResult{Outcome: shared.OutcomeAccepted, StatusCode: res.StatusCode}
		case "success_delayed", "pending":
			return shared.SubmissionResult{Outcome: shared.OutcomePending, StatusCode: res.StatusCode, Message: message(res.Body)}
		default:
			return shared.SubmissionResult{Outcome: shared.OutcomeFailed, StatusCode: res.StatusCode, Message: message(res.Body)}
		}
	}

	if stage == shared.Stage2 && res.TimedOut {
		return shared.SubmissionResult{
			Outcome:    shared.OutcomePending,
			StatusCode: res.StatusCode,
			Message:    "접수되었으며 동기화 중입니다",
		}
	}

	msg := message(res.Body)
	if msg == "" {
		msg = res.Err
	}
	return shared.SubmissionResult{Outcome: shared.OutcomeFailed, StatusCode: res.StatusCode, Message: msg}
}

func status(body map[string]any) string {
	s, _ := body["status"].(string)
	return s
}

func message(body map[string]any) string {
	m, _ := body["message"].(string)
	return m
}
