package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"youareplan-intake/notify"
	"youareplan-intake/shared"
	"youareplan-intake/transport"
)

// DeliverNotification renders the stage template and posts it to the
// NotifierSink. Delivery is strictly best-effort: a failure is logged and
// reported as false, never as an error, because submission acceptance must
// not depend on the operator channel being up.
func (a *Activities) DeliverNotification(ctx context.Context, n shared.Notification) (bool, error) {
	logger := activity.GetLogger(ctx)

	if a.Config.NotifierWebhookURL == "" {
		logger.Info("Notifier webhook not configured, skipping", "stage", n.Stage)
		return false, nil
	}

	message := notify.Render(n.Stage, n.Fields)
	res := a.Transport.PostJSON(ctx, a.Config.NotifierWebhookURL, map[string]any{
		"stage": string(n.Stage),
		"text":  message,
	}, transport.Options{
		Timeout: shared.NotifierTimeout,
		Retries: 1,
	})
	if !res.OK {
		logger.Warn("Notifier delivery failed",
			"stage", n.Stage,
			"status", res.StatusCode,
			"error", res.Err,
		)
		return false, nil
	}

	logger.Info("Operator notified", "stage", n.Stage)
	return true, nil
}
