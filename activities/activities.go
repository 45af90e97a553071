package activities

import (
	"time"

	"youareplan-intake/shared"
	"youareplan-intake/transport"
)

// Activities is the receiver for all activity methods. Using a struct lets
// the worker register everything via RegisterActivity(a) and lets us inject
// the process Config and the shared HTTP transport. Tests swap in a
// transport pointed at an httptest server, or mock the methods outright in
// workflow tests.
type Activities struct {
	Config    shared.Config
	Transport *transport.Client

	// SinkTimeoutOverride replaces the per-stage sink timeout when set.
	// Tests use it to exercise the timeout classification without waiting
	// out the production budgets.
	SinkTimeoutOverride time.Duration
}

func (a *Activities) sinkTimeout(stage shared.StageID) time.Duration {
	if a.SinkTimeoutOverride > 0 {
		return a.SinkTimeoutOverride
	}
	return shared.SinkTimeout(stage)
}
