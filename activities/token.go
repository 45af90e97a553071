package activities

import (
	"context"
	"math"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"youareplan-intake/shared"
	"youareplan-intake/transport"
)

// ValidateToken asks the token service whether a magic token still unlocks
// stage-2. The service's {ok, ...} envelope is normalized here: when it
// reports remaining_seconds instead of remaining_minutes, minutes are
// derived by ceiling division, floored at zero.
//
// A validation that comes back ok=false is a business outcome, not an
// activity failure; the caller decides whether that blocks the session.
func (a *Activities) ValidateToken(ctx context.Context, req shared.TokenValidationRequest) (shared.TokenValidation, error) {
	logger := activity.GetLogger(ctx)

	if a.Config.TokenAPIURL == "" {
		return shared.TokenValidation{}, temporal.NewNonRetryableApplicationError(
			"token API endpoint not configured",
			shared.ErrTypeTokenInvalid,
			nil,
		)
	}

	payload := map[string]any{
		"action":    "validate",
		"token":     req.Token,
		"api_token": a.Config.APIToken(shared.Stage1),
	}
	if req.UUIDHint != "" {
		payload["uuid"] = req.UUIDHint
	}

	res := a.Transport.PostJSON(ctx, a.Config.TokenAPIURL, payload, transport.Options{
		Timeout: shared.TokenAPITimeout,
		Retries: shared.TokenAPIRetries,
	})
	if !res.OK {
		logger.Warn("Token validation call failed", "status", res.StatusCode, "error", res.Err)
		return shared.TokenValidation{OK: false, Message: "토큰 확인에 실패했습니다. 잠시 후 다시 시도해 주세요."}, nil
	}

	v := decodeValidation(res.Body)
	logger.Info("Token validated",
		"ok", v.OK,
		"parentReceiptNo", v.ParentReceiptNo,
		"remainingMinutes", v.RemainingMinutes,
	)
	return v, nil
}

// IssueRequestBody builds the token-issue envelope. The operator gateway
// and the IssueToken activity send the identical request, so the shape
// lives in one place.
func IssueRequestBody(cfg shared.Config, req shared.TokenIssueRequest) map[string]any {
	return map[string]any{
		"action":            "issue",
		"parent_receipt_no": req.ParentReceiptNo,
		"phone":             req.Phone,
		"api_token":         cfg.APIToken(shared.Stage1),
	}
}

// IssueToken mints a magic token for a stage-1 receipt. Production issuance
// happens inside the stage-1 sink after it accepts a row; this client-side
// path exists for operator tooling and is mounted only outside production.
func (a *Activities) IssueToken(ctx context.Context, req shared.TokenIssueRequest) (shared.TokenIssueResult, error) {
	logger := activity.GetLogger(ctx)

	res := a.Transport.PostJSON(ctx, a.Config.TokenAPIURL, IssueRequestBody(a.Config, req), transport.Options{
		Timeout: shared.TokenAPITimeout,
		Retries: shared.TokenAPIRetries,
	})
	if !res.OK {
		logger.Warn("Token issue call failed", "status", res.StatusCode, "error", res.Err)
		return shared.TokenIssueResult{OK: false, Message: "토큰 발급에 실패했습니다"}, nil
	}

	ok, _ := res.Body["ok"].(bool)
	token, _ := res.Body["token"].(string)
	msg, _ := res.Body["message"].(string)
	return shared.TokenIssueResult{OK: ok, Token: token, Message: msg}, nil
}

// decodeValidation maps the raw validate envelope to a TokenValidation.
func decodeValidation(body map[string]any) shared.TokenValidation {
	v := shared.TokenValidation{}
	v.OK, _ = body["ok"].(bool)
	v.ParentReceiptNo, _ = body["parent_receipt_no"].(string)
	v.PhoneMask, _ = body["phone_mask"].(string)
	v.Message, _ = body["message"].(string)

	if m, found := number(body, "remaining_minutes"); found {
		v.RemainingMinutes = int(m)
	} else if s, found := number(body, "remaining_seconds"); found {
		v.RemainingMinutes = int(math.Ceil(s / 60))
	}
	if v.RemainingMinutes < 0 {
		v.RemainingMinutes = 0
	}
	return v
}

// number reads a JSON numeric field, which arrives as float64 after
// generic decoding.
func number(body map[string]any, key string) (float64, bool) {
	switch t := body[key].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}
