package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"youareplan-intake/activities"
	"youareplan-intake/normalize"
	"youareplan-intake/shared"
	"youareplan-intake/transport"
	"youareplan-intake/workflows"
)

// handleStage1 captures a lead: validate, settle the receipt, run the
// stage-1 session to completion, and echo the receipt back. The workflow ID
// reuses the receipt so a double POST of the same logical application
// cannot produce two submissions.
func (s *Server) handleStage1(c *gin.Context) {
	var sub shared.Stage1Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "잘못된 요청 형식입니다"})
		return
	}

	if queryParam(c, "test", "") == "true" {
		sub.TestMode = true
	}
	if sub.UTM == nil {
		sub.UTM = map[string]string{}
	}
	for _, k := range shared.UTMKeys {
		if v := queryParam(c, k, ""); v != "" {
			sub.UTM[k] = v
		}
	}

	sub.Normalize()
	if err := sub.Validate(); err != nil {
		rejectValidation(c, err)
		return
	}
	// A well-formed client receipt is the submission's dedup key: a
	// retried POST carrying the same receipt reattaches to the running
	// session instead of opening a second one. Minting happens here only
	// when the client sent none.
	if !normalize.IsReceiptValid(sub.ReceiptNo) {
		sub.ReceiptNo = s.mintReceipt()
	}

	run, err := s.tc.ExecuteWorkflow(c.Request.Context(), client.StartWorkflowOptions{
		ID:        "stage1-" + sub.ReceiptNo,
		TaskQueue: shared.IntakeWorkflowTaskQueue,
	}, workflows.Stage1Workflow, sub)
	if err != nil {
		s.log.Errorw("stage-1 workflow start failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "신청 처리에 실패했습니다. 잠시 후 다시 시도해 주세요."})
		return
	}

	var result shared.Stage1Result
	if err := run.Get(c.Request.Context(), &result); err != nil {
		s.log.Errorw("stage-1 workflow failed", "receiptNo", sub.ReceiptNo, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "신청 처리에 실패했습니다. 잠시 후 다시 시도해 주세요."})
		return
	}

	c.JSON(statusFor(result.Result.Outcome), gin.H{
		"status":     string(result.Result.Outcome),
		"receipt_no": result.ReceiptNo,
		"message":    result.Result.Message,
	})
}

// handleStage2Session opens (or reattaches to) a stage-2 session from the
// magic-token URL and returns the session snapshot: state, masked phone,
// countdown. A missing token is terminally blocked without touching the
// token service.
func (s *Server) handleStage2Session(c *gin.Context) {
	req, ok := s.stage2Request(c)
	if !ok {
		return
	}

	wfID := stage2WorkflowID(req)
	if _, err := s.tc.ExecuteWorkflow(c.Request.Context(), client.StartWorkflowOptions{
		ID:        wfID,
		TaskQueue: shared.IntakeWorkflowTaskQueue,
	}, workflows.Stage2Workflow, req); err != nil {
		s.log.Errorw("stage-2 workflow start failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "세션을 열 수 없습니다"})
		return
	}

	snap, err := s.queryStage2(c, wfID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "세션 상태 조회에 실패했습니다"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// handleStage2Submit forwards the diagnostic form into the running session.
// The response is a snapshot, not a terminal verdict: the sink can take the
// better part of a minute, so the client polls the session endpoint for the
// outcome.
func (s *Server) handleStage2Submit(c *gin.Context) {
	req, ok := s.stage2Request(c)
	if !ok {
		return
	}

	var form shared.Stage2Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "잘못된 요청 형식입니다"})
		return
	}
	form.Normalize()
	if err := form.Validate(); err != nil {
		rejectValidation(c, err)
		return
	}

	wfID := stage2WorkflowID(req)
	if err := s.tc.SignalWorkflow(c.Request.Context(), wfID, "", shared.SignalStage2FormSubmitted, form); err != nil {
		s.log.Warnw("stage-2 submit signal failed", "workflowID", wfID, "error", err)
		c.JSON(http.StatusNotFound, gin.H{
			"state":   string(shared.Stage2BlockedExpired),
			"message": "세션이 만료되었습니다. 링크를 다시 발급받아 주세요.",
		})
		return
	}

	snap, err := s.queryStage2(c, wfID)
	if err != nil {
		// The signal landed; the snapshot is a convenience.
		c.JSON(http.StatusAccepted, gin.H{"state": string(shared.Stage2Submitting)})
		return
	}
	c.JSON(http.StatusAccepted, snap)
}

// handleStage3 records one expert consultation. Prefill arrives either in
// the body or as URL query parameters from the consultation link.
func (s *Server) handleStage3(c *gin.Context) {
	var sub shared.Stage3Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "잘못된 요청 형식입니다"})
		return
	}

	if sub.Name == "" {
		sub.Name = queryParam(c, "name", "")
	}
	if sub.Phone == "" {
		sub.Phone = queryParam(c, "phone", "")
	}
	if sub.ReceiptNo == "" {
		sub.ReceiptNo = queryParam(c, "r", "")
	}
	if sub.UUID == "" {
		sub.UUID = queryParam(c, "u", "")
	}

	sub.Normalize()
	if err := sub.Validate(); err != nil {
		rejectValidation(c, err)
		return
	}

	// A fresh execution per consultation: "reset for next client" is a new
	// workflow, never a reused session.
	run, err := s.tc.ExecuteWorkflow(c.Request.Context(), client.StartWorkflowOptions{
		ID:        "stage3-" + uuid.NewString(),
		TaskQueue: shared.IntakeWorkflowTaskQueue,
	}, workflows.Stage3Workflow, sub)
	if err != nil {
		s.log.Errorw("stage-3 workflow start failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "상담 기록 저장에 실패했습니다"})
		return
	}

	var result shared.SubmissionResult
	if err := run.Get(c.Request.Context(), &result); err != nil {
		s.log.Errorw("stage-3 workflow failed", "receiptNo", sub.ReceiptNo, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "상담 기록 저장에 실패했습니다"})
		return
	}

	c.JSON(statusFor(result.Outcome), gin.H{
		"status":     string(result.Outcome),
		"receipt_no": sub.ReceiptNo,
		"message":    result.Message,
	})
}

// handleTokenIssue mints a magic token for a receipt. Operator tooling
// only; the route is not mounted in production.
func (s *Server) handleTokenIssue(c *gin.Context) {
	var req shared.TokenIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ParentReceiptNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "parent_receipt_no가 필요합니다"})
		return
	}

	res := s.transport.PostJSON(c.Request.Context(), s.cfg.TokenAPIURL, activities.IssueRequestBody(s.cfg, req), transport.Options{
		Timeout:   shared.TokenAPITimeout,
		Retries:   shared.TokenAPIRetries,
		RequestID: c.GetString("requestID"),
	})
	if !res.OK {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "message": "토큰 발급에 실패했습니다"})
		return
	}
	c.JSON(http.StatusOK, res.Body)
}

// stage2Request assembles the session request from the t, u, and r query
// parameters, enforcing the no-token and operator-mode rules. It writes the
// blocking response itself when the request cannot open a session.
func (s *Server) stage2Request(c *gin.Context) (shared.Stage2Request, bool) {
	req := shared.Stage2Request{
		Token:    queryParam(c, "t", ""),
		UUIDHint: queryParam(c, "u", ""),
	}
	if req.Token == "" {
		r := queryParam(c, "r", "")
		if r != "" && s.cfg.OperatorModeEnabled() {
			req.OperatorReceipt = r
			req.OperatorMode = true
			return req, true
		}
		c.JSON(http.StatusForbidden, gin.H{
			"state":   string(shared.Stage2BlockedInvalid),
			"message": "접근 링크가 올바르지 않습니다. 1차 신청 후 받은 링크로 접속해 주세요.",
			"reissue": true,
		})
		return shared.Stage2Request{}, false
	}
	return req, true
}

// queryStage2 reads the live session snapshot, retrying briefly while the
// first workflow task is still being scheduled.
func (s *Server) queryStage2(c *gin.Context, wfID string) (shared.Stage2Session, error) {
	var snap shared.Stage2Session
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		if attempt > 0 {
			time.Sleep(200 * time.Millisecond)
		}
		val, err := s.tc.QueryWorkflow(c.Request.Context(), wfID, "", shared.QueryStage2Session)
		if err != nil {
			lastErr = err
			continue
		}
		if err := val.Get(&snap); err != nil {
			lastErr = err
			continue
		}
		return snap, nil
	}
	if lastErr == nil {
		lastErr = errors.New("query returned no value")
	}
	s.log.Warnw("stage-2 session query failed", "workflowID", wfID, "error", lastErr)
	return shared.Stage2Session{}, lastErr
}

func rejectValidation(c *gin.Context, err error) {
	var ve *shared.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"kind":    ve.Kind,
			"field":   ve.Field,
			"message": ve.Message,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
}

// statusFor maps a submission outcome to the HTTP status of the gateway
// response. Pending is a success with a warning, never an error: the
// client must not retry it.
func statusFor(o shared.SubmissionOutcome) int {
	switch o {
	case shared.OutcomeAccepted, shared.OutcomePending:
		return http.StatusOK
	default:
		return http.StatusBadGateway
	}
}
