package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"youareplan-intake/normalize"
	"youareplan-intake/shared"
	"youareplan-intake/transport"
)

// temporalClient is the slice of client.Client the gateway needs. A small
// interface keeps handlers testable without a running Temporal server.
type temporalClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Server translates the public URL surface into workflow starts, signals,
// and queries. It owns client-side validation and receipt generation; all
// durable session state lives in the workflows.
type Server struct {
	tc        temporalClient
	cfg       shared.Config
	log       *zap.SugaredLogger
	transport *transport.Client

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewServer wires a gateway server. now and the RNG seed are fixed here so
// tests can make receipts deterministic.
func NewServer(tc temporalClient, cfg shared.Config, logger *zap.SugaredLogger) *Server {
	return &Server{
		tc:        tc,
		cfg:       cfg,
		log:       logger,
		transport: transport.NewClient(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// Routes builds the gin engine. The operator group only exists outside
// production.
func (s *Server) Routes() *gin.Engine {
	if s.cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	e := gin.New()
	e.Use(gin.Recovery(), s.requestID(), s.accessLog())

	sys := e.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "release": shared.ReleaseVersion})
		})
	}

	api := e.Group("/api")
	{
		api.POST("/stage1", s.handleStage1)
		api.GET("/stage2/session", s.handleStage2Session)
		api.POST("/stage2/submit", s.handleStage2Submit)
		api.POST("/stage3", s.handleStage3)
	}

	if s.cfg.OperatorModeEnabled() {
		op := e.Group("/operator")
		{
			op.POST("/token/issue", s.handleTokenIssue)
		}
	}

	return e
}

// requestID guarantees every request carries an X-Request-ID, generating
// one when the caller did not.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"durationMs", time.Since(start).Milliseconds(),
			"requestID", c.GetString("requestID"),
		)
	}
}

// queryParam is the single query-parameter accessor used by every handler.
func queryParam(c *gin.Context, name, def string) string {
	return c.DefaultQuery(name, def)
}

// mintReceipt generates a stage-1 receipt number. Best effort: collisions
// are tolerated and resolved downstream.
func (s *Server) mintReceipt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return normalize.NewReceiptNumber(s.now(), s.rng)
}

// stage2WorkflowID derives a stable session ID from the gate credential so
// a reloaded tab reattaches to its running session instead of starting a
// second one.
func stage2WorkflowID(req shared.Stage2Request) string {
	if req.Token != "" {
		sum := sha256.Sum256([]byte(req.Token))
		return "stage2-" + hex.EncodeToString(sum[:8])
	}
	return "stage2-op-" + req.OperatorReceipt
}
