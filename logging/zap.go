// Package logging bridges the process zap logger into the Temporal SDK so
// worker, workflow, and activity logs all land in one structured stream.
package logging

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// TemporalZap adapts a zap sugared logger to the Temporal SDK log.Logger
// interface.
type TemporalZap struct {
	sugar *zap.SugaredLogger
}

var _ log.Logger = (*TemporalZap)(nil)

// NewTemporalLogger wraps logger for use in client.Options.Logger. The
// extra CallerSkip keeps call sites pointing at SDK callers instead of this
// adapter.
func NewTemporalLogger(logger *zap.Logger) *TemporalZap {
	return &TemporalZap{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *TemporalZap) Debug(msg string, keyvals ...interface{}) { l.sugar.Debugw(msg, keyvals...) }
func (l *TemporalZap) Info(msg string, keyvals ...interface{})  { l.sugar.Infow(msg, keyvals...) }
func (l *TemporalZap) Warn(msg string, keyvals ...interface{})  { l.sugar.Warnw(msg, keyvals...) }
func (l *TemporalZap) Error(msg string, keyvals ...interface{}) { l.sugar.Errorw(msg, keyvals...) }
